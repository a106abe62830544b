package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/redline/internal/ai"
	"github.com/xxxsen/redline/internal/model"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/repo"
)

type stubProvider struct {
	name   string
	reply  string
	err    error
	prompt string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, prompt string, opts ai.CompleteOptions) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newAIService(t *testing.T, maxChars int, providers ...ai.IProvider) (*AIService, *DocumentService) {
	t.Helper()
	docs := NewDocumentService(repo.NewMemoryStore())
	gw := ai.NewGateway(providers)
	return NewAIService(gw, ai.NewAnalyzer(gw), docs, maxChars), docs
}

func TestAIEditDevelopmentalEndToEnd(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{
		name:  "openai",
		reply: "```json\n{\"editedContent\":\"line1\\nlineX\\nline3\",\"changes\":[{\"type\":\"modification\",\"lineNumber\":2,\"content\":\"lineX\",\"originalContent\":\"line2\"}],\"summary\":\"tightened\"}\n```",
	}
	svc, docs := newAIService(t, 0, stub)
	doc, err := docs.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "line1\nline2\nline3"})
	require.NoError(t, err)

	res, err := svc.AIEdit(ctx, doc.ID, "developmental", ai.Params{Instructions: "more tension"}, "openai", false)
	require.NoError(t, err)
	require.Equal(t, "tightened", res.Edit.Summary)
	require.Equal(t, "line1\nlineX\nline3", res.Revision.Revision.Content)

	changes, err := docs.ListChanges(ctx, res.Revision.Revision.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, model.ChangeTypeModification, changes[0].Type)
	require.Equal(t, 2, changes[0].LineNumber)
	require.Equal(t, model.ChangeStatusPending, changes[0].Status)
	require.True(t, strings.Contains(stub.prompt, "more tension"))
}

func TestAIEditKeepsLeadingBlankLines(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{
		name:  "openai",
		reply: `{"editedContent":"\nline2\nline3","changes":[{"type":"deletion","lineNumber":2,"content":"line1"}],"summary":"cut"}`,
	}
	svc, docs := newAIService(t, 0, stub)
	doc, err := docs.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "\nline1\nline2\nline3"})
	require.NoError(t, err)

	res, err := svc.AIEdit(ctx, doc.ID, "line", ai.Params{}, "openai", true)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(stub.prompt, "TEXT:\n\nline1\nline2\nline3"))

	changes, err := docs.ListChanges(ctx, res.Revision.Revision.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, model.ChangeTypeDeletion, changes[0].Type)
	require.Equal(t, 2, changes[0].LineNumber)
	require.Equal(t, "line1", changes[0].Content)

	updated, err := docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.OriginalContent)
	require.Equal(t, "\nline1\nline2\nline3", *updated.OriginalContent)
}

func TestAIEditRejectsUnknownType(t *testing.T) {
	svc, docs := newAIService(t, 0)
	doc, err := docs.Create(context.Background(), model.DocumentInput{Name: "a", Content: "x"})
	require.NoError(t, err)
	_, err = svc.AIEdit(context.Background(), doc.ID, "copy", ai.Params{}, "", false)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestAIEditProviderFailureLeavesDocument(t *testing.T) {
	ctx := context.Background()
	svc, docs := newAIService(t, 0, &stubProvider{name: "openai", err: errors.New("401 unauthorized")})
	doc, err := docs.Create(ctx, model.DocumentInput{Name: "a", Content: "x"})
	require.NoError(t, err)

	_, err = svc.AIEdit(ctx, doc.ID, "line", ai.Params{}, "openai", false)
	var perr *ai.ProviderError
	require.ErrorAs(t, err, &perr)

	revs, err := docs.ListRevisions(ctx, doc.ID)
	require.NoError(t, err)
	require.Empty(t, revs)
}

func TestAnalyzeCleansInput(t *testing.T) {
	stub := &stubProvider{name: "openai", reply: `{"themes":[],"summary":""}`}
	svc, _ := newAIService(t, 10, stub)

	_, err := svc.Analyze(context.Background(), ai.TaskThemes, "   ", ai.Params{}, "openai")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Analyze(context.Background(), ai.TaskThemes, "this is far too long", ai.Params{}, "openai")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	out, err := svc.Analyze(context.Background(), ai.TaskThemes, "  short  ", ai.Params{}, "openai")
	require.NoError(t, err)
	require.IsType(t, &ai.ThemeAnalysis{}, out)
	require.True(t, strings.HasSuffix(stub.prompt, "TEXT:\nshort"))
}

func TestAnalyzePicksOptimalConfiguredProvider(t *testing.T) {
	anthropic := &stubProvider{name: "anthropic", reply: `{"themes":[],"summary":""}`}
	openai := &stubProvider{name: "openai", reply: `{"themes":[],"summary":""}`}
	svc, _ := newAIService(t, 0, anthropic, openai)

	_, err := svc.Analyze(context.Background(), ai.TaskThemes, "text", ai.Params{}, "")
	require.NoError(t, err)
	require.NotEmpty(t, anthropic.prompt)
	require.Empty(t, openai.prompt)
}

func TestResolveContentFromDocument(t *testing.T) {
	ctx := context.Background()
	svc, docs := newAIService(t, 0)
	doc, err := docs.Create(ctx, model.DocumentInput{Name: "a", Content: "stored"})
	require.NoError(t, err)

	content, err := svc.ResolveContent(ctx, "", doc.ID)
	require.NoError(t, err)
	require.Equal(t, "stored", content)

	content, err = svc.ResolveContent(ctx, "given", doc.ID)
	require.NoError(t, err)
	require.Equal(t, "given", content)

	_, err = svc.ResolveContent(ctx, "", 99)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestProvidersInfo(t *testing.T) {
	svc, _ := newAIService(t, 0, &stubProvider{name: "gemini"})
	info := svc.Providers()
	require.Equal(t, []string{"gemini"}, info.Configured)
	require.Contains(t, info.Supported, "anthropic")
	require.Equal(t, ai.DefaultProvider, info.Default)
	require.NotEmpty(t, info.Tasks)
}
