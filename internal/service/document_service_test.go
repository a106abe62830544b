package service

import (
	"context"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/redline/internal/ai"
	"github.com/xxxsen/redline/internal/model"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/repo"
)

func strPtr(s string) *string { return &s }

func newDocumentService(t *testing.T) *DocumentService {
	t.Helper()
	return NewDocumentService(repo.NewMemoryStore())
}

func TestCreateDocumentValidation(t *testing.T) {
	svc := newDocumentService(t)
	_, err := svc.Create(context.Background(), model.DocumentInput{Name: "  ", Content: "x"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs, "name")

	doc, err := svc.Create(context.Background(), model.DocumentInput{Name: " a.txt ", Content: "x"})
	require.NoError(t, err)
	require.Equal(t, "a.txt", doc.Name)
	require.Equal(t, "text/plain", doc.MimeType)
}

func TestDeleteUnknownDocumentIsNotFound(t *testing.T) {
	svc := newDocumentService(t)
	err := svc.Delete(context.Background(), 99)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestSaveRevisionDiffsAgainstBaseline(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t)
	doc, err := svc.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "one\ntwo\nthree"})
	require.NoError(t, err)

	detail, err := svc.SaveRevision(ctx, doc.ID, "one\n2\nthree")
	require.NoError(t, err)
	require.Equal(t, "one\n2\nthree", detail.Revision.Content)
	require.Len(t, detail.Changes, 1)
	require.Equal(t, model.ChangeTypeModification, detail.Changes[0].Type)
	require.Equal(t, 2, detail.Changes[0].LineNumber)
	require.Equal(t, "two", *detail.Changes[0].OriginalContent)
	require.Equal(t, detail.Changes[0].Snapshot(), detail.Revision.Changes[0])

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "one\n2\nthree", got.Content)
	require.Equal(t, "one\ntwo\nthree", *got.OriginalContent)

	// the second save is still measured against the pinned baseline
	detail, err = svc.SaveRevision(ctx, doc.ID, "one\n2\nthree\nfour")
	require.NoError(t, err)
	require.Len(t, detail.Changes, 2)
	require.Equal(t, model.ChangeTypeAddition, detail.Changes[1].Type)
	require.Equal(t, 4, detail.Changes[1].LineNumber)

	revs, err := svc.ListRevisions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
}

func TestApplyAIEditEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t)
	doc, err := svc.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "line1\nline2\nline3"})
	require.NoError(t, err)

	edit := &ai.EditResult{
		EditedContent: "line1\nlineX\nline3",
		Changes: []ai.ProposedChange{
			{Type: "modification", LineNumber: 2, Content: "lineX", OriginalContent: strPtr("line2")},
		},
		Summary: "sharpened line two",
	}
	detail, err := svc.ApplyAIEdit(ctx, doc.ID, edit, true)
	require.NoError(t, err)
	require.Equal(t, "line1\nlineX\nline3", detail.Revision.Content)
	require.Len(t, detail.Changes, 1)
	require.Equal(t, model.ChangeTypeModification, detail.Changes[0].Type)
	require.Equal(t, 2, detail.Changes[0].LineNumber)
	require.Equal(t, model.ChangeStatusPending, detail.Changes[0].Status)

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "line1\nlineX\nline3", got.Content)
	require.Equal(t, "line1\nline2\nline3", *got.OriginalContent)
}

func TestApplyAIEditFallsBackToDiffer(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t)
	doc, err := svc.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "line1\nline2\nline3"})
	require.NoError(t, err)

	edit := &ai.EditResult{
		EditedContent: "line1\nlineX\nline3",
		Changes:       []ai.ProposedChange{{Type: "modification", LineNumber: 42, Content: "lineX"}},
	}
	detail, err := svc.ApplyAIEdit(ctx, doc.ID, edit, false)
	require.NoError(t, err)
	require.Len(t, detail.Changes, 1)
	require.Equal(t, 2, detail.Changes[0].LineNumber)
	require.Equal(t, "line2", *detail.Changes[0].OriginalContent)

	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Nil(t, got.OriginalContent)
}

func TestUpdateChangeStatus(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t)
	doc, err := svc.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "a"})
	require.NoError(t, err)
	detail, err := svc.SaveRevision(ctx, doc.ID, "b")
	require.NoError(t, err)
	id := detail.Changes[0].ID

	_, err = svc.UpdateChangeStatus(ctx, id, "pending")
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)

	change, err := svc.UpdateChangeStatus(ctx, id, "Accepted")
	require.NoError(t, err)
	require.Equal(t, model.ChangeStatusAccepted, change.Status)

	_, err = svc.UpdateChangeStatus(ctx, id, "rejected")
	require.ErrorIs(t, err, appErr.ErrConflict)
	_, err = svc.UpdateChangeStatus(ctx, 1000, "rejected")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestResolveRevision(t *testing.T) {
	ctx := context.Background()
	svc := newDocumentService(t)
	doc, err := svc.Create(ctx, model.DocumentInput{Name: "a.txt", Content: "a\nb"})
	require.NoError(t, err)
	detail, err := svc.SaveRevision(ctx, doc.ID, "a\nc\nd")
	require.NoError(t, err)
	require.Len(t, detail.Changes, 2)

	_, err = svc.UpdateChangeStatus(ctx, detail.Changes[0].ID, "rejected")
	require.NoError(t, err)

	resolved, err := svc.ResolveRevision(ctx, detail.Revision.ID, "accepted")
	require.NoError(t, err)
	require.True(t, resolved.Revision.IsAccepted)
	require.Equal(t, model.ChangeStatusRejected, resolved.Changes[0].Status)
	require.Equal(t, model.ChangeStatusAccepted, resolved.Changes[1].Status)

	_, err = svc.ResolveRevision(ctx, 404, "accepted")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
