package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/redline/internal/ai"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
)

const (
	EditTypeDevelopmental = "developmental"
	EditTypeLine          = "line"
)

type AIService struct {
	gateway       *ai.Gateway
	analyzer      *ai.Analyzer
	docs          *DocumentService
	maxInputChars int
}

func NewAIService(gateway *ai.Gateway, analyzer *ai.Analyzer, docs *DocumentService, maxInputChars int) *AIService {
	return &AIService{
		gateway:       gateway,
		analyzer:      analyzer,
		docs:          docs,
		maxInputChars: maxInputChars,
	}
}

type AIEditResult struct {
	Edit     *ai.EditResult  `json:"edit"`
	Revision *RevisionDetail `json:"revision"`
}

type ProvidersInfo struct {
	Configured []string      `json:"configured"`
	Supported  []string      `json:"supported"`
	Default    string        `json:"default"`
	Fallback   string        `json:"fallback"`
	Synthesis  string        `json:"synthesis"`
	Tasks      []ai.TaskInfo `json:"tasks"`
}

func (s *AIService) Providers() ProvidersInfo {
	return ProvidersInfo{
		Configured: s.gateway.Providers(),
		Supported:  ai.SupportedProviders(),
		Default:    s.gateway.DefaultProvider(),
		Fallback:   s.gateway.Fallback(),
		Synthesis:  s.analyzer.SynthesisProvider(),
		Tasks:      ai.Tasks(),
	}
}

func (s *AIService) OptimalProvider(task string) string {
	return ai.GetOptimalProvider(task)
}

// ResolveContent returns content, or the current text of documentID when
// content is blank.
func (s *AIService) ResolveContent(ctx context.Context, content string, documentID int64) (string, error) {
	if strings.TrimSpace(content) == "" && documentID > 0 {
		doc, err := s.docs.Get(ctx, documentID)
		if err != nil {
			return "", err
		}
		return doc.Content, nil
	}
	return content, nil
}

func (s *AIService) Analyze(ctx context.Context, task string, content string, params ai.Params, provider string) (interface{}, error) {
	text, err := s.cleanInput(content)
	if err != nil {
		return nil, err
	}
	provider = s.pickProvider(task, provider)
	logutil.GetLogger(ctx).Info("running analysis", zap.String("task", task), zap.String("provider", provider), zap.Int("size", len(text)))
	return s.analyzer.Run(ctx, task, text, params, provider)
}

func (s *AIService) Verify(ctx context.Context, task string, content string, prior json.RawMessage, primary string, verifier string) (*ai.VerifiedResult, error) {
	text, err := s.cleanInput(content)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Verify(ctx, task, text, prior, primary, verifier)
}

func (s *AIService) Consensus(ctx context.Context, task string, content string, params ai.Params, providers []string) (*ai.ConsensusResult, error) {
	text, err := s.cleanInput(content)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		providers = s.gateway.Providers()
	}
	return s.analyzer.Consensus(ctx, task, text, params, providers)
}

// AIEdit runs an edit task over the document and stores the outcome as a revision.
func (s *AIService) AIEdit(ctx context.Context, docID int64, editType string, params ai.Params, provider string, keepOriginal bool) (*AIEditResult, error) {
	var task string
	switch strings.ToLower(strings.TrimSpace(editType)) {
	case "", EditTypeDevelopmental:
		task = ai.TaskDevelopmentalEdit
	case EditTypeLine:
		task = ai.TaskLineEdit
	default:
		return nil, fmt.Errorf("edit type must be developmental or line: %w", appErr.ErrInvalid)
	}
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	// line numbers in the reply refer to the exact stored text
	if err := s.checkInput(doc.Content); err != nil {
		return nil, err
	}
	provider = s.pickProvider(task, provider)
	out, err := s.analyzer.Run(ctx, task, doc.Content, params, provider)
	if err != nil {
		return nil, err
	}
	edit := out.(*ai.EditResult)
	detail, err := s.docs.ApplyAIEdit(ctx, docID, edit, keepOriginal)
	if err != nil {
		return nil, err
	}
	return &AIEditResult{Edit: edit, Revision: detail}, nil
}

func (s *AIService) pickProvider(task string, provider string) string {
	if strings.TrimSpace(provider) != "" {
		return provider
	}
	if optimal := ai.GetOptimalProvider(task); s.gateway.HasProvider(optimal) {
		return optimal
	}
	return s.gateway.DefaultProvider()
}

func (s *AIService) cleanInput(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if err := s.checkInput(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

func (s *AIService) checkInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("content is empty: %w", appErr.ErrInvalid)
	}
	if s.maxInputChars > 0 && utf8.RuneCountInString(input) > s.maxInputChars {
		return fmt.Errorf("content exceeds %d characters: %w", s.maxInputChars, appErr.ErrInvalid)
	}
	return nil
}
