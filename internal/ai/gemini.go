package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type geminiConfig struct {
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type geminiProvider struct {
	apiKey    string
	model     string
	maxTokens int
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(resolveMaxTokens(opts, p.maxTokens)),
	}
	if opts.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		resolveModel(opts, p.model),
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func createGeminiFactory(args interface{}) (IProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiProvider{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}
