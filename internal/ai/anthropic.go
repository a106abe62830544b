package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

type anthropicConfig struct {
	APIKey    string `json:"api_key"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type anthropicProvider struct {
	apiKey    string
	model     string
	maxTokens int
	opts      []option.RequestOption
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

// Complete has no native json mode; JSON output relies on the prompt and
// fence stripping in the gateway.
func (p *anthropicProvider) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	client := anthropic.NewClient(p.opts...)
	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(resolveModel(opts, p.model)),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		MaxTokens:   int64(resolveMaxTokens(opts, p.maxTokens)),
		Temperature: anthropic.Float(opts.Temperature),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic response has no text content")
	}
	return text, nil
}

func createAnthropicFactory(args interface{}) (IProvider, error) {
	cfg := &anthropicConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &anthropicProvider{
		apiKey:    apiKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
		opts:      opts,
	}, nil
}

func init() {
	Register("anthropic", createAnthropicFactory)
}
