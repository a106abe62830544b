package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultOpenAIModel = "gpt-4o"

type openAIConfig struct {
	APIKey    string `json:"api_key"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type openAIProvider struct {
	apiKey    string
	model     string
	maxTokens int
	opts      []option.RequestOption
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	client := openai.NewClient(p.opts...)
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(resolveModel(opts, p.model)),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature:         openai.Float(opts.Temperature),
		MaxCompletionTokens: openai.Int(int64(resolveMaxTokens(opts, p.maxTokens))),
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIProvider{
		apiKey:    apiKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
		opts:      opts,
	}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
}
