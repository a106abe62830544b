package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAI-compatible chat completion vendors reached over plain HTTP.
const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultDeepSeekBaseURL   = "https://api.deepseek.com/v1"
	defaultPerplexityBaseURL = "https://api.perplexity.ai"
)

type chatCompatConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	Model       string `json:"model"`
	MaxTokens   int    `json:"max_tokens"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

type chatCompatProvider struct {
	name        string
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	jsonFormat  bool
	httpReferer string
	xTitle      string
	client      *http.Client
}

type chatCompatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatCompatMsg     `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens"`
	Stream         bool                `json:"stream"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatCompatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *chatCompatProvider) Name() string {
	return p.name
}

func (p *chatCompatProvider) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrMissingAPIKey)
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	reqBody := chatCompatRequest{
		Model:       resolveModel(opts, p.model),
		Messages:    []chatCompatMsg{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   resolveMaxTokens(opts, p.maxTokens),
		Stream:      false,
	}
	if opts.JSONMode && p.jsonFormat {
		reqBody.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if p.httpReferer != "" {
		req.Header.Set("HTTP-Referer", p.httpReferer)
	}
	if p.xTitle != "" {
		req.Header.Set("X-Title", p.xTitle)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s request failed: %s: %s", p.name, resp.Status, strings.TrimSpace(string(body)))
	}
	var out chatCompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func chatCompatFactory(name, baseURL, model string, jsonFormat bool) ProviderFactory {
	return func(args interface{}) (IProvider, error) {
		cfg := &chatCompatConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		p := &chatCompatProvider{
			name:        name,
			apiKey:      strings.TrimSpace(cfg.APIKey),
			baseURL:     strings.TrimSpace(cfg.BaseURL),
			model:       strings.TrimSpace(cfg.Model),
			maxTokens:   cfg.MaxTokens,
			jsonFormat:  jsonFormat,
			httpReferer: strings.TrimSpace(cfg.HTTPReferer),
			xTitle:      strings.TrimSpace(cfg.XTitle),
			client:      http.DefaultClient,
		}
		if p.baseURL == "" {
			p.baseURL = baseURL
		}
		if p.model == "" {
			p.model = model
		}
		return p, nil
	}
}

func init() {
	Register("openrouter", chatCompatFactory("openrouter", defaultOpenRouterBaseURL, "openai/gpt-4o", true))
	Register("deepseek", chatCompatFactory("deepseek", defaultDeepSeekBaseURL, "deepseek-chat", true))
	Register("perplexity", chatCompatFactory("perplexity", defaultPerplexityBaseURL, "sonar", false))
}
