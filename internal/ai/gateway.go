package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultAttemptTimeout = 120 * time.Second

type Request struct {
	Prompt      string
	Provider    string
	Temperature float64
	JSONMode    bool
	// DisableFallback limits the call to the requested provider.
	DisableFallback bool
}

type Gateway struct {
	providers       map[string]IProvider
	defaultProvider string
	fallback        string
	timeout         time.Duration
	maxTokens       int
	cache           ResponseCache
}

type GatewayOption func(*Gateway)

func WithDefaultProvider(name string) GatewayOption {
	return func(g *Gateway) {
		if n := normalizeName(name); n != "" {
			g.defaultProvider = n
		}
	}
}

// WithFallback sets the alternate provider tried once when the requested one fails.
func WithFallback(name string) GatewayOption {
	return func(g *Gateway) {
		g.fallback = normalizeName(name)
	}
}

func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

func WithMaxTokens(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

func WithCache(cache ResponseCache) GatewayOption {
	return func(g *Gateway) {
		g.cache = cache
	}
}

func NewGateway(providers []IProvider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers:       make(map[string]IProvider, len(providers)),
		defaultProvider: DefaultProvider,
		timeout:         defaultAttemptTimeout,
		maxTokens:       DefaultMaxTokens,
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		g.providers[normalizeName(p.Name())] = p
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Gateway) HasProvider(name string) bool {
	_, ok := g.providers[normalizeName(name)]
	return ok
}

func (g *Gateway) DefaultProvider() string {
	return g.defaultProvider
}

func (g *Gateway) Fallback() string {
	return g.fallback
}

// GetResponse sends prompt to provider and returns the reply parsed as JSON.
func (g *Gateway) GetResponse(ctx context.Context, prompt string, provider string, temperature float64, jsonMode bool) (json.RawMessage, error) {
	return g.Execute(ctx, Request{
		Prompt:      prompt,
		Provider:    provider,
		Temperature: temperature,
		JSONMode:    jsonMode,
	})
}

func (g *Gateway) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	return g.run(ctx, req, nil)
}

// GetResponseInto decodes the reply into out and validates it. A reply that
// does not fit out counts as a provider failure and may trigger the fallback.
func (g *Gateway) GetResponseInto(ctx context.Context, req Request, out interface{}) error {
	if out == nil {
		return fmt.Errorf("nil response target")
	}
	_, err := g.run(ctx, req, out)
	return err
}

func (g *Gateway) run(ctx context.Context, req Request, out interface{}) (json.RawMessage, error) {
	provider := normalizeName(req.Provider)
	if provider == "" {
		provider = g.defaultProvider
	}
	attempted := []string{provider}
	raw, err := g.attempt(ctx, provider, req, out)
	if err == nil {
		return raw, nil
	}
	logutil.GetLogger(ctx).Warn("ai provider failed", zap.String("provider", provider), zap.Error(err))
	if !req.DisableFallback && g.fallback != "" && g.fallback != provider {
		provider = g.fallback
		attempted = append(attempted, provider)
		raw, err = g.attempt(ctx, provider, req, out)
		if err == nil {
			return raw, nil
		}
		logutil.GetLogger(ctx).Warn("ai fallback provider failed", zap.String("provider", provider), zap.Error(err))
	}
	return nil, &ProviderError{Provider: provider, Attempted: attempted, Err: err}
}

func (g *Gateway) attempt(ctx context.Context, name string, req Request, out interface{}) (json.RawMessage, error) {
	p, ok := g.providers[name]
	if !ok {
		if isRegistered(name) {
			return nil, fmt.Errorf("%s: %w", name, ErrMissingAPIKey)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	key := ""
	if g.cache != nil {
		key = CacheKey(name, req.Temperature, req.JSONMode, req.Prompt)
		if raw, ok := g.cache.Get(ctx, key); ok {
			if out == nil || decodeInto(name, raw, out) == nil {
				return raw, nil
			}
		}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	text, err := p.Complete(ctx, req.Prompt, CompleteOptions{
		Temperature: req.Temperature,
		MaxTokens:   g.maxTokens,
		JSONMode:    req.JSONMode,
	})
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("ai provider responded",
		zap.String("provider", name),
		zap.Duration("cost", time.Since(start)),
		zap.Int("size", len(text)),
	)
	raw, err := ParseJSON(name, text)
	if err == nil && out != nil {
		err = decodeInto(name, raw, out)
	}
	if err != nil {
		var perr *ResponseParseError
		if errors.As(err, &perr) {
			logutil.GetLogger(ctx).Error("ai response parse failed",
				zap.String("provider", name),
				zap.String("raw", perr.Raw),
				zap.Error(perr.Err),
			)
		}
		return nil, err
	}
	if g.cache != nil {
		g.cache.Set(ctx, key, raw)
	}
	return raw, nil
}
