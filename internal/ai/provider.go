package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const DefaultMaxTokens = 4096

var (
	// ErrMissingAPIKey is returned before any network call when a vendor has no key.
	ErrMissingAPIKey   = errors.New("ai provider api key not configured")
	ErrUnknownProvider = errors.New("unknown ai provider")
)

type CompleteOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// IProvider sends a single user turn to one LLM vendor and returns the raw text reply.
type IProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func Register(name string, factory ProviderFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func isRegistered(name string) bool {
	_, ok := registry[normalizeName(name)]
	return ok
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return factory(args)
}

// SupportedProviders lists the vendor names that have a registered factory.
func SupportedProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}

func resolveMaxTokens(opts CompleteOptions, fallback int) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMaxTokens
}

func resolveModel(opts CompleteOptions, fallback string) string {
	if m := strings.TrimSpace(opts.Model); m != "" {
		return m
	}
	return fallback
}
