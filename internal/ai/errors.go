package ai

import (
	"fmt"
	"strings"
)

// ProviderError is returned by the gateway once every attempted provider failed.
// Provider names the last provider tried.
type ProviderError struct {
	Provider  string
	Attempted []string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider %s failed (attempted: %s): %v", e.Provider, strings.Join(e.Attempted, ","), e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ResponseParseError means the vendor reply was not valid JSON after fence
// stripping, or did not match the expected result shape.
type ResponseParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Provider, e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// AggregateProviderError is returned by multi-provider operations when no
// provider succeeded.
type AggregateProviderError struct {
	Errors []*ProviderError
}

func (e *AggregateProviderError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("all %d ai providers failed: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *AggregateProviderError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		errs = append(errs, err)
	}
	return errs
}
