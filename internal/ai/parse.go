package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StripFence removes a surrounding ```json or ``` markdown fence.
func StripFence(output string) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```JSON")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

func ParseJSON(provider string, output string) (json.RawMessage, error) {
	clean := StripFence(output)
	if clean == "" {
		return nil, &ResponseParseError{Provider: provider, Raw: output, Err: fmt.Errorf("empty response")}
	}
	if !json.Valid([]byte(clean)) {
		return nil, &ResponseParseError{Provider: provider, Raw: output, Err: fmt.Errorf("response is not valid json")}
	}
	return json.RawMessage(clean), nil
}

// decodeInto unmarshals raw into out and runs its validation rules when out
// implements validation.Validatable.
func decodeInto(provider string, raw json.RawMessage, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &ResponseParseError{Provider: provider, Raw: string(raw), Err: err}
	}
	if v, ok := out.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return &ResponseParseError{Provider: provider, Raw: string(raw), Err: fmt.Errorf("unexpected response shape: %w", err)}
		}
	}
	return nil
}
