package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type fakeProvider struct {
	name  string
	reply func(prompt string, opts CompleteOptions) (string, error)

	mu      sync.Mutex
	prompts []string
	opts    []CompleteOptions
}

func newFake(name string, reply func(prompt string, opts CompleteOptions) (string, error)) *fakeProvider {
	return &fakeProvider{name: name, reply: reply}
}

func replyWith(text string) func(string, CompleteOptions) (string, error) {
	return func(string, CompleteOptions) (string, error) { return text, nil }
}

func failWith(msg string) func(string, CompleteOptions) (string, error) {
	return func(string, CompleteOptions) (string, error) { return "", errors.New(msg) }
}

// replyByPrompt answers synthesis prompts with synth and everything else with base.
func replyByPrompt(base string, synth string) func(string, CompleteOptions) (string, error) {
	return func(prompt string, _ CompleteOptions) (string, error) {
		if strings.Contains(prompt, "ANALYSES:") {
			return synth, nil
		}
		return base, nil
	}
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.reply(prompt, opts)
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeProvider) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
