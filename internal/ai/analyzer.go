package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/pkg/timeutil"
	"github.com/xxxsen/redline/internal/textstat"
)

const (
	TaskDevelopmentalEdit = "developmental-edit"
	TaskLineEdit          = "line-edit"
	TaskMetaphors         = "metaphors"
	TaskPacing            = "pacing"
	TaskPlotStructure     = "plot-structure"
	TaskCharacterVoice    = "character-voice"
	TaskWorldBuilding     = "world-building"
	TaskReadability       = "readability"
	TaskDialogue          = "dialogue"
	TaskClarity           = "clarity"
	TaskSentimentArc      = "sentiment-arc"
	TaskThemes            = "themes"
	TaskBrainstorm        = "brainstorm"
)

const (
	verificationTemperature = 0.2
	synthesisTemperature    = 0.2
)

type Params struct {
	Genre          string   `json:"genre"`
	TargetAudience string   `json:"targetAudience"`
	Instructions   string   `json:"instructions"`
	Characters     []string `json:"characters"`
}

// Responder is the part of the gateway the analyzer depends on.
type Responder interface {
	GetResponseInto(ctx context.Context, req Request, out interface{}) error
}

type taskSpec struct {
	name        string
	temperature float64
	build       func(content string, p Params) string
	newResult   func() interface{}
	check       func(p Params) error
	post        func(content string, out interface{})
}

var tasks = map[string]taskSpec{}

func registerTask(spec taskSpec) {
	tasks[spec.name] = spec
}

func init() {
	registerTask(taskSpec{name: TaskDevelopmentalEdit, temperature: 0.4, build: developmentalEditPrompt, newResult: func() interface{} { return &EditResult{} }})
	registerTask(taskSpec{name: TaskLineEdit, temperature: 0.2, build: lineEditPrompt, newResult: func() interface{} { return &EditResult{} }})
	registerTask(taskSpec{name: TaskMetaphors, temperature: 0.4, build: metaphorsPrompt, newResult: func() interface{} { return &MetaphorAnalysis{} }})
	registerTask(taskSpec{name: TaskPacing, temperature: 0.3, build: pacingPrompt, newResult: func() interface{} { return &PacingAnalysis{} }})
	registerTask(taskSpec{name: TaskPlotStructure, temperature: 0.3, build: plotStructurePrompt, newResult: func() interface{} { return &PlotStructureAnalysis{} }})
	registerTask(taskSpec{
		name:        TaskCharacterVoice,
		temperature: 0.4,
		build:       characterVoicePrompt,
		newResult:   func() interface{} { return &CharacterVoiceAnalysis{} },
		check: func(p Params) error {
			return validation.ValidateStruct(&p,
				validation.Field(&p.Characters, validation.Required, validation.Each(validation.Required)),
			)
		},
	})
	registerTask(taskSpec{name: TaskWorldBuilding, temperature: 0.4, build: worldBuildingPrompt, newResult: func() interface{} { return &WorldBuildingAnalysis{} }})
	registerTask(taskSpec{
		name:        TaskReadability,
		temperature: 0.1,
		build:       readabilityPrompt,
		newResult:   func() interface{} { return &ReadabilityAnalysis{} },
		post: func(content string, out interface{}) {
			if r, ok := out.(*ReadabilityAnalysis); ok {
				m := textstat.Analyze(content)
				r.Metrics = &m
			}
		},
	})
	registerTask(taskSpec{name: TaskDialogue, temperature: 0.4, build: dialoguePrompt, newResult: func() interface{} { return &DialogueAnalysis{} }})
	registerTask(taskSpec{name: TaskClarity, temperature: 0.2, build: clarityPrompt, newResult: func() interface{} { return &ClarityAnalysis{} }})
	registerTask(taskSpec{name: TaskSentimentArc, temperature: 0.3, build: sentimentArcPrompt, newResult: func() interface{} { return &SentimentArcAnalysis{} }})
	registerTask(taskSpec{name: TaskThemes, temperature: 0.5, build: themesPrompt, newResult: func() interface{} { return &ThemeAnalysis{} }})
	registerTask(taskSpec{
		name:        TaskBrainstorm,
		temperature: 0.8,
		build:       brainstormPrompt,
		newResult:   func() interface{} { return &BrainstormResult{} },
		check: func(p Params) error {
			return validation.ValidateStruct(&p,
				validation.Field(&p.Instructions, validation.Required),
			)
		},
	})
}

type TaskInfo struct {
	Name            string  `json:"name"`
	Temperature     float64 `json:"temperature"`
	OptimalProvider string  `json:"optimalProvider"`
}

func Tasks() []TaskInfo {
	out := make([]TaskInfo, 0, len(tasks))
	for _, spec := range tasks {
		out = append(out, TaskInfo{
			Name:            spec.name,
			Temperature:     spec.temperature,
			OptimalProvider: GetOptimalProvider(spec.name),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func lookupTask(name string) (taskSpec, error) {
	spec, ok := tasks[normalizeName(name)]
	if !ok {
		return taskSpec{}, fmt.Errorf("unknown analysis task %q: %w", name, appErr.ErrInvalid)
	}
	return spec, nil
}

// ValidateTask checks the task name and its required parameters.
func ValidateTask(name string, p Params) error {
	spec, err := lookupTask(name)
	if err != nil {
		return err
	}
	if spec.check != nil {
		return spec.check(p)
	}
	return nil
}

type Analyzer struct {
	gw                Responder
	synthesisProvider string
	now               func() time.Time
}

type AnalyzerOption func(*Analyzer)

func WithSynthesisProvider(name string) AnalyzerOption {
	return func(a *Analyzer) {
		if n := normalizeName(name); n != "" {
			a.synthesisProvider = n
		}
	}
}

func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAnalyzer(gw Responder, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		gw:                gw,
		synthesisProvider: DefaultProvider,
		now:               timeutil.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) SynthesisProvider() string {
	return a.synthesisProvider
}

// Run executes one analysis task and returns a pointer to its typed result.
func (a *Analyzer) Run(ctx context.Context, task string, content string, params Params, provider string) (interface{}, error) {
	spec, err := lookupTask(task)
	if err != nil {
		return nil, err
	}
	if spec.check != nil {
		if err := spec.check(params); err != nil {
			return nil, err
		}
	}
	return a.run(ctx, spec, content, params, provider, false)
}

func (a *Analyzer) run(ctx context.Context, spec taskSpec, content string, params Params, provider string, disableFallback bool) (interface{}, error) {
	out := spec.newResult()
	err := a.gw.GetResponseInto(ctx, Request{
		Prompt:          spec.build(content, params),
		Provider:        provider,
		Temperature:     spec.temperature,
		JSONMode:        true,
		DisableFallback: disableFallback,
	}, out)
	if err != nil {
		return nil, err
	}
	if spec.post != nil {
		spec.post(content, out)
	}
	return out, nil
}

func (a *Analyzer) DevelopmentalEdit(ctx context.Context, content string, params Params, provider string) (*EditResult, error) {
	return a.edit(ctx, TaskDevelopmentalEdit, content, params, provider)
}

func (a *Analyzer) LineEdit(ctx context.Context, content string, params Params, provider string) (*EditResult, error) {
	return a.edit(ctx, TaskLineEdit, content, params, provider)
}

func (a *Analyzer) edit(ctx context.Context, task string, content string, params Params, provider string) (*EditResult, error) {
	out, err := a.Run(ctx, task, content, params, provider)
	if err != nil {
		return nil, err
	}
	return out.(*EditResult), nil
}

// Verify asks verifier to critique and correct a prior result of task.
func (a *Analyzer) Verify(ctx context.Context, task string, content string, prior json.RawMessage, primary string, verifier string) (*VerifiedResult, error) {
	spec, err := lookupTask(task)
	if err != nil {
		return nil, err
	}
	if normalizeName(verifier) == "" {
		return nil, fmt.Errorf("verification provider is required: %w", appErr.ErrInvalid)
	}
	check := &wrappedReply{Result: prior, target: spec.newResult()}
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("prior %w: %w", err, appErr.ErrInvalid)
	}
	reply := &wrappedReply{target: spec.newResult()}
	err = a.gw.GetResponseInto(ctx, Request{
		Prompt:      verificationPrompt(spec.name, content, string(prior)),
		Provider:    verifier,
		Temperature: verificationTemperature,
		JSONMode:    true,
	}, reply)
	if err != nil {
		return nil, err
	}
	if spec.post != nil {
		spec.post(content, reply.target)
	}
	return &VerifiedResult{
		Result: reply.target,
		Verification: Verification{
			PrimaryProvider:      normalizeName(primary),
			VerificationProvider: normalizeName(verifier),
			VerifiedAt:           a.now(),
			Notes:                reply.Notes,
		},
	}, nil
}

// Consensus runs task on every provider. Failures are tolerated while at
// least one provider succeeds; two or more results are reconciled by one
// extra call to the synthesis provider.
func (a *Analyzer) Consensus(ctx context.Context, task string, content string, params Params, providers []string) (*ConsensusResult, error) {
	spec, err := lookupTask(task)
	if err != nil {
		return nil, err
	}
	if spec.check != nil {
		if err := spec.check(params); err != nil {
			return nil, err
		}
	}
	names := dedupeProviders(providers)
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one provider is required: %w", appErr.ErrInvalid)
	}

	results := make([]interface{}, len(names))
	errs := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i], errs[i] = a.run(ctx, spec, content, params, name, true)
			return nil
		})
	}
	_ = g.Wait()

	res := &ConsensusResult{Providers: []string{}, Failed: []ProviderFailure{}}
	survivors := map[string]string{}
	var failures []*ProviderError
	var first interface{}
	for i, name := range names {
		if errs[i] != nil {
			var perr *ProviderError
			if !errors.As(errs[i], &perr) {
				perr = &ProviderError{Provider: name, Attempted: []string{name}, Err: errs[i]}
			}
			failures = append(failures, perr)
			res.Failed = append(res.Failed, ProviderFailure{Provider: name, Error: errs[i].Error()})
			continue
		}
		raw, err := json.Marshal(results[i])
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		if first == nil {
			first = results[i]
		}
		survivors[name] = string(raw)
		res.Providers = append(res.Providers, name)
	}
	logutil.GetLogger(ctx).Info("consensus members finished",
		zap.String("task", spec.name),
		zap.Int("succeeded", len(res.Providers)),
		zap.Int("failed", len(failures)),
	)
	switch len(res.Providers) {
	case 0:
		return nil, &AggregateProviderError{Errors: failures}
	case 1:
		res.Result = first
		return res, nil
	}

	reply := &wrappedReply{target: spec.newResult()}
	err = a.gw.GetResponseInto(ctx, Request{
		Prompt:      synthesisPrompt(spec.name, content, survivors, res.Providers),
		Provider:    a.synthesisProvider,
		Temperature: synthesisTemperature,
		JSONMode:    true,
	}, reply)
	if err != nil {
		return nil, err
	}
	if spec.post != nil {
		spec.post(content, reply.target)
	}
	res.Result = reply.target
	res.SynthesisProvider = a.synthesisProvider
	return res, nil
}

func dedupeProviders(providers []string) []string {
	seen := make(map[string]bool, len(providers))
	out := make([]string, 0, len(providers))
	for _, p := range providers {
		name := normalizeName(p)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
