package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/xxxsen/redline/internal/model"
	"github.com/xxxsen/redline/internal/textstat"
)

// ProposedChange is one line-level change suggested by an edit task.
type ProposedChange struct {
	Type            string  `json:"type"`
	LineNumber      int     `json:"lineNumber"`
	Content         string  `json:"content"`
	OriginalContent *string `json:"originalContent,omitempty"`
}

func (c ProposedChange) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In(
			string(model.ChangeTypeAddition), string(model.ChangeTypeDeletion), string(model.ChangeTypeModification),
		)),
		validation.Field(&c.LineNumber, validation.Required, validation.Min(1)),
	)
}

func (c ProposedChange) Snapshot() model.ChangeSnapshot {
	return model.ChangeSnapshot{
		Type:            model.ChangeType(c.Type),
		LineNumber:      c.LineNumber,
		Content:         c.Content,
		OriginalContent: c.OriginalContent,
	}
}

type EditResult struct {
	EditedContent string           `json:"editedContent"`
	Changes       []ProposedChange `json:"changes"`
	Summary       string           `json:"summary"`
}

func (r EditResult) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EditedContent, validation.Required),
		validation.Field(&r.Changes),
	)
}

type Metaphor struct {
	Text          string `json:"text"`
	Type          string `json:"type"`
	Meaning       string `json:"meaning"`
	Effectiveness string `json:"effectiveness"`
	Suggestion    string `json:"suggestion,omitempty"`
}

type MetaphorAnalysis struct {
	Metaphors []Metaphor `json:"metaphors"`
	Summary   string     `json:"summary"`
}

func (r MetaphorAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Metaphors, validation.NotNil),
	)
}

type PacingSection struct {
	Excerpt string `json:"excerpt"`
	Pace    string `json:"pace"`
	Note    string `json:"note"`
}

type PacingAnalysis struct {
	OverallPace string          `json:"overallPace"`
	Sections    []PacingSection `json:"sections"`
	Suggestions []string        `json:"suggestions"`
	Summary     string          `json:"summary"`
}

func (r PacingAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OverallPace, validation.Required),
		validation.Field(&r.Sections, validation.NotNil),
	)
}

type PlotBeat struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    string `json:"position"`
}

type PlotStructureAnalysis struct {
	Structure  string     `json:"structure"`
	Beats      []PlotBeat `json:"beats"`
	Strengths  []string   `json:"strengths"`
	Weaknesses []string   `json:"weaknesses"`
	Summary    string     `json:"summary"`
}

func (r PlotStructureAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Structure, validation.Required),
		validation.Field(&r.Beats, validation.NotNil),
	)
}

type CharacterVoice struct {
	Name        string   `json:"name"`
	VoiceTraits []string `json:"voiceTraits"`
	Consistency string   `json:"consistency"`
	Examples    []string `json:"examples"`
	Suggestions []string `json:"suggestions"`
}

type CharacterVoiceAnalysis struct {
	Characters []CharacterVoice `json:"characters"`
	Summary    string           `json:"summary"`
}

func (r CharacterVoiceAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Characters, validation.NotNil),
	)
}

type WorldElement struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Consistency string `json:"consistency"`
}

type WorldBuildingAnalysis struct {
	Elements        []WorldElement `json:"elements"`
	Inconsistencies []string       `json:"inconsistencies"`
	Suggestions     []string       `json:"suggestions"`
	Summary         string         `json:"summary"`
}

func (r WorldBuildingAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Elements, validation.NotNil),
	)
}

type ReadabilityIssue struct {
	Excerpt    string `json:"excerpt"`
	Problem    string `json:"problem"`
	Suggestion string `json:"suggestion"`
}

type ReadabilityAnalysis struct {
	Level       string             `json:"level"`
	Audience    string             `json:"audience"`
	Issues      []ReadabilityIssue `json:"issues"`
	Suggestions []string           `json:"suggestions"`
	Summary     string             `json:"summary"`
	Metrics     *textstat.Metrics  `json:"metrics,omitempty"`
}

func (r ReadabilityAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Level, validation.Required),
		validation.Field(&r.Issues, validation.NotNil),
	)
}

type DialogueNote struct {
	Excerpt    string `json:"excerpt"`
	Speaker    string `json:"speaker"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

type DialogueAnalysis struct {
	Notes     []DialogueNote `json:"notes"`
	Strengths []string       `json:"strengths"`
	Summary   string         `json:"summary"`
}

func (r DialogueAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notes, validation.NotNil),
	)
}

type ClarityIssue struct {
	LineNumber int    `json:"lineNumber"`
	Excerpt    string `json:"excerpt"`
	Problem    string `json:"problem"`
	Suggestion string `json:"suggestion"`
}

type ClarityAnalysis struct {
	Score   int            `json:"score"`
	Issues  []ClarityIssue `json:"issues"`
	Summary string         `json:"summary"`
}

func (r ClarityAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Score, validation.Min(0), validation.Max(100)),
		validation.Field(&r.Issues, validation.NotNil),
	)
}

type SentimentPoint struct {
	Position  int     `json:"position"`
	Sentiment float64 `json:"sentiment"`
	Label     string  `json:"label"`
	Excerpt   string  `json:"excerpt"`
}

func (p SentimentPoint) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Position, validation.Min(0), validation.Max(100)),
		validation.Field(&p.Sentiment, validation.Min(-1.0), validation.Max(1.0)),
	)
}

type SentimentArcAnalysis struct {
	Overall string           `json:"overall"`
	Points  []SentimentPoint `json:"points"`
	Summary string           `json:"summary"`
}

func (r SentimentArcAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Points, validation.NotNil),
	)
}

type Theme struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
	Strength    string   `json:"strength"`
}

type ThemeAnalysis struct {
	Themes  []Theme `json:"themes"`
	Summary string  `json:"summary"`
}

func (r ThemeAnalysis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Themes, validation.NotNil),
	)
}

type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (i Idea) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Title, validation.Required),
	)
}

type BrainstormResult struct {
	Ideas   []Idea `json:"ideas"`
	Summary string `json:"summary"`
}

func (r BrainstormResult) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Ideas, validation.Required),
	)
}

type Verification struct {
	PrimaryProvider      string    `json:"primaryProvider"`
	VerificationProvider string    `json:"verificationProvider"`
	VerifiedAt           time.Time `json:"verifiedAt"`
	Notes                string    `json:"notes"`
}

type VerifiedResult struct {
	Result       interface{}  `json:"result"`
	Verification Verification `json:"verification"`
}

type ProviderFailure struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

type ConsensusResult struct {
	Result            interface{}       `json:"result"`
	Providers         []string          `json:"providers"`
	Failed            []ProviderFailure `json:"failed"`
	SynthesisProvider string            `json:"synthesisProvider,omitempty"`
}

// wrappedReply is the envelope returned by verification and synthesis
// prompts; Result must decode into target and pass its rules.
type wrappedReply struct {
	Result json.RawMessage `json:"result"`
	Notes  string          `json:"notes"`
	target interface{}
}

func (r *wrappedReply) Validate() error {
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return errors.New("result: cannot be blank")
	}
	if err := json.Unmarshal(r.Result, r.target); err != nil {
		return fmt.Errorf("result: %w", err)
	}
	if v, ok := r.target.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("result: %w", err)
		}
	}
	return nil
}
