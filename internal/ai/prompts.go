package ai

import (
	"fmt"
	"strings"
)

const jsonOnly = "Respond with a single JSON object only. No markdown fences, no commentary."

func contextLines(p Params) string {
	var sb strings.Builder
	if p.Genre != "" {
		fmt.Fprintf(&sb, "Genre: %s\n", p.Genre)
	}
	if p.TargetAudience != "" {
		fmt.Fprintf(&sb, "Target audience: %s\n", p.TargetAudience)
	}
	if p.Instructions != "" {
		fmt.Fprintf(&sb, "Author instructions: %s\n", p.Instructions)
	}
	return sb.String()
}

const editShape = `{
  "editedContent": "the full revised text",
  "changes": [{"type": "addition|deletion|modification", "lineNumber": 1, "content": "new line text", "originalContent": "previous line text"}],
  "summary": "what was changed and why"
}`

func developmentalEditPrompt(content string, p Params) string {
	return fmt.Sprintf(`You are a developmental editor working on a manuscript.
Improve structure, pacing, character motivation and narrative clarity while keeping the author's voice.
%s
Line numbers are 1-based and refer to the edited text; originalContent is required for modification and deletion.
%s
Shape:
%s

MANUSCRIPT:
%s`, contextLines(p), jsonOnly, editShape, content)
}

func lineEditPrompt(content string, p Params) string {
	return fmt.Sprintf(`You are a line editor.
Tighten sentences, fix grammar, word choice and rhythm. Do not change plot or meaning. Keep line breaks where possible.
%s
Line numbers are 1-based and refer to the edited text; originalContent is required for modification and deletion.
%s
Shape:
%s

TEXT:
%s`, contextLines(p), jsonOnly, editShape, content)
}

func metaphorsPrompt(content string, p Params) string {
	return fmt.Sprintf(`Identify the metaphors, similes and other figurative language in the text below.
For each, explain its meaning, judge how well it works and suggest an improvement when it is weak or cliched.
%s
%s
Shape:
{"metaphors": [{"text": "", "type": "metaphor|simile|personification|other", "meaning": "", "effectiveness": "strong|adequate|weak", "suggestion": ""}], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func pacingPrompt(content string, p Params) string {
	return fmt.Sprintf(`Analyze the pacing of the text below. Break it into sections and rate the pace of each.
%s
%s
Shape:
{"overallPace": "slow|moderate|fast|uneven", "sections": [{"excerpt": "", "pace": "slow|moderate|fast", "note": ""}], "suggestions": [""], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func plotStructurePrompt(content string, p Params) string {
	return fmt.Sprintf(`Analyze the plot structure of the text below. Name the structure it follows and list its story beats in order.
%s
%s
Shape:
{"structure": "three-act|hero's journey|other", "beats": [{"name": "", "description": "", "position": "beginning|middle|end"}], "strengths": [""], "weaknesses": [""], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func characterVoicePrompt(content string, p Params) string {
	return fmt.Sprintf(`Analyze the voice of these characters: %s.
Describe each character's distinctive speech traits, judge how consistent the voice is and quote short examples.
%s
%s
Shape:
{"characters": [{"name": "", "voiceTraits": [""], "consistency": "consistent|mostly consistent|inconsistent", "examples": [""], "suggestions": [""]}], "summary": ""}

TEXT:
%s`, strings.Join(p.Characters, ", "), contextLines(p), jsonOnly, content)
}

func worldBuildingPrompt(content string, p Params) string {
	return fmt.Sprintf(`Analyze the world-building in the text below: setting, rules, cultures, history and technology or magic.
Point out inconsistencies between what the text establishes and what it later shows.
%s
%s
Shape:
{"elements": [{"category": "", "description": "", "consistency": "consistent|inconsistent|unclear"}], "inconsistencies": [""], "suggestions": [""], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func readabilityPrompt(content string, p Params) string {
	return fmt.Sprintf(`Assess the readability of the text below. Estimate its reading level and the audience it suits, and list passages that are hard to read.
%s
%s
Shape:
{"level": "e.g. grade 8", "audience": "", "issues": [{"excerpt": "", "problem": "", "suggestion": ""}], "suggestions": [""], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func dialoguePrompt(content string, p Params) string {
	return fmt.Sprintf(`Review the dialogue in the text below: naturalness, subtext, attribution and how well each line moves the scene.
%s
%s
Shape:
{"notes": [{"excerpt": "", "speaker": "", "issue": "", "suggestion": ""}], "strengths": [""], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func clarityPrompt(content string, p Params) string {
	return fmt.Sprintf(`Find passages in the text below that are ambiguous, confusing or overly complex.
Give the 1-based line number of each passage and score overall clarity from 0 to 100.
%s
%s
Shape:
{"score": 0, "issues": [{"lineNumber": 1, "excerpt": "", "problem": "", "suggestion": ""}], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func sentimentArcPrompt(content string, p Params) string {
	return fmt.Sprintf(`Trace the emotional arc of the text below. Sample points through the text; position is a percentage from 0 to 100, sentiment ranges from -1 (negative) to 1 (positive).
%s
%s
Shape:
{"overall": "", "points": [{"position": 0, "sentiment": 0.0, "label": "", "excerpt": ""}], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func themesPrompt(content string, p Params) string {
	return fmt.Sprintf(`Identify the major and minor themes of the text below with supporting evidence quoted from the text.
%s
%s
Shape:
{"themes": [{"name": "", "description": "", "evidence": [""], "strength": "major|minor"}], "summary": ""}

TEXT:
%s`, contextLines(p), jsonOnly, content)
}

func brainstormPrompt(content string, p Params) string {
	return fmt.Sprintf(`You are a creative writing partner. Using the text below as context, brainstorm fresh ideas for the request.
%s
%s
Shape:
{"ideas": [{"title": "", "description": ""}], "summary": ""}

CONTEXT:
%s`, contextLines(p), jsonOnly, content)
}

func verificationPrompt(task string, content string, prior string) string {
	return fmt.Sprintf(`Another model produced the %s analysis below for the given text.
Check it against the text: correct mistakes, remove unsupported claims and add anything important that was missed.
Keep exactly the same JSON shape for the result.
%s
Shape:
{"result": <the corrected analysis>, "notes": "what you changed and why"}

TEXT:
%s

ANALYSIS:
%s`, task, jsonOnly, content, prior)
}

func synthesisPrompt(task string, content string, results map[string]string, order []string) string {
	var sb strings.Builder
	for _, provider := range order {
		fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", provider, results[provider])
	}
	return fmt.Sprintf(`Several models produced independent %s analyses of the same text.
Reconcile them into one authoritative analysis: keep points they agree on, resolve disagreements using the text and drop unsupported claims.
Keep exactly the same JSON shape as the inputs for the result.
%s
Shape:
{"result": <the reconciled analysis>, "notes": "how disagreements were resolved"}

TEXT:
%s

ANALYSES:
%s`, task, jsonOnly, content, sb.String())
}
