package textstat

import (
	"math"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Metrics struct {
	Words              int     `json:"words"`
	Sentences          int     `json:"sentences"`
	Paragraphs         int     `json:"paragraphs"`
	Syllables          int     `json:"syllables"`
	FleschReadingEase  float64 `json:"fleschReadingEase"`
	FleschKincaidGrade float64 `json:"fleschKincaidGrade"`
}

// Analyze computes readability metrics over the prose of a markdown or plain
// text document. Code blocks, html blocks and thematic breaks are ignored.
func Analyze(content string) Metrics {
	var m Metrics
	for _, para := range Paragraphs(content) {
		words := splitWords(para)
		if len(words) == 0 {
			continue
		}
		m.Paragraphs++
		m.Words += len(words)
		m.Sentences += countSentences(para)
		for _, w := range words {
			m.Syllables += CountSyllables(w)
		}
	}
	if m.Words == 0 || m.Sentences == 0 {
		return m
	}
	wps := float64(m.Words) / float64(m.Sentences)
	spw := float64(m.Syllables) / float64(m.Words)
	m.FleschReadingEase = round2(206.835 - 1.015*wps - 84.6*spw)
	m.FleschKincaidGrade = round2(0.39*wps + 11.8*spw - 15.59)
	return m
}

// Paragraphs returns the plain text of every top-level prose block.
func Paragraphs(content string) []string {
	source := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var out []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch node.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock, ast.KindThematicBreak:
			continue
		}
		if node.Kind() == ast.KindList {
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if txt := extractText(item, source); txt != "" {
					out = append(out, txt)
				}
			}
			continue
		}
		if txt := extractText(node, source); txt != "" {
			out = append(out, txt)
		}
	}
	return out
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			t := node.(*ast.Text)
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case ast.KindString:
			sb.Write(node.(*ast.String).Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func splitWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
	words := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			words = append(words, f)
		}
	}
	return words
}

func countSentences(s string) int {
	count := 0
	inTerminator := false
	for _, r := range s {
		if r == '.' || r == '!' || r == '?' {
			if !inTerminator {
				count++
			}
			inTerminator = true
			continue
		}
		if !unicode.IsSpace(r) && r != '"' && r != '\'' && r != ')' && r != '”' {
			inTerminator = false
		}
	}
	trimmed := strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == ')' || r == '”'
	})
	if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") && !strings.HasSuffix(trimmed, "?") {
		count++
	}
	return count
}

// CountSyllables estimates english syllables by counting vowel groups.
func CountSyllables(word string) int {
	w := strings.ToLower(strings.Trim(word, "'’"))
	if w == "" {
		return 0
	}
	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if count > 1 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
