package textstat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountSyllables(t *testing.T) {
	cases := map[string]int{
		"cat":       1,
		"the":       1,
		"make":      1,
		"table":     2,
		"reading":   2,
		"beautiful": 3,
		"rhythm":    1,
		"":          0,
	}
	for word, want := range cases {
		require.Equal(t, want, CountSyllables(word), word)
	}
}

func TestAnalyzeSimpleSentence(t *testing.T) {
	m := Analyze("The cat sat on the mat.")
	require.Equal(t, 6, m.Words)
	require.Equal(t, 1, m.Sentences)
	require.Equal(t, 1, m.Paragraphs)
	require.Equal(t, 6, m.Syllables)
	require.InDelta(t, 116.15, m.FleschReadingEase, 0.02)
	require.InDelta(t, -1.45, m.FleschKincaidGrade, 0.02)
}

func TestAnalyzeSkipsCode(t *testing.T) {
	content := "# Title\n\nHello world. Bye now!\n\n```go\nfunc main() {}\n```\n\n- first item\n- second item\n"
	m := Analyze(content)
	require.Equal(t, 4, m.Paragraphs)
	require.Equal(t, 9, m.Words)
	require.Equal(t, 5, m.Sentences)
}

func TestAnalyzeEmpty(t *testing.T) {
	m := Analyze("   \n\n")
	require.Zero(t, m.Words)
	require.Zero(t, m.FleschReadingEase)
}

func TestParagraphsPlainText(t *testing.T) {
	paras := Paragraphs("line one\nline two\n\nnext paragraph")
	require.Equal(t, []string{"line one line two", "next paragraph"}, paras)
}
