package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerShape struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

func TestSmartParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"strict", `{"answer": "Revenue rose.", "citations": ["Item 7"]}`},
		{"trailing comma", `{"answer": "Revenue rose.", "citations": ["Item 7",],}`},
		{"single quotes", `{'answer': 'Revenue rose.', 'citations': ['Item 7']}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got answerShape
			_, err := SmartParse(tt.input, &got)
			require.NoError(t, err)
			assert.Equal(t, "Revenue rose.", got.Answer)
			assert.Equal(t, []string{"Item 7"}, got.Citations)
		})
	}
}

func TestSmartParse_Unparseable(t *testing.T) {
	var got answerShape
	// valid JSON in every dialect, but answer must be a string
	_, err := SmartParse(`{"answer": ["Item 7"]}`, &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseable)
	assert.ErrorContains(t, err, "hjson")
}

func TestParseHJSON(t *testing.T) {
	out, err := ParseHJSON("{\n  answer: plain words\n  citations: [\"Note 3\"]\n}")
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"plain words","citations":["Note 3"]}`, out)
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```markdown\n# Title\n```", "# Title"},
		{"```\nbody\n```", "body"},
		{"  no fences  ", "no fences"},
		{"``````", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanMarkdown(tt.in))
	}
}

func TestRenderMarkdownHTML(t *testing.T) {
	out, err := RenderMarkdownHTML("Revenue **grew** 12%.\n\n- Data center\n- Gaming")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>grew</strong>")
	assert.Contains(t, out, "<li>Data center</li>")
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n[1, 2]\n```", "[1, 2]"},
		{"```{\"a\": 1}```", `{"a": 1}`},
		{`{"a": 1}`, `{"a": 1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFence(tt.in))
	}
}
