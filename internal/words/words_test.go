package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "no markup at all",
			expected: "no markup at all",
		},
		{
			name:     "paragraph",
			input:    "<p>hello world</p>",
			expected: "hello world",
		},
		{
			name:     "nested formatting",
			input:    "<p>some <b>bold</b> and <i>italic</i> text</p>",
			expected: "some bold and italic text",
		},
		{
			name:     "adjacent blocks concatenate without separator",
			input:    "<p>a</p><p>b</p>",
			expected: "ab",
		},
		{
			name:     "self-closing break",
			input:    "one<br/>two",
			expected: "onetwo",
		},
		{
			name:     "attributes are dropped",
			input:    `<a href="https://example.com">link text</a>`,
			expected: "link text",
		},
		{
			name:     "tags only",
			input:    "<div><br/></div>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strip(tt.input))
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty", input: "", expected: 0},
		{name: "whitespace only", input: "  \n\t ", expected: 0},
		{name: "single word", input: "hello", expected: 1},
		{name: "two words", input: "hello world", expected: 2},
		{name: "markup", input: "<p>hello world</p>", expected: 2},
		{name: "markup only", input: "<p></p><br/>", expected: 0},
		{name: "runs of whitespace collapse", input: "a   b\n\nc", expected: 3},
		{name: "formatting inside words", input: "<p>some <b>bold</b> words here</p>", expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Count(tt.input))
		})
	}
}

// Counting the stripped text again must give the same answer: stripping is
// idempotent, so the live editor display and the persisted value agree.
func TestCountIdempotentOnStrippedText(t *testing.T) {
	inputs := []string{
		"",
		"plain words only",
		"<p>hello world</p>",
		"<ul><li>one</li><li>two</li></ul>",
		"   padded   <b>input</b>  ",
	}

	for _, input := range inputs {
		stripped := Strip(input)
		assert.Equal(t, Strip(stripped), stripped, "strip should be idempotent for %q", input)
		assert.Equal(t, Count(input), Count(stripped), "count should match for %q", input)
	}
}
