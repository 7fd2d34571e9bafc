// Package words provides markup stripping and word counting for document
// content. Count is the single source of truth for a document's word_count:
// the editor display and the persisted value are both computed here, so they
// can never diverge.
package words

import (
	"strings"

	"golang.org/x/net/html"
)

// Strip removes all markup tags from content and returns the remaining text.
//
// Text nodes are concatenated without inserted separators, matching the
// behavior of a plain tag-strip: "<p>a</p><p>b</p>" becomes "ab". Plain text
// without markup passes through unchanged.
func Strip(content string) string {
	if content == "" {
		return ""
	}
	if !strings.ContainsRune(content, '<') {
		return content
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way we keep what we have.
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

// Count returns the number of words in content after stripping markup.
// Words are runs of non-whitespace; empty or whitespace-only input counts 0.
func Count(content string) int {
	return len(strings.Fields(Strip(content)))
}
