// Package search runs stateless substring queries over cache snapshots.
//
// No index is built or persisted: every query walks the current book and
// document snapshots, matching case-insensitively and producing highlight
// spans plus a bounded snippet around the first content match. Matching
// documents search tag-stripped content, so markup never matches.
package search

import (
	"strings"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/words"
)

const (
	// snippetContext is how many characters of stripped content precede the
	// first match in a snippet.
	snippetContext = 50
	// snippetLength bounds the snippet.
	snippetLength = 150
)

// Span marks a matched substring as [Start, End) offsets into the field it
// annotates.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// BookHit is one matching book with highlight spans for rendering.
type BookHit struct {
	Book             domain.Book `json:"book"`
	TitleSpans       []Span      `json:"title_spans,omitempty"`
	DescriptionSpans []Span      `json:"description_spans,omitempty"`
}

// DocumentHit is one matching document. Snippet is a window of the
// tag-stripped content around the first match, with leading/trailing
// ellipses when truncated. SnippetSpans index into Snippet.
type DocumentHit struct {
	Document     domain.Document `json:"document"`
	TitleSpans   []Span          `json:"title_spans,omitempty"`
	Snippet      string          `json:"snippet,omitempty"`
	SnippetSpans []Span          `json:"snippet_spans,omitempty"`
}

// Result is everything one query matched.
type Result struct {
	Query     string        `json:"query"`
	Books     []BookHit     `json:"books"`
	Documents []DocumentHit `json:"documents"`
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Books) == 0 && len(r.Documents) == 0
}

// Query matches query against the given snapshots. A book matches when the
// query is a substring of its title or description; a document when it is a
// substring of its title or tag-stripped content. An empty (or all-space)
// query matches nothing. Snapshot order is preserved in the results.
func Query(query string, books []domain.Book, documents []domain.Document) Result {
	result := Result{Query: query}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return result
	}

	for _, book := range books {
		titleSpans := findSpans(book.Title, q)
		descSpans := findSpans(book.Description, q)
		if len(titleSpans) == 0 && len(descSpans) == 0 {
			continue
		}
		result.Books = append(result.Books, BookHit{
			Book:             book,
			TitleSpans:       titleSpans,
			DescriptionSpans: descSpans,
		})
	}

	for _, doc := range documents {
		stripped := words.Strip(doc.Content)
		titleSpans := findSpans(doc.Title, q)
		contentIdx := indexFold(stripped, q)
		if len(titleSpans) == 0 && contentIdx < 0 {
			continue
		}

		hit := DocumentHit{Document: doc, TitleSpans: titleSpans}
		hit.Snippet = snippet(stripped, contentIdx)
		hit.SnippetSpans = findSpans(hit.Snippet, q)
		result.Documents = append(result.Documents, hit)
	}

	return result
}

// findSpans returns every occurrence of q (already lowercased) in text.
func findSpans(text, q string) []Span {
	lower := strings.ToLower(text)
	var spans []Span
	for from := 0; ; {
		idx := strings.Index(lower[from:], q)
		if idx < 0 {
			return spans
		}
		start := from + idx
		spans = append(spans, Span{Start: start, End: start + len(q)})
		from = start + len(q)
	}
}

// indexFold returns the first case-insensitive occurrence of q in text.
func indexFold(text, q string) int {
	return strings.Index(strings.ToLower(text), q)
}

// snippet cuts a window of stripped content around the match at idx. When the
// query only matched the title (idx < 0) it falls back to a leading snippet.
func snippet(stripped string, idx int) string {
	if stripped == "" {
		return ""
	}

	start := 0
	if idx > snippetContext {
		start = idx - snippetContext
	}
	if idx < 0 {
		start = 0
	}

	end := min(start+snippetLength, len(stripped))
	out := stripped[start:end]

	if start > 0 {
		out = "..." + out
	}
	if end < len(stripped) {
		out += "..."
	}
	return out
}
