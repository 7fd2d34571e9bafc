// Package export writes documents out as Markdown files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/util"
)

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// containsHTML checks if a string appears to contain HTML markup.
func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Markdown renders a document as Markdown: an H1 title followed by the
// body. HTML content is converted; plain text passes through unchanged.
func Markdown(doc domain.Document) string {
	var b strings.Builder
	title := strings.TrimSpace(doc.Title)
	if title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}

	body := doc.Content
	if containsHTML(body) {
		if converted, err := htmltomarkdown.ConvertString(body); err == nil {
			body = converted
		}
	}
	body = strings.TrimSpace(body)
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}

	return b.String()
}

// Filename returns the slugged Markdown filename for a document,
// falling back to the document ID when the title slugs to nothing.
func Filename(doc domain.Document) string {
	slug := util.Slugify(doc.Title)
	if slug == "" {
		slug = doc.ID
	}
	return slug + ".md"
}

// WriteFile renders a document and writes it under dir, creating the
// directory if needed. Returns the path of the written file.
func WriteFile(dir string, doc domain.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(doc))
	if err := os.WriteFile(path, []byte(Markdown(doc)), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	return path, nil
}
