package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
)

func doc(title, content string) domain.Document {
	d := domain.Document{Title: title, Content: content}
	d.ID = "doc_test123"
	return d
}

func TestMarkdownConvertsHTML(t *testing.T) {
	md := Markdown(doc("Chapter One", "<p>hello <strong>world</strong></p>"))

	assert.True(t, strings.HasPrefix(md, "# Chapter One\n\n"))
	assert.Contains(t, md, "**world**")
	assert.NotContains(t, md, "<p>")
}

func TestMarkdownPlainTextPassesThrough(t *testing.T) {
	md := Markdown(doc("Notes", "just some plain text"))

	assert.Equal(t, "# Notes\n\njust some plain text\n", md)
}

func TestMarkdownEmptyDocument(t *testing.T) {
	assert.Equal(t, "", Markdown(doc("", "")))
	assert.Equal(t, "# Only Title\n\n", Markdown(doc("Only Title", "")))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "cafe-journal.md", Filename(doc("Café Journal", "")))
	assert.Equal(t, "doc_test123.md", Filename(doc("!!!", "")))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := WriteFile(dir, doc("My Draft", "<p>hello world</p>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "my-draft.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# My Draft\n\nhello world\n", string(data))
}
