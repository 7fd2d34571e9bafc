// Package domain contains the core business entities for the Quill document manager.
package domain

// ColorTheme is the accent color a book is rendered with.
type ColorTheme string

// The closed set of book color themes.
const (
	ThemePurple ColorTheme = "purple"
	ThemeBlue   ColorTheme = "blue"
	ThemeGreen  ColorTheme = "green"
	ThemeOrange ColorTheme = "orange"
	ThemePink   ColorTheme = "pink"
	ThemeTeal   ColorTheme = "teal"
)

// DefaultColorTheme is used when a book carries no theme or an unrecognized one.
const DefaultColorTheme = ThemePurple

// NormalizeColorTheme maps an arbitrary theme value onto the closed set,
// falling back to the default for anything unrecognized (including empty).
func NormalizeColorTheme(t ColorTheme) ColorTheme {
	switch t {
	case ThemePurple, ThemeBlue, ThemeGreen, ThemeOrange, ThemePink, ThemeTeal:
		return t
	default:
		return DefaultColorTheme
	}
}

// Book is a user-owned collection of documents.
type Book struct {
	Syncable
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ColorTheme  ColorTheme `json:"color_theme"`
	OwnerID     string     `json:"owner_id"`
}

// BookDraft carries the caller-supplied fields of a new book.
// The store assigns ID, owner, and timestamps.
type BookDraft struct {
	Title       string     `json:"title" validate:"required,notblank"`
	Description string     `json:"description"`
	ColorTheme  ColorTheme `json:"color_theme"`
}

// BookPatch is a partial update to a book. Nil fields are left untouched.
type BookPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	ColorTheme  *ColorTheme `json:"color_theme,omitempty"`
}

// Apply merges the patch into the book.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.ColorTheme != nil {
		b.ColorTheme = NormalizeColorTheme(*p.ColorTheme)
	}
}
