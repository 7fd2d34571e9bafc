// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a filesystem- and URL-safe slug.
//
// Normalization rules:
//  1. Decompose accented characters and drop the combining marks
//  2. Trim whitespace and lowercase
//  3. Replace spaces, underscores, and slashes with dashes
//  4. Remove non-alphanumeric characters (except dashes)
//  5. Collapse multiple dashes
//  6. Trim leading/trailing dashes
//
// Examples:
//
//	"Meeting Notes"   → "meeting-notes"
//	"Café Journal"    → "cafe-journal"
//	"drafts/2026"     → "drafts-2026"
//	"  multi   word " → "multi-word"
func Slugify(input string) string {
	// 1. Strip diacritics: decompose, then drop mark runes.
	s := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, norm.NFD.String(input))

	// 2. Trim and lowercase
	s = strings.ToLower(strings.TrimSpace(s))

	// 3. Replace word separators with dashes
	s = wordSeparatorRe.ReplaceAllString(s, "-")

	// 4. Remove non-alphanumeric (except dashes)
	s = nonAlphanumericRe.ReplaceAllString(s, "")

	// 5. Collapse multiple dashes
	s = multipleDashRe.ReplaceAllString(s, "-")

	// 6. Trim leading/trailing dashes
	return strings.Trim(s, "-")
}
