package model

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRun      = regexp.MustCompile(`[^A-Za-z0-9]+`)
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// SanitizeIdentifier turns a playlist identifier into a directory-safe name.
//
// Every run of characters outside [A-Za-z0-9] becomes a single underscore.
// Case is preserved. The function is idempotent.
//
//	SanitizeIdentifier("abc?si=123") // "abc_si_123"
func SanitizeIdentifier(id string) string {
	return nonAlnumRun.ReplaceAllString(id, "_")
}

// SanitizeTitle turns a track title into a file name stem.
//
// Runs of characters outside [a-z0-9] (case-insensitively) become a single
// underscore and the result is lower-cased. The function is idempotent.
//
//	SanitizeTitle("Song: Name!") // "song_name_"
func SanitizeTitle(title string) string {
	return strings.ToLower(nonAlnumRun.ReplaceAllString(title, "_"))
}

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
//
// Names built from SanitizeIdentifier or SanitizeTitle pass through unchanged.
func sanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
