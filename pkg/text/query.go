package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Everything except letters, digits, underscore, whitespace, hyphen and brackets.
var disallowedTitleRunes = regexp.MustCompile(`[^\p{L}\p{N}_\s\-()\[\]]`)

// CleanTitle NFC-normalizes s and strips punctuation that hurts search matching.
func CleanTitle(s string) string {
	s = norm.NFC.String(s)
	s = disallowedTitleRunes.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// BuildSearchQuery returns the video search query for a track.
func BuildSearchQuery(artist, title string) string {
	return CleanTitle(artist) + " - " + CleanTitle(title) + " audio"
}
