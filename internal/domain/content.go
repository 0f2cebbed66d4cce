package domain

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeContent trims surrounding whitespace and composes to NFC.
func NormalizeContent(content string) string {
	return norm.NFC.String(strings.TrimSpace(content))
}

// ContentLength counts characters after normalisation.
func ContentLength(content string) int {
	return utf8.RuneCountInString(NormalizeContent(content))
}

// CanSubmit is true iff the trimmed content is 1 to MaxPostLength characters.
func CanSubmit(content string) bool {
	n := ContentLength(content)
	return n > 0 && n <= MaxPostLength
}
