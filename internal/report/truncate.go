package report

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxValueLength is the number of characters shown for an extracted value.
const MaxValueLength = 80

// ellipsis is appended to truncated values.
const ellipsis = "..."

// Truncate shortens value to limit characters and appends "..." when it was
// longer. Values that fit are returned byte for byte. Characters are counted
// after NFC normalization, so a base letter and its combining mark count as
// one character and are never split apart.
func Truncate(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(norm.NFC.String(value))
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + ellipsis
}
