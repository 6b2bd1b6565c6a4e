// Package sanitize repairs common OCR digit confusions before parsing.
package sanitize

import (
	"strconv"
	"strings"
)

var digitConfusions = strings.NewReplacer(
	"o", "0",
	"O", "0",
	"l", "1",
	"I", "1",
)

// Numeric parses OCR-derived numeric text. Letter/digit confusions are
// substituted (o/O to 0, l/I to 1), every remaining non-digit is stripped, and
// the rest is parsed as an integer. An empty remainder yields 0, not an error.
// Must run before any arithmetic on OCR text.
func Numeric(text string) int {
	cleaned := digitConfusions.Replace(text)
	var digits strings.Builder
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
