package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// sanitizeText drops invalid UTF-8 and control characters from a free-text label
// and trims surrounding space. PostgreSQL rejects invalid byte sequences in TEXT.
func sanitizeText(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, unicode.IsControl) < 0 {
		return strings.TrimSpace(s)
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
	}

	return strings.TrimSpace(result.String())
}

// titlePrefix returns the first n runes of title.
func titlePrefix(title string, n int) string {
	runes := []rune(title)
	if len(runes) <= n {
		return title
	}
	return string(runes[:n])
}
