package counselor

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lowercases raw, turns every character other than an ASCII word
// character ([A-Za-z0-9_]) into a separator, collapses separator runs to a
// single space and trims the result.
//
// Lowercasing uses full Unicode case mapping, so "İ" becomes "i" followed by
// a combining dot, which in turn becomes a separator.
func Normalize(raw string) string {
	lowered := cases.Lower(language.Und).String(raw)

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSpace := false
	for _, r := range lowered {
		if !isWordRune(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

// Tokens splits a normalized string into words longer than one character.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	fields := strings.Split(normalized, " ")
	out := fields[:0]
	for _, w := range fields {
		if len(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}
