package counselor

import (
	"regexp"
	"strings"
	"unicode"
)

var boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// ToPlainText replaces every **bold** span with its inner text and trims
// surrounding whitespace. Messenger renders text verbatim, so markers would
// otherwise show up literally.
//
// Replacement repeats until no span is left, which keeps the function
// idempotent for inputs like "****a****".
func ToPlainText(text string) string {
	for {
		next := boldPattern.ReplaceAllString(text, "$1")
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimFunc(text, isTrimSpace)
}

// isTrimSpace matches the whitespace set of ECMAScript's String.prototype.trim,
// which the stored answers were authored against.
func isTrimSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}
