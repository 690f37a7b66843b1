package messenger

import "strings"

// MaxTextLength is the Send API limit for message.text, in characters.
const MaxTextLength = 2000

// SplitText cuts text into chunks of at most limit characters. A cut prefers
// the last line break, then the last space, in the second half of the window;
// otherwise the text is cut hard at limit. Whitespace at the cut is dropped.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxTextLength
	}

	runes := []rune(text)
	var chunks []string
	for len(runes) > limit {
		cut := breakPoint(runes[:limit])
		if chunk := strings.TrimRight(string(runes[:cut]), " \t\r\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \t\r\n"))
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// breakPoint returns the index after which window should be cut.
func breakPoint(window []rune) int {
	half := len(window) / 2
	for _, sep := range []rune{'\n', ' '} {
		for i := len(window) - 1; i >= half; i-- {
			if window[i] == sep {
				return i + 1
			}
		}
	}
	return len(window)
}
