package counselor

import (
	"strings"

	"github.com/mmstudyabroad/counselor-bot/internal/knowledge"
)

// Query is normalized user text with its scoring tokens.
type Query struct {
	Text   string
	Tokens []string
}

// NewQuery normalizes raw and tokenizes the result.
func NewQuery(raw string) Query {
	n := Normalize(raw)
	return Query{Text: n, Tokens: Tokens(n)}
}

// Empty reports whether nothing survived normalization.
func (q Query) Empty() bool {
	return q.Text == ""
}

// Match is the best-scoring knowledge entry for a query.
type Match struct {
	Entry *knowledge.Entry
	Score float64
}

// Found reports whether any entry scored above zero.
func (m Match) Found() bool {
	return m.Entry != nil && m.Score > 0
}

// Score rates how well e matches q.
//
// Each keyword found anywhere in the normalized text adds 1. Independently,
// each (token, keyword) pair where either string contains the other adds 0.5.
// Containment is plain substring matching, so short keywords such as "us" or
// "ok" also hit inside unrelated words ("business", "book").
func Score(q Query, e *knowledge.Entry) float64 {
	var score float64
	for _, kw := range e.Keywords {
		if strings.Contains(q.Text, kw) {
			score += 1
		}
		for _, w := range q.Tokens {
			if w == kw || strings.Contains(kw, w) || strings.Contains(w, kw) {
				score += 0.5
			}
		}
	}
	return score
}

// BestMatch scores every entry of kb in order and returns the highest.
// Ties keep the earlier entry.
func BestMatch(q Query, kb *knowledge.Base) Match {
	var best Match
	if q.Empty() {
		return best
	}
	for i := range kb.Len() {
		e := kb.At(i)
		if s := Score(q, e); s > best.Score {
			best = Match{Entry: e, Score: s}
		}
	}
	return best
}
