// Package knowledge holds the counselor's FAQ table: an ordered, immutable
// list of topic entries, each a keyword set with a canned answer.
package knowledge

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Entry is one FAQ topic.
type Entry struct {
	// ID is a stable name used in metrics and statistics.
	ID string `yaml:"id"`
	// Keywords are matched against the normalized user text.
	Keywords []string `yaml:"keywords"`
	// Answer may contain **bold** markers; they are stripped before sending.
	Answer string `yaml:"answer"`
	// Generic marks small talk (greetings, thanks, identity questions)
	// answered directly without reply generation.
	Generic bool `yaml:"generic,omitempty"`
}

// Base is an immutable, ordered knowledge table.
// Entry order is the tie-break priority when scores are equal.
type Base struct {
	entries []Entry
}

// New validates entries and returns a Base holding a private copy of them.
func New(entries []Entry) (*Base, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	copied := make([]Entry, len(entries))
	for i, e := range entries {
		e.Keywords = slices.Clone(e.Keywords)
		copied[i] = e
	}
	return &Base{entries: copied}, nil
}

// Default returns the built-in table.
func Default() *Base {
	b, err := New(builtinEntries)
	if err != nil {
		panic(fmt.Sprintf("knowledge: built-in table invalid: %v", err))
	}
	return b
}

// Len returns the number of entries.
func (b *Base) Len() int {
	return len(b.entries)
}

// At returns the i-th entry. Callers must not modify its Keywords slice.
func (b *Base) At(i int) *Entry {
	return &b.entries[i]
}

// Entries returns a copy of the table.
func (b *Base) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		e.Keywords = slices.Clone(e.Keywords)
		out[i] = e
	}
	return out
}

// Lookup returns the entry with the given ID.
func (b *Base) Lookup(id string) (Entry, bool) {
	for _, e := range b.entries {
		if e.ID == id {
			e.Keywords = slices.Clone(e.Keywords)
			return e, true
		}
	}
	return Entry{}, false
}

// Validate reports every structural problem in entries.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return errors.New("knowledge: table is empty")
	}

	var errs []error
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		name := fmt.Sprintf("entry %d", i)
		if e.ID != "" {
			name = fmt.Sprintf("entry %d (%s)", i, e.ID)
		}

		if strings.TrimSpace(e.ID) == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", name))
		} else if prev, ok := seen[e.ID]; ok {
			errs = append(errs, fmt.Errorf("%s: duplicate id, first used by entry %d", name, prev))
		} else {
			seen[e.ID] = i
		}

		if strings.TrimSpace(e.Answer) == "" {
			errs = append(errs, fmt.Errorf("%s: answer is required", name))
		}
		if len(e.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one keyword is required", name))
		}
		for j, kw := range e.Keywords {
			switch {
			case strings.TrimSpace(kw) == "":
				errs = append(errs, fmt.Errorf("%s: keyword %d is blank", name, j))
			case strings.ToLower(kw) != kw:
				// The query is lowercased before matching.
				errs = append(errs, fmt.Errorf("%s: keyword %q must be lowercase", name, kw))
			}
		}
	}
	return errors.Join(errs...)
}
