package counselor

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"punctuation only", "!!! ???", ""},
		{"lowercases", "What is OSSD", "what is ossd"},
		{"punctuation becomes separator", "A-Levels, please!", "a levels please"},
		{"apostrophe splits words", "What's my ID?", "what s my id"},
		{"collapses runs", "  hello   \t world  ", "hello world"},
		{"keeps digits and underscore", "IELTS 6.5 score_x", "ielts 6 5 score_x"},
		{"emoji is a separator", "hi👋there", "hi there"},
		{"burmese script is a separator", "မင်္ဂလာပါ hello", "hello"},
		{"full case mapping", "İstanbul", "i stanbul"},
		{"kelvin sign lowercases to k", "\u212Aorea", "korea"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"Scholarships for UK!!", "  A-Level   & IGCSE ", "Thank you 🙏"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{}},
		{"i want a uk scholarship", []string{"want", "uk", "scholarship"}},
		{"is ossd ok", []string{"is", "ossd", "ok"}},
	}
	for _, tt := range tests {
		got := Tokens(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Tokens(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
