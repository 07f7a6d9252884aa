package utils

import (
	"strings"
)

// SuggestionFilter drops case-insensitive duplicates and the input word itself.
// It is not safe for concurrent use; create one per request.
type SuggestionFilter struct {
	seenWords map[string]bool
}

// NewSuggestionFilter creates a new filter instance that will exclude the given input word
func NewSuggestionFilter(input string) *SuggestionFilter {
	return &SuggestionFilter{
		seenWords: map[string]bool{strings.ToLower(input): true},
	}
}

// ShouldInclude reports whether word is new, recording it as seen.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	lowerWord := strings.ToLower(word)
	if f.seenWords[lowerWord] {
		return false
	}
	f.seenWords[lowerWord] = true
	return true
}
