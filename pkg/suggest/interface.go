// Package suggest is the core, ranking prefix and fuzzy matches from a ternary search trie
// and persisting that trie in the compact jaspell format.
package suggest

import "github.com/bastiangx/tstserve/pkg/tst"

// Suggestion is a single lookup result.
type Suggestion struct {
	Word   string
	Weight float32
}

// Suggester defines the interface for term suggestion engines
type Suggester interface {
	// Lookup returns up to num suggestions for key. With onlyMorePopular the
	// heaviest candidates come first, otherwise candidates keep trie order.
	Lookup(key string, onlyMorePopular bool, num int) []Suggestion

	// Add inserts or replaces a single term.
	Add(key string, weight float32) bool

	// Get returns the weight stored for key.
	Get(key string) (float32, bool)

	// Stats describes the loaded trie
	Stats() tst.Stats
}
