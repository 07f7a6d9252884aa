package dictionary

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Merge folds all sources into one patricia trie, so a term seen twice keeps the
// weight from the last source, and returns the result as a sorted source.
func Merge(sources ...TermSource) (TermSource, error) {
	trie := patricia.NewTrie()
	for _, src := range sources {
		for src.Next() {
			term := src.Term()
			if len(term) == 0 {
				continue
			}
			trie.Set(patricia.Prefix(append([]byte(nil), term...)), src.Weight())
		}
		if err := src.Err(); err != nil {
			return nil, fmt.Errorf("merging terms: %w", err)
		}
	}
	return NewPatriciaSource(trie)
}

// NewPatriciaSource replays a patricia trie holding float32 items in byte order.
func NewPatriciaSource(trie *patricia.Trie) (TermSource, error) {
	var entries []Entry
	err := trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		weight, ok := item.(float32)
		if !ok {
			return fmt.Errorf("unexpected item type %T for term %q", item, string(p))
		}
		entries = append(entries, Entry{Term: string(p), Weight: weight})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("visiting patricia trie: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	log.Debugf("Merged dictionary holds %d terms", len(entries))
	return NewSliceSource(entries, true), nil
}
