package suggest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bastiangx/tstserve/pkg/dictionary"
	"github.com/bastiangx/tstserve/pkg/metrics"
	"github.com/bastiangx/tstserve/pkg/tst"
	"github.com/charmbracelet/log"
)

var (
	// ErrBuild wraps failures reading a term source during Build.
	ErrBuild = errors.New("build failed")
	// ErrCorrupt wraps malformed or truncated persisted tries.
	ErrCorrupt = errors.New("corrupt trie data")
)

// Lookup is a Suggester backed by a ternary search trie.
// Readers share the current trie; Build and Load publish a new one.
type Lookup struct {
	mu           sync.RWMutex
	trie         *tst.Trie
	usePrefix    bool
	editDistance int
	metrics      *metrics.Metrics
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithPrefix selects prefix matching (true) or fuzzy matching (false).
func WithPrefix(usePrefix bool) Option {
	return func(l *Lookup) {
		l.usePrefix = usePrefix
	}
}

// WithEditDistance sets the fuzzy matching budget; negative values clamp to 0.
func WithEditDistance(d int) Option {
	return func(l *Lookup) {
		l.editDistance = max(d, 0)
	}
}

// WithMetrics records lookups, builds and persistence on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Lookup) {
		l.metrics = m
	}
}

// New returns an empty Lookup using prefix matching.
func New(opts ...Option) *Lookup {
	l := &Lookup{
		usePrefix:    true,
		editDistance: tst.DefaultMatchAlmostDistance,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.trie = l.newTrie()
	return l
}

func (l *Lookup) newTrie() *tst.Trie {
	t := tst.New()
	t.SetMatchAlmostDistance(l.editDistance)
	return t
}

// UsePrefix reports whether lookups match by prefix.
func (l *Lookup) UsePrefix() bool {
	return l.usePrefix
}

// EditDistance returns the fuzzy matching budget.
func (l *Lookup) EditDistance() int {
	return l.editDistance
}

// Build replaces the index with the terms of src. Empty terms are skipped and a
// sorted source is shuffled first so the trie stays shallow. If src fails, the
// error wraps ErrBuild and the previous index stays in place.
func (l *Lookup) Build(src dictionary.TermSource) error {
	start := time.Now()

	if src.Sorted() {
		log.Debug("Term source is sorted, shuffling before insert")
		shuffled, err := dictionary.Unsorted(src)
		if err != nil {
			l.observeBuild("error", start)
			return fmt.Errorf("%w: %w", ErrBuild, err)
		}
		src = shuffled
	}

	trie := l.newTrie()
	var units []uint16
	count := 0
	for src.Next() {
		term := src.Term()
		if len(term) == 0 {
			continue
		}
		units = tst.AppendUTF8(units[:0], term)
		trie.PutUnits(units, src.Weight())
		count++
	}
	if err := src.Err(); err != nil {
		l.observeBuild("error", start)
		return fmt.Errorf("%w: %w", ErrBuild, err)
	}

	l.publish(trie)
	l.observeBuild("ok", start)
	log.Debugf("Built index from %d terms in %v", count, time.Since(start))
	return nil
}

// publish swaps in trie; it must not be shared before this call.
func (l *Lookup) publish(trie *tst.Trie) {
	if l.metrics != nil {
		stats := trie.Stats()
		l.metrics.TermsIndexed.Set(float64(stats.Terms))
		l.metrics.TrieNodes.Set(float64(stats.Nodes))
	}
	l.mu.Lock()
	l.trie = trie
	l.mu.Unlock()
}

// Lookup returns up to num suggestions for key. An empty key or a
// non-positive num yields an empty slice.
func (l *Lookup) Lookup(key string, onlyMorePopular bool, num int) []Suggestion {
	start := time.Now()

	l.mu.RLock()
	results := l.lookup(key, onlyMorePopular, num)
	l.mu.RUnlock()

	l.observeLookup(len(results), start)
	return results
}

func (l *Lookup) lookup(key string, onlyMorePopular bool, num int) []Suggestion {
	if key == "" || num <= 0 {
		return []Suggestion{}
	}

	count := num
	if onlyMorePopular {
		count = num * 2
	}

	var list []string
	if l.usePrefix {
		list = l.trie.MatchPrefix(key, count)
	} else {
		list = l.trie.MatchAlmost(key, count)
	}
	if len(list) == 0 {
		return []Suggestion{}
	}

	if onlyMorePopular {
		queue := newResultQueue(num)
		for _, word := range list {
			weight, _ := l.trie.Get(word)
			queue.insertWithOverflow(Suggestion{Word: word, Weight: weight})
		}
		return queue.results()
	}

	list = list[:min(num, len(list))]
	results := make([]Suggestion, 0, len(list))
	for _, word := range list {
		weight, _ := l.trie.Get(word)
		results = append(results, Suggestion{Word: word, Weight: weight})
	}
	return results
}

// Add inserts or replaces a single term. It always reports false: incremental
// additions are applied but do not count as a successful rebuild.
func (l *Lookup) Add(key string, weight float32) bool {
	l.mu.Lock()
	l.trie.Put(key, weight)
	l.mu.Unlock()
	return false
}

// Get returns the weight of key.
func (l *Lookup) Get(key string) (float32, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.trie.Get(key)
}

// Remove deletes key from the index and reports whether it was present.
func (l *Lookup) Remove(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.trie.Remove(key)
}

// Stats describes the current trie.
func (l *Lookup) Stats() tst.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.trie.Stats()
}

func (l *Lookup) empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	root := l.trie.Root()
	return root == nil || root.Empty()
}

func (l *Lookup) mode() string {
	if l.usePrefix {
		return "prefix"
	}
	return "fuzzy"
}

func (l *Lookup) observeLookup(n int, start time.Time) {
	if l.metrics == nil {
		return
	}
	result := "hit"
	if n == 0 {
		result = "empty"
	}
	mode := l.mode()
	l.metrics.LookupsTotal.WithLabelValues(mode, result).Inc()
	l.metrics.LookupLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	l.metrics.LookupResults.Observe(float64(n))
}

func (l *Lookup) observeBuild(status string, start time.Time) {
	if l.metrics == nil {
		return
	}
	l.metrics.BuildsTotal.WithLabelValues(status).Inc()
	l.metrics.BuildDuration.Observe(time.Since(start).Seconds())
}

func (l *Lookup) observePersistence(op, status string) {
	if l.metrics == nil {
		return
	}
	l.metrics.PersistenceTotal.WithLabelValues(op, status).Inc()
}
