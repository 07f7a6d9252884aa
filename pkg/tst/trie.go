// Package tst implements the ternary search trie behind the suggester.
//
// Keys are stored as UTF-16 code units, one unit per node, so the node graph maps
// one-to-one onto the persisted jaspell format. The trie is not synchronized.
package tst

import (
	"unicode/utf16"
	"unicode/utf8"
)

// DefaultMatchAlmostDistance is the edit budget used by MatchAlmost on a new trie.
const DefaultMatchAlmostDistance = 2

// Trie is a ternary search trie mapping keys to float32 weights.
type Trie struct {
	root                *Node
	matchAlmostDistance int
}

// Stats describes the shape of a trie.
type Stats struct {
	Terms    int
	Nodes    int
	MaxDepth int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{matchAlmostDistance: DefaultMatchAlmostDistance}
}

// Encode converts a key into the code units used as split chars.
func Encode(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// AppendUTF8 decodes UTF-8 bytes and appends their UTF-16 units to dst.
// Invalid sequences become U+FFFD.
func AppendUTF8(dst []uint16, b []byte) []uint16 {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		dst = utf16.AppendRune(dst, r)
		b = b[size:]
	}
	return dst
}

// Root exposes the node graph for the persistence codec.
func (t *Trie) Root() *Node {
	return t.root
}

// SetRoot replaces the whole node graph.
func (t *Trie) SetRoot(n *Node) {
	t.root = n
}

func (t *Trie) MatchAlmostDistance() int {
	return t.matchAlmostDistance
}

// SetMatchAlmostDistance sets the budget for MatchAlmost; negative values clamp to 0.
func (t *Trie) SetMatchAlmostDistance(d int) {
	if d < 0 {
		d = 0
	}
	t.matchAlmostDistance = d
}

// Put stores weight under key, replacing any previous weight. Empty keys are ignored.
func (t *Trie) Put(key string, weight float32) {
	t.PutUnits(Encode(key), weight)
}

// PutUnits is Put on an already encoded key.
func (t *Trie) PutUnits(key []uint16, weight float32) {
	if len(key) == 0 {
		return
	}
	slot := &t.root
	i := 0
	for {
		n := *slot
		if n == nil {
			n = NewNode(key[i])
			*slot = n
		}
		switch c := key[i]; {
		case c < n.splitChar:
			slot = &n.kids[Low]
		case c > n.splitChar:
			slot = &n.kids[High]
		default:
			i++
			if i == len(key) {
				n.SetValue(weight)
				return
			}
			slot = &n.kids[Equal]
		}
	}
}

// Get returns the weight stored under key.
func (t *Trie) Get(key string) (float32, bool) {
	n := t.find(Encode(key))
	if n == nil {
		return 0, false
	}
	return n.Value()
}

// find returns the node holding the last unit of key, or nil.
func (t *Trie) find(key []uint16) *Node {
	if len(key) == 0 {
		return nil
	}
	n := t.root
	i := 0
	for n != nil {
		switch c := key[i]; {
		case c < n.splitChar:
			n = n.kids[Low]
		case c > n.splitChar:
			n = n.kids[High]
		default:
			i++
			if i == len(key) {
				return n
			}
			n = n.kids[Equal]
		}
	}
	return nil
}

// MatchPrefix returns up to limit keys starting with prefix, in code unit order.
// A negative limit means no limit. An empty prefix enumerates the whole trie.
func (t *Trie) MatchPrefix(prefix string, limit int) []string {
	if limit == 0 {
		return nil
	}
	c := &collector{limit: limit}
	units := Encode(prefix)
	if len(units) == 0 {
		c.walk(t.root, nil)
		return c.keys
	}
	n := t.find(units)
	if n == nil {
		return nil
	}
	if n.hasValue {
		c.add(units)
	}
	c.walk(n.kids[Equal], units)
	return c.keys
}

// Remove deletes key and prunes the nodes that no longer lead to any key.
func (t *Trie) Remove(key string) bool {
	units := Encode(key)
	if len(units) == 0 {
		return false
	}
	removed := false
	t.root = remove(t.root, units, 0, &removed)
	return removed
}

func remove(n *Node, key []uint16, i int, removed *bool) *Node {
	if n == nil {
		return nil
	}
	switch c := key[i]; {
	case c < n.splitChar:
		n.kids[Low] = remove(n.kids[Low], key, i, removed)
	case c > n.splitChar:
		n.kids[High] = remove(n.kids[High], key, i, removed)
	default:
		if i+1 < len(key) {
			n.kids[Equal] = remove(n.kids[Equal], key, i+1, removed)
		} else if n.hasValue {
			n.ClearValue()
			*removed = true
		}
	}
	return prune(n)
}

// prune splices out a node that neither ends a key nor continues one.
// Its low and high siblings are rejoined as a single binary search tree.
func prune(n *Node) *Node {
	if n.Empty() {
		return nil
	}
	if n.hasValue || n.kids[Equal] != nil {
		return n
	}
	lo, hi := n.kids[Low], n.kids[High]
	if lo == nil {
		return hi
	}
	if hi == nil {
		return lo
	}
	last := lo
	for last.kids[High] != nil {
		last = last.kids[High]
	}
	last.kids[High] = hi
	return lo
}

// Len returns the number of stored keys.
func (t *Trie) Len() int {
	return t.Stats().Terms
}

// Stats walks the trie and reports its size and height.
func (t *Trie) Stats() Stats {
	var s Stats
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n == nil {
			return
		}
		s.Nodes++
		if n.hasValue {
			s.Terms++
		}
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		for _, kid := range n.kids {
			walk(kid, depth+1)
		}
	}
	walk(t.root, 1)
	return s
}

// collector accumulates keys from in-order walks until the limit is reached.
type collector struct {
	keys  []string
	limit int
}

func (c *collector) full() bool {
	return c.limit >= 0 && len(c.keys) >= c.limit
}

func (c *collector) add(units []uint16) {
	c.keys = append(c.keys, string(utf16.Decode(units)))
}

// walk visits low, the node itself, equal, then high, which yields keys in order.
func (c *collector) walk(n *Node, prefix []uint16) {
	if n == nil || c.full() {
		return
	}
	c.walk(n.kids[Low], prefix)
	if c.full() {
		return
	}
	key := append(prefix, n.splitChar)
	if n.hasValue {
		c.add(key)
	}
	c.walk(n.kids[Equal], key)
	c.walk(n.kids[High], prefix)
}
