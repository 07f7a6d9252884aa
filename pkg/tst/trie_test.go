package tst

import (
	"reflect"
	"sort"
	"testing"
)

func newTestTrie(words map[string]float32) *Trie {
	t := New()
	for w, f := range words {
		t.Put(w, f)
	}
	return t
}

func TestPutGet(t *testing.T) {
	trie := newTestTrie(map[string]float32{
		"cat":   5,
		"car":   3,
		"can":   9,
		"cap":   1,
		"ca":    2,
		"über":  7,
		"😀ok":   4,
		"catch": 6,
	})

	testCases := []struct {
		key   string
		want  float32
		found bool
	}{
		{"cat", 5, true},
		{"ca", 2, true},
		{"catch", 6, true},
		{"über", 7, true},
		{"😀ok", 4, true},
		{"c", 0, false},
		{"cats", 0, false},
		{"dog", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		got, found := trie.Get(tc.key)
		if found != tc.found || got != tc.want {
			t.Errorf("Get(%q) = (%v, %v), want (%v, %v)", tc.key, got, found, tc.want, tc.found)
		}
	}
}

func TestPutOverwritesWeight(t *testing.T) {
	trie := New()
	trie.Put("hello", 1)
	trie.Put("hello", 42)

	if got, _ := trie.Get("hello"); got != 42 {
		t.Errorf("expected last write to win, got %v", got)
	}
	if n := trie.Len(); n != 1 {
		t.Errorf("expected 1 key after duplicate put, got %d", n)
	}
}

func TestPutEmptyKeyIgnored(t *testing.T) {
	trie := New()
	trie.Put("", 10)
	if trie.Root() != nil {
		t.Fatal("empty key must not create nodes")
	}

	trie.Put("a", 1)
	trie.Put("", 10)
	if got, _ := trie.Get("a"); got != 1 {
		t.Errorf("empty key altered existing weight: %v", got)
	}
	if keys := trie.MatchPrefix("", -1); !reflect.DeepEqual(keys, []string{"a"}) {
		t.Errorf("unexpected enumeration %v", keys)
	}
}

func TestMatchPrefix(t *testing.T) {
	trie := newTestTrie(map[string]float32{
		"cat": 5, "car": 3, "can": 9, "cap": 1, "ca": 2, "dog": 4, "do": 1, "c": 8,
	})

	testCases := []struct {
		description string
		prefix      string
		limit       int
		want        []string
	}{
		{"prefix is a key and comes first", "ca", -1, []string{"ca", "can", "cap", "car", "cat"}},
		{"single char prefix", "d", -1, []string{"do", "dog"}},
		{"limit cuts enumeration", "ca", 3, []string{"ca", "can", "cap"}},
		{"zero limit", "ca", 0, nil},
		{"full key", "cat", -1, []string{"cat"}},
		{"unknown prefix", "x", -1, nil},
		{"prefix past keys", "cats", -1, nil},
		{"empty prefix walks everything", "", -1, []string{"c", "ca", "can", "cap", "car", "cat", "do", "dog"}},
		{"empty prefix with limit", "", 2, []string{"c", "ca"}},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := trie.MatchPrefix(tc.prefix, tc.limit)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("MatchPrefix(%q, %d) = %v, want %v", tc.prefix, tc.limit, got, tc.want)
			}
		})
	}
}

func TestMatchPrefixContainsEveryInsertedTerm(t *testing.T) {
	words := []string{"apple", "application", "apply", "banana", "band", "bandana", "über", "überall", "x"}
	trie := New()
	for i, w := range words {
		trie.Put(w, float32(i))
	}

	for _, w := range words {
		units := Encode(w)
		for end := 1; end <= len(units); end++ {
			prefix := string(decodeForTest(units[:end]))
			found := false
			for _, k := range trie.MatchPrefix(prefix, -1) {
				if k == w {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("MatchPrefix(%q) does not contain %q", prefix, w)
			}
		}
	}
}

func TestMatchPrefixIsSorted(t *testing.T) {
	words := []string{"zeta", "alpha", "mu", "beta", "alphabet", "gamma", "delta", "epsilon"}
	trie := New()
	for _, w := range words {
		trie.Put(w, 1)
	}
	got := trie.MatchPrefix("", -1)
	want := append([]string(nil), words...)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("enumeration not in order: got %v, want %v", got, want)
	}
}

func TestMatchAlmost(t *testing.T) {
	trie := newTestTrie(map[string]float32{
		"cat": 1, "cart": 1, "bat": 1, "cast": 1, "at": 1, "dog": 1, "catalog": 1,
	})

	testCases := []struct {
		description string
		key         string
		distance    int
		limit       int
		want        []string
	}{
		{"exact only", "cat", 0, -1, []string{"cat"}},
		{"one edit", "cat", 1, -1, []string{"at", "bat", "cart", "cast", "cat"}},
		{"limit", "cat", 1, 2, []string{"at", "bat"}},
		{"no exact match at zero", "cot", 0, -1, nil},
		{"substitution", "cot", 1, -1, []string{"cat"}},
		{"far key", "dig", 1, -1, []string{"dog"}},
		{"out of budget", "xyz", 2, -1, nil},
		{"empty key", "", 2, -1, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := trie.MatchAlmostWithin(tc.key, tc.distance, tc.limit)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("MatchAlmostWithin(%q, %d, %d) = %v, want %v", tc.key, tc.distance, tc.limit, got, tc.want)
			}
		})
	}
}

func TestMatchAlmostUsesConfiguredDistance(t *testing.T) {
	trie := newTestTrie(map[string]float32{"cat": 1, "cut": 1, "cute": 1})

	if got := trie.MatchAlmost("cat", -1); !reflect.DeepEqual(got, []string{"cat", "cut", "cute"}) {
		t.Errorf("default distance: got %v", got)
	}

	trie.SetMatchAlmostDistance(1)
	if got := trie.MatchAlmost("cat", -1); !reflect.DeepEqual(got, []string{"cat", "cut"}) {
		t.Errorf("distance 1: got %v", got)
	}

	trie.SetMatchAlmostDistance(-3)
	if d := trie.MatchAlmostDistance(); d != 0 {
		t.Errorf("negative distance should clamp to 0, got %d", d)
	}
}

func TestMatchAlmostMonotone(t *testing.T) {
	words := []string{"there", "their", "the", "then", "than", "that", "this", "three", "tree", "free"}
	trie := New()
	for _, w := range words {
		trie.Put(w, 1)
	}

	for _, key := range []string{"the", "thre", "tha", "fre", "xx"} {
		prev := map[string]bool{}
		for d := 0; d <= 4; d++ {
			cur := map[string]bool{}
			for _, k := range trie.MatchAlmostWithin(key, d, -1) {
				cur[k] = true
			}
			for k := range prev {
				if !cur[k] {
					t.Errorf("key %q: %q matched at distance %d but not at %d", key, k, d-1, d)
				}
			}
			prev = cur
		}
	}
}

func TestMatchAlmostAgreesWithLevenshtein(t *testing.T) {
	words := []string{"kitten", "sitting", "mitten", "kitchen", "bitten", "knit", "kit"}
	trie := New()
	for _, w := range words {
		trie.Put(w, 1)
	}

	for _, key := range []string{"kitten", "sittin", "kit"} {
		for d := 0; d <= 3; d++ {
			var want []string
			for _, w := range words {
				if levenshtein(Encode(key), Encode(w)) <= d {
					want = append(want, w)
				}
			}
			sort.Strings(want)
			got := trie.MatchAlmostWithin(key, d, -1)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("MatchAlmostWithin(%q, %d) = %v, want %v", key, d, got, want)
			}
		}
	}
}

func TestRemove(t *testing.T) {
	trie := New()
	trie.Put("cat", 1)
	base := trie.Stats().Nodes

	trie.Put("car", 2)
	if !trie.Remove("car") {
		t.Fatal("expected car to be removed")
	}
	if n := trie.Stats().Nodes; n != base {
		t.Errorf("expected %d nodes after removal, got %d", base, n)
	}
	if _, ok := trie.Get("car"); ok {
		t.Error("car still present")
	}
	if trie.Remove("ca") {
		t.Error("removing a non-key prefix should report false")
	}
	if _, ok := trie.Get("cat"); !ok {
		t.Error("cat lost after unrelated removal")
	}

	trie.Remove("cat")
	if trie.Root() != nil {
		t.Error("trie should be empty after removing every key")
	}
}

func TestRemoveSplicesSiblings(t *testing.T) {
	trie := New()
	trie.Put("b", 1)
	trie.Put("a", 2)
	trie.Put("c", 3)
	trie.Put("ab", 4)

	trie.Remove("b")

	if got := trie.MatchPrefix("", -1); !reflect.DeepEqual(got, []string{"a", "ab", "c"}) {
		t.Errorf("unexpected keys after splice: %v", got)
	}
	if s := trie.Stats(); s.Nodes != 3 || s.Terms != 3 {
		t.Errorf("unexpected stats after splice: %+v", s)
	}
	for key, want := range map[string]float32{"a": 2, "ab": 4, "c": 3} {
		if got, ok := trie.Get(key); !ok || got != want {
			t.Errorf("Get(%q) = %v, %v", key, got, ok)
		}
	}
}

func TestStats(t *testing.T) {
	trie := New()
	if s := trie.Stats(); s != (Stats{}) {
		t.Errorf("empty trie stats: %+v", s)
	}

	trie.Put("ab", 1)
	trie.Put("a", 1)
	s := trie.Stats()
	if s.Terms != 2 || s.Nodes != 2 || s.MaxDepth != 2 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestSortedInsertionDegenerates(t *testing.T) {
	trie := New()
	n := 500
	for i := 0; i < n; i++ {
		trie.PutUnits([]uint16{uint16(0x100 + i)}, 1)
	}
	if d := trie.Stats().MaxDepth; d != n {
		t.Errorf("sorted single-unit keys should chain to depth %d, got %d", n, d)
	}
}

func TestAppendUTF8ReusesBuffer(t *testing.T) {
	buf := make([]uint16, 0, 16)
	buf = AppendUTF8(buf[:0], []byte("héllo"))
	if got := string(decodeForTest(buf)); got != "héllo" {
		t.Errorf("decoded %q", got)
	}
	buf = AppendUTF8(buf[:0], []byte("😀"))
	if len(buf) != 2 {
		t.Errorf("expected a surrogate pair, got %d units", len(buf))
	}
}

func decodeForTest(units []uint16) []rune {
	c := &collector{limit: -1}
	c.add(units)
	return []rune(c.keys[0])
}

func levenshtein(a, b []uint16) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func TestNodeEmpty(t *testing.T) {
	n := NewNode('a')
	if !n.Empty() {
		t.Error("fresh node should be empty")
	}
	n.SetValue(1)
	if n.Empty() {
		t.Error("node with a value reported empty")
	}
	n.ClearValue()
	n.SetChild(High, NewNode('b'))
	if n.Empty() {
		t.Error("node with a child reported empty")
	}
}
