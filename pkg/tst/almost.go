package tst

// MatchAlmost returns up to limit keys within the trie's configured edit distance of key.
func (t *Trie) MatchAlmost(key string, limit int) []string {
	return t.MatchAlmostWithin(key, t.matchAlmostDistance, limit)
}

// MatchAlmostWithin returns up to limit keys whose Levenshtein distance to key is at
// most distance, in code unit order. A negative limit means no limit.
//
// The walk keeps one edit-distance row per key position and stops descending once
// every cell of the row is over budget, so only the part of the trie that can still
// match is visited.
func (t *Trie) MatchAlmostWithin(key string, distance, limit int) []string {
	target := Encode(key)
	if len(target) == 0 || distance < 0 || limit == 0 {
		return nil
	}
	s := &almostSearch{
		collector: collector{limit: limit},
		target:    target,
		distance:  distance,
	}
	first := make([]int, len(target)+1)
	for j := range first {
		first[j] = j
	}
	s.walk(t.root, 0, first)
	return s.keys
}

type almostSearch struct {
	collector
	target   []uint16
	distance int
	rows     [][]int
	path     []uint16
}

// row returns the scratch row for a key position; rows are reused across siblings.
func (s *almostSearch) row(depth int) []int {
	for len(s.rows) <= depth {
		s.rows = append(s.rows, make([]int, len(s.target)+1))
	}
	return s.rows[depth]
}

func (s *almostSearch) walk(n *Node, depth int, prev []int) {
	if n == nil || s.full() {
		return
	}
	s.walk(n.kids[Low], depth, prev)
	if s.full() {
		return
	}

	cur := s.row(depth)
	cur[0] = prev[0] + 1
	best := cur[0]
	for j := 1; j <= len(s.target); j++ {
		cost := 1
		if s.target[j-1] == n.splitChar {
			cost = 0
		}
		v := prev[j-1] + cost
		if del := prev[j] + 1; del < v {
			v = del
		}
		if ins := cur[j-1] + 1; ins < v {
			v = ins
		}
		cur[j] = v
		if v < best {
			best = v
		}
	}

	s.path = append(s.path[:depth], n.splitChar)
	if n.hasValue && cur[len(s.target)] <= s.distance {
		s.add(s.path)
	}
	if best <= s.distance {
		s.walk(n.kids[Equal], depth+1, cur)
	}
	s.walk(n.kids[High], depth, prev)
}
