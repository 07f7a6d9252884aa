package suggest

import "container/heap"

// resultQueue keeps the capacity heaviest suggestions seen so far.
// The lightest kept suggestion sits at items[0].
type resultQueue struct {
	items    []Suggestion
	capacity int
}

func newResultQueue(capacity int) *resultQueue {
	return &resultQueue{
		items:    make([]Suggestion, 0, capacity),
		capacity: capacity,
	}
}

func (q *resultQueue) Len() int { return len(q.items) }

func (q *resultQueue) Less(i, j int) bool { return q.items[i].Weight < q.items[j].Weight }

func (q *resultQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *resultQueue) Push(x any) {
	q.items = append(q.items, x.(Suggestion))
}

func (q *resultQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// insertWithOverflow adds s while there is room. Once full, s replaces the
// lightest entry only if it is strictly heavier.
func (q *resultQueue) insertWithOverflow(s Suggestion) {
	if q.capacity <= 0 {
		return
	}
	if len(q.items) < q.capacity {
		heap.Push(q, s)
		return
	}
	if s.Weight <= q.items[0].Weight {
		return
	}
	q.items[0] = s
	heap.Fix(q, 0)
}

// results drains the queue, heaviest first.
func (q *resultQueue) results() []Suggestion {
	out := make([]Suggestion, len(q.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(q).(Suggestion)
	}
	return out
}
