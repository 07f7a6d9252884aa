// Package dictionary provides the term sources the suggester is built from.
//
// A TermSource is a one-shot iterator over (term, weight) pairs in the shape of
// bufio.Scanner. Sources also report whether they yield terms in sorted order,
// since inserting sorted keys into a ternary search trie degenerates it into a list.
package dictionary

import "fmt"

// TermSource yields raw UTF-8 terms with their weights.
type TermSource interface {
	// Next advances to the next pair and reports whether there is one.
	Next() bool
	// Term returns the current term. The slice may be reused by the next call to Next.
	Term() []byte
	// Weight returns the current weight.
	Weight() float32
	// Err returns the first error met while reading, if any.
	Err() error
	// Sorted reports whether terms come out in byte order.
	Sorted() bool
}

// Entry is a single term with its weight.
type Entry struct {
	Term   string
	Weight float32
}

type sliceSource struct {
	entries []Entry
	pos     int
	sorted  bool
}

// NewSliceSource iterates entries in the given order. sorted is reported as is.
func NewSliceSource(entries []Entry, sorted bool) TermSource {
	return &sliceSource{entries: entries, pos: -1, sorted: sorted}
}

func (s *sliceSource) Next() bool {
	if s.pos+1 >= len(s.entries) {
		s.pos = len(s.entries)
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Term() []byte {
	return []byte(s.entries[s.pos].Term)
}

func (s *sliceSource) Weight() float32 {
	return s.entries[s.pos].Weight
}

func (s *sliceSource) Err() error {
	return nil
}

func (s *sliceSource) Sorted() bool {
	return s.sorted
}

// Drain reads every remaining pair from src into memory.
func Drain(src TermSource) ([]Entry, error) {
	var entries []Entry
	for src.Next() {
		entries = append(entries, Entry{Term: string(src.Term()), Weight: src.Weight()})
	}
	if err := src.Err(); err != nil {
		return entries, fmt.Errorf("reading terms: %w", err)
	}
	return entries, nil
}
