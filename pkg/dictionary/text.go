package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// textSource reads "term weight" lines. The weight is optional and defaults to 1.
// Blank lines and lines starting with '#' are skipped.
type textSource struct {
	scanner *bufio.Scanner
	line    int
	term    []byte
	weight  float32
	err     error
}

// NewTextSource reads a plain text frequency list.
func NewTextSource(r io.Reader) TermSource {
	return &textSource{scanner: bufio.NewScanner(r)}
}

func (t *textSource) Next() bool {
	if t.err != nil {
		return false
	}
	for t.scanner.Scan() {
		t.line++
		line := strings.TrimSpace(t.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		t.term = append(t.term[:0], fields[0]...)
		t.weight = 1
		if len(fields) > 1 {
			w, err := strconv.ParseFloat(fields[1], 32)
			if err != nil {
				t.err = fmt.Errorf("line %d: invalid weight %q: %w", t.line, fields[1], err)
				return false
			}
			t.weight = float32(w)
		}
		return true
	}
	if err := t.scanner.Err(); err != nil {
		t.err = fmt.Errorf("scanning text dictionary: %w", err)
	}
	return false
}

func (t *textSource) Term() []byte {
	return t.term
}

func (t *textSource) Weight() float32 {
	return t.weight
}

func (t *textSource) Err() error {
	return t.err
}

func (t *textSource) Sorted() bool {
	return false
}
