package dictionary

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func terms(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Term
	}
	return out
}

func TestSliceSource(t *testing.T) {
	entries := []Entry{{"b", 2}, {"a", 1}}
	src := NewSliceSource(entries, false)

	got, err := Drain(src)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("got %v, want %v", got, entries)
	}
	if src.Next() {
		t.Error("exhausted source should stay exhausted")
	}
	if src.Sorted() {
		t.Error("expected unsorted flag")
	}
}

func TestUnsortedKeepsEveryEntry(t *testing.T) {
	var entries []Entry
	for i := 0; i < 200; i++ {
		entries = append(entries, Entry{Term: ChunkFilename(i), Weight: float32(i)})
	}

	src, err := UnsortedWithRand(NewSliceSource(entries, true), rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("UnsortedWithRand failed: %v", err)
	}
	if src.Sorted() {
		t.Error("wrapped source must not report sorted")
	}

	got, _ := Drain(src)
	if len(got) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(got))
	}
	gotTerms := terms(got)
	if sort.StringsAreSorted(gotTerms) {
		t.Error("shuffled output should not be in sorted order")
	}
	sort.Strings(gotTerms)
	if !reflect.DeepEqual(gotTerms, terms(entries)) {
		t.Error("shuffle lost or duplicated entries")
	}
}

type failingSource struct {
	sliceSource
	err error
}

func (f *failingSource) Err() error { return f.err }

func TestUnsortedPropagatesErrors(t *testing.T) {
	boom := errors.New("disk gone")
	src := &failingSource{sliceSource: sliceSource{pos: -1, sorted: true}, err: boom}

	if _, err := Unsorted(src); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	first := NewSliceSource([]Entry{{"pear", 1}, {"apple", 2}, {"", 9}}, false)
	second := NewSliceSource([]Entry{{"banana", 3}, {"apple", 5}}, false)

	src, err := Merge(first, second)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !src.Sorted() {
		t.Error("merged source should report sorted")
	}

	got, _ := Drain(src)
	want := []Entry{{"apple", 5}, {"banana", 3}, {"pear", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTextSource(t *testing.T) {
	input := `# comment
hello 10
world	2.5

lonely
`
	got, err := Drain(NewTextSource(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Entry{{"hello", 10}, {"world", 2.5}, {"lonely", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTextSourceBadWeight(t *testing.T) {
	src := NewTextSource(strings.NewReader("ok 1\nbad x1\nnever 3\n"))
	got, err := Drain(src)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected entries before the bad line, got %v", got)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	words := []string{"the", "of", "and", "héllo"}
	if err := WriteChunk(&buf, words); err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}

	src, err := NewChunkSource(&buf)
	if err != nil {
		t.Fatalf("NewChunkSource failed: %v", err)
	}
	got, err := Drain(src)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	want := []Entry{{"the", 65535}, {"of", 65534}, {"and", 65533}, {"héllo", 65532}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestChunkTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChunk(&buf, []string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()-3]

	src, err := NewChunkSource(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("header should still be readable: %v", err)
	}
	if _, err := Drain(src); err == nil {
		t.Error("expected an error for a word cut in half")
	}

	if _, err := NewChunkSource(bytes.NewReader([]byte{1, 0})); err == nil {
		t.Error("expected an error for a short header")
	}
}

func writeChunkFile(t *testing.T, dir string, id int, words []string) {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteChunk(&buf, words); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ChunkFilename(id)), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanAndOpenChunks(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 2, []string{"zulu", "yankee"})
	writeChunkFile(t, dir, 1, []string{"alpha", "bravo", "charlie"})
	if err := os.WriteFile(filepath.Join(dir, "dict_bad.bin"), []byte{0, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}

	chunks, err := ScanChunks(dir)
	if err != nil {
		t.Fatalf("ScanChunks failed: %v", err)
	}
	if len(chunks) != 2 || chunks[0].ID != 1 || chunks[1].ID != 2 {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
	if chunks[0].WordCount != 3 {
		t.Errorf("expected 3 words in chunk 1, got %d", chunks[0].WordCount)
	}

	src, err := OpenChunks(dir, 1)
	if err != nil {
		t.Fatalf("OpenChunks failed: %v", err)
	}
	got, _ := Drain(src)
	if !reflect.DeepEqual(terms(got), []string{"alpha", "bravo", "charlie"}) {
		t.Errorf("first chunk only: got %v", got)
	}

	src, err = OpenChunks(dir, 0)
	if err != nil {
		t.Fatalf("OpenChunks failed: %v", err)
	}
	got, _ = Drain(src)
	if !reflect.DeepEqual(terms(got), []string{"alpha", "bravo", "charlie", "yankee", "zulu"}) {
		t.Errorf("all chunks: got %v", got)
	}

	options, err := SizeOptions(dir)
	if err != nil {
		t.Fatalf("SizeOptions failed: %v", err)
	}
	if len(options) != 2 || options[1].WordCount != 5 || options[1].ChunkCount != 2 {
		t.Errorf("unexpected size options %+v", options)
	}

	if _, err := OpenChunks(t.TempDir(), 0); err == nil {
		t.Error("expected an error for a directory without chunks")
	}
}

func TestDetectAndOpenFile(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, []string{"one"})
	textPath := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(textPath, []byte("two 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	datPath := filepath.Join(dir, "jaspell.dat")
	if err := os.WriteFile(datPath, []byte{0, 'a', 0x08, 0, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		path string
		want FileFormat
	}{
		{filepath.Join(dir, ChunkFilename(1)), FormatChunk},
		{textPath, FormatText},
		{datPath, FormatTrie},
	}
	for _, tc := range testCases {
		got, err := DetectFileFormat(tc.path)
		if err != nil || got != tc.want {
			t.Errorf("DetectFileFormat(%s) = %v, %v; want %v", tc.path, got, err, tc.want)
		}
	}

	src, closer, err := OpenFile(textPath)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	got, _ := Drain(src)
	closer.Close()
	if !reflect.DeepEqual(got, []Entry{{"two", 2}}) {
		t.Errorf("unexpected text entries %v", got)
	}

	if _, _, err := OpenFile(datPath); err == nil {
		t.Error("persisted trie should not open as a term source")
	}
	if _, err := DetectFileFormat(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1, []string{"bravo", "alpha"})
	if err := os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("charlie 3\nalpha 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := OpenDir(dir, 0)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	got, _ := Drain(src)
	want := []Entry{{"alpha", 7}, {"bravo", 65535}, {"charlie", 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := OpenDir(t.TempDir(), 0); err == nil {
		t.Error("expected an error for an empty directory")
	}
}
