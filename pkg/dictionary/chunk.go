package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Chunk files are named dict_0001.bin, dict_0002.bin, ... and hold
//
//	int32 LE  entry count
//	repeated: uint16 LE word length, word bytes, uint16 LE rank
//
// Rank 1 is the most frequent word; its weight is 65535.
const (
	chunkPrefix = "dict_"
	chunkSuffix = ".bin"
	maxRank     = 65536
)

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ID        int
	Filename  string
	WordCount int
}

// SizeOption is a cumulative dictionary size reachable by loading the first ChunkCount chunks.
type SizeOption struct {
	ChunkCount int
	WordCount  int
	SizeLabel  string
}

// ScanChunks lists the chunk files in dirPath sorted by ID.
func ScanChunks(dirPath string) ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(dirPath, chunkPrefix+"*"+chunkSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		id, ok := chunkID(filepath.Base(file))
		if !ok {
			continue
		}
		wordCount, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to get word count for chunk %s: %v", file, err)
			wordCount = 0
		}
		chunks = append(chunks, ChunkInfo{ID: id, Filename: file, WordCount: wordCount})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ID < chunks[j].ID
	})
	return chunks, nil
}

// chunkID extracts 1 from dict_0001.bin.
func chunkID(basename string) (int, bool) {
	if !strings.HasPrefix(basename, chunkPrefix) || !strings.HasSuffix(basename, chunkSuffix) {
		return 0, false
	}
	idStr := strings.TrimSuffix(strings.TrimPrefix(basename, chunkPrefix), chunkSuffix)
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ChunkFilename returns the canonical file name for chunk id.
func ChunkFilename(id int) string {
	return fmt.Sprintf("%s%04d%s", chunkPrefix, id, chunkSuffix)
}

// chunkWordCount reads the word count from a chunk file's header
func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return 0, err
	}
	return int(wordCount), nil
}

type chunkSource struct {
	reader    *bufio.Reader
	remaining int
	term      []byte
	weight    float32
	err       error
}

// NewChunkSource reads one chunk stream. The header is read eagerly.
func NewChunkSource(r io.Reader) (TermSource, error) {
	reader := bufio.NewReader(r)
	var totalEntries int32
	if err := binary.Read(reader, binary.LittleEndian, &totalEntries); err != nil {
		return nil, fmt.Errorf("failed to read chunk header: %w", err)
	}
	if totalEntries < 0 {
		return nil, fmt.Errorf("invalid word count in chunk header: %d", totalEntries)
	}
	return &chunkSource{reader: reader, remaining: int(totalEntries)}, nil
}

func (c *chunkSource) Next() bool {
	if c.err != nil || c.remaining == 0 {
		return false
	}

	var wordLen uint16
	if err := binary.Read(c.reader, binary.LittleEndian, &wordLen); err != nil {
		// a header count larger than the stream is tolerated
		if !errors.Is(err, io.EOF) {
			c.err = fmt.Errorf("failed to read word length: %w", err)
		}
		c.remaining = 0
		return false
	}

	if cap(c.term) < int(wordLen) {
		c.term = make([]byte, wordLen)
	}
	c.term = c.term[:wordLen]
	if _, err := io.ReadFull(c.reader, c.term); err != nil {
		c.err = fmt.Errorf("failed to read word: %w", err)
		return false
	}

	var rank uint16
	if err := binary.Read(c.reader, binary.LittleEndian, &rank); err != nil {
		c.err = fmt.Errorf("failed to read rank: %w", err)
		return false
	}
	c.weight = float32(maxRank - int(rank))
	c.remaining--
	return true
}

func (c *chunkSource) Term() []byte {
	return c.term
}

func (c *chunkSource) Weight() float32 {
	return c.weight
}

func (c *chunkSource) Err() error {
	return c.err
}

func (c *chunkSource) Sorted() bool {
	return false
}

// OpenChunks merges the first maxChunks chunk files of dirPath (all of them when
// maxChunks <= 0) into a single sorted source.
func OpenChunks(dirPath string, maxChunks int) (TermSource, error) {
	chunks, err := ScanChunks(dirPath)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunk files found in %s", dirPath)
	}
	if maxChunks > 0 && maxChunks < len(chunks) {
		chunks = chunks[:maxChunks]
	}

	sources := make([]TermSource, 0, len(chunks))
	for _, chunk := range chunks {
		file, err := os.Open(chunk.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open chunk file %s: %w", chunk.Filename, err)
		}
		// Merge drains every source before returning, so the files can close with this call.
		defer file.Close()

		src, err := NewChunkSource(file)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.ID, err)
		}
		log.Debugf("Queued chunk %d with %d words", chunk.ID, chunk.WordCount)
		sources = append(sources, src)
	}
	return Merge(sources...)
}

// SizeOptions returns the cumulative word counts reachable by loading 1..n chunks.
func SizeOptions(dirPath string) ([]SizeOption, error) {
	chunks, err := ScanChunks(dirPath)
	if err != nil {
		return nil, err
	}

	options := make([]SizeOption, 0, len(chunks))
	totalWords := 0
	for i, chunk := range chunks {
		totalWords += chunk.WordCount
		options = append(options, SizeOption{
			ChunkCount: i + 1,
			WordCount:  totalWords,
			SizeLabel:  fmt.Sprintf("%dK words", totalWords/1000),
		})
	}
	return options, nil
}

// WriteChunk writes words as a chunk stream; the first word gets rank 1.
func WriteChunk(w io.Writer, words []string) error {
	if len(words) >= maxRank {
		return fmt.Errorf("chunk holds at most %d words, got %d", maxRank-1, len(words))
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(words))); err != nil {
		return fmt.Errorf("failed to write chunk header: %w", err)
	}
	for i, word := range words {
		if len(word) > 0xFFFF {
			return fmt.Errorf("word %d is too long (%d bytes)", i, len(word))
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(word))); err != nil {
			return fmt.Errorf("failed to write word length: %w", err)
		}
		if _, err := bw.WriteString(word); err != nil {
			return fmt.Errorf("failed to write word: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(i+1)); err != nil {
			return fmt.Errorf("failed to write rank: %w", err)
		}
	}
	return bw.Flush()
}
