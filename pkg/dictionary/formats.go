package dictionary

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents different dictionary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatTrie               // Persisted ternary search trie (jaspell.dat)
	FormatChunk              // Chunked binary format
	FormatText               // Plain text format
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatTrie: {
		Format:      FormatTrie,
		Description: "Binary Ternary Search Trie",
		Extensions:  []string{".dat"},
		MinSize:     3, // split char + mask of the root
	},
	FormatChunk: {
		Format:      FormatChunk,
		Description: "Chunked Binary Dictionary",
		Extensions:  []string{".bin"},
		MinSize:     4, // At least word count header
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Dictionary",
		Extensions:  []string{".txt"},
		MinSize:     1, // At least one character
	},
}

// maxChunkWords is a sanity bound on chunk headers.
const maxChunkWords = 1000000

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	if expectedFormat == FormatChunk {
		return validateChunkFormat(filename)
	}
	return nil
}

// validateChunkFormat checks the chunk header is readable and sane.
func validateChunkFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if wordCount < 0 {
		return fmt.Errorf("invalid word count in %s: %d (negative)", filename, wordCount)
	}
	if wordCount > maxChunkWords {
		return fmt.Errorf("suspicious word count in %s: %d (too large)", filename, wordCount)
	}

	log.Debugf("Binary file %s validated: %d words", filename, wordCount)
	return nil
}

// DetectFileFormat attempts to detect the format of a file
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	basename := strings.ToLower(filepath.Base(filename))

	candidates := map[string]FileFormat{".dat": FormatTrie, ".txt": FormatText}
	if strings.HasPrefix(basename, chunkPrefix) {
		candidates[chunkSuffix] = FormatChunk
	}

	if format, ok := candidates[ext]; ok {
		if err := ValidateFileFormat(filename, format); err == nil {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// OpenFile opens a chunk or text dictionary as a term source. The returned closer
// releases the underlying file. Persisted tries are not term sources.
func OpenFile(filename string) (TermSource, io.Closer, error) {
	format, err := DetectFileFormat(filename)
	if err != nil {
		return nil, nil, err
	}
	if format == FormatTrie {
		return nil, nil, fmt.Errorf("%s is a persisted trie, load it instead of building from it", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}

	switch format {
	case FormatChunk:
		src, err := NewChunkSource(file)
		if err != nil {
			file.Close()
			return nil, nil, fmt.Errorf("%s: %w", filename, err)
		}
		return src, file, nil
	default:
		return NewTextSource(file), file, nil
	}
}

// OpenDir merges every dictionary in dir: the first maxChunks chunk files (all
// when maxChunks <= 0) and every .txt file. The result is sorted.
func OpenDir(dir string, maxChunks int) (TermSource, error) {
	var sources []TermSource

	chunks, err := ScanChunks(dir)
	if err != nil {
		return nil, err
	}
	if len(chunks) > 0 {
		src, err := OpenChunks(dir, maxChunks)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	texts, err := filepath.Glob(filepath.Join(dir, "*"+supportedFormats[FormatText].Extensions[0]))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for text dictionaries: %w", err)
	}
	for _, path := range texts {
		src, closer, err := OpenFile(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			continue
		}
		// Merge drains the sources before returning.
		defer closer.Close()
		sources = append(sources, src)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no dictionaries found in %s", dir)
	}
	if len(sources) == 1 && len(chunks) > 0 {
		return sources[0], nil
	}
	return Merge(sources...)
}
