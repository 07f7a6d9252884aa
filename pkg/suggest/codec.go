package suggest

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/bastiangx/tstserve/pkg/tst"
	"github.com/charmbracelet/log"
)

// FileName is the name of the persisted trie inside a store directory.
const FileName = "jaspell.dat"

// Each node is written in pre-order as a big-endian uint16 split char and a
// mask byte, followed by a big-endian float32 weight when maskValue is set,
// then its low, equal and high subtrees when their bits are set.
const (
	maskLow   byte = 0x01
	maskEqual byte = 0x02
	maskHigh  byte = 0x04
	maskValue byte = 0x08

	maskAll = maskLow | maskEqual | maskHigh | maskValue
)

var kidMasks = [...]struct {
	kid  tst.Kid
	mask byte
}{
	{tst.Low, maskLow},
	{tst.Equal, maskEqual},
	{tst.High, maskHigh},
}

// WriteTrie serializes the subtree at root to w. A nil root writes nothing.
func WriteTrie(w io.Writer, root *tst.Node) error {
	if root == nil {
		return nil
	}
	bw := bufio.NewWriter(w)
	if err := writeNode(bw, root); err != nil {
		return fmt.Errorf("writing trie: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing trie: %w", err)
	}
	return nil
}

func writeNode(w *bufio.Writer, n *tst.Node) error {
	var rec [7]byte
	binary.BigEndian.PutUint16(rec[0:2], n.SplitChar())

	var mask byte
	for _, km := range kidMasks {
		if n.Child(km.kid) != nil {
			mask |= km.mask
		}
	}
	size := 3
	if v, ok := n.Value(); ok {
		mask |= maskValue
		binary.BigEndian.PutUint32(rec[3:7], math.Float32bits(v))
		size = 7
	}
	rec[2] = mask

	if _, err := w.Write(rec[:size]); err != nil {
		return err
	}
	for _, km := range kidMasks {
		if kid := n.Child(km.kid); kid != nil {
			if err := writeNode(w, kid); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadTrie decodes one serialized trie from r. Truncated input, unknown mask
// bits and nodes holding neither a value nor children return errors wrapping
// ErrCorrupt.
func ReadTrie(r io.Reader) (*tst.Node, error) {
	br := bufio.NewReader(r)
	root := tst.NewNode(0)
	if err := readNode(br, root); err != nil {
		return nil, err
	}
	return root, nil
}

func readNode(r *bufio.Reader, n *tst.Node) error {
	var rec [4]byte
	if _, err := io.ReadFull(r, rec[:3]); err != nil {
		return readError(err)
	}
	n.SetSplitChar(binary.BigEndian.Uint16(rec[0:2]))
	mask := rec[2]
	if mask&^maskAll != 0 {
		return fmt.Errorf("%w: unknown mask bits %#02x", ErrCorrupt, mask)
	}
	if mask == 0 {
		return fmt.Errorf("%w: empty node %#04x", ErrCorrupt, n.SplitChar())
	}

	if mask&maskValue != 0 {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return readError(err)
		}
		n.SetValue(math.Float32frombits(binary.BigEndian.Uint32(rec[:])))
	}

	for _, km := range kidMasks {
		if mask&km.mask == 0 {
			continue
		}
		kid := tst.NewNode(0)
		n.SetChild(km.kid, kid)
		if err := readNode(r, kid); err != nil {
			return err
		}
	}
	return nil
}

func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("reading trie: %w", err)
}

// Store writes the current trie to w and closes it. It reports false without
// writing anything when the trie has no root or the root holds nothing.
func (l *Lookup) Store(w io.WriteCloser) (ok bool, err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			ok, err = false, fmt.Errorf("closing trie stream: %w", cerr)
		}
		l.observePersistence("store", persistenceStatus(ok, err))
	}()

	l.mu.RLock()
	defer l.mu.RUnlock()
	root := l.trie.Root()
	if root == nil || root.Empty() {
		return false, nil
	}
	if err := WriteTrie(w, root); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads a trie from r, closes r, and publishes the result. On error the
// current trie is kept.
func (l *Lookup) Load(r io.ReadCloser) (ok bool, err error) {
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			ok, err = false, fmt.Errorf("closing trie stream: %w", cerr)
		}
		l.observePersistence("load", persistenceStatus(ok, err))
	}()

	root, err := ReadTrie(r)
	if err != nil {
		return false, err
	}
	trie := l.newTrie()
	trie.SetRoot(root)
	l.publish(trie)
	return true, nil
}

// StoreDir writes the trie to dir/jaspell.dat. A missing or unwritable
// directory, or an empty trie, reports false with a nil error.
func (l *Lookup) StoreDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Debugf("Store directory %s unavailable", dir)
		l.observePersistence("store", "unavailable")
		return false, nil
	}
	if l.empty() {
		l.observePersistence("store", "unavailable")
		return false, nil
	}

	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			log.Debugf("Store directory %s is not writable", dir)
			l.observePersistence("store", "unavailable")
			return false, nil
		}
		l.observePersistence("store", "error")
		return false, fmt.Errorf("creating %s: %w", path, err)
	}
	log.Debugf("Storing trie to %s", path)
	return l.Store(f)
}

// LoadDir reads dir/jaspell.dat. A missing or unreadable file reports false
// with a nil error.
func (l *Lookup) LoadDir(dir string) (bool, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			log.Debugf("No persisted trie at %s", path)
			l.observePersistence("load", "unavailable")
			return false, nil
		}
		l.observePersistence("load", "error")
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	ok, err := l.Load(f)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return ok, nil
}

func persistenceStatus(ok bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case ok:
		return "ok"
	default:
		return "unavailable"
	}
}
