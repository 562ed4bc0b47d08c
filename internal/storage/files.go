package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aria-lang/cuba-go/internal/fmindex"
	"github.com/aria-lang/cuba-go/internal/sequence"
)

// Extension returns the conventional file extension of an index kind.
func Extension(kind fmindex.Kind) string {
	if kind == fmindex.Bidirectional {
		return ".bifmi"
	}
	return ".fmi"
}

// KindOf returns the index kind named by the extension of path.
func KindOf(path string) (fmindex.Kind, error) {
	kind, err := fmindex.ParseKind(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return 0, &ExtensionError{Path: path, Want: ".fmi or .bifmi"}
	}
	return kind, nil
}

// FixExtension replaces the extension of path with the one of kind. It
// reports whether the path changed.
func FixExtension(path string, kind fmindex.Kind) (string, bool) {
	want := Extension(kind)
	ext := filepath.Ext(path)
	if ext == want {
		return path, false
	}
	return strings.TrimSuffix(path, ext) + want, true
}

// CheckExtension rejects an index path whose extension does not match kind.
func CheckExtension(path string, kind fmindex.Kind) error {
	if want := Extension(kind); filepath.Ext(path) != want {
		return &ExtensionError{Path: path, Want: want}
	}
	return nil
}

// SaveIndex writes idx to path.
func SaveIndex(path string, idx fmindex.Index) error {
	return writeFile(path, func(w *bufio.Writer) error { return WriteIndex(w, idx) })
}

// LoadIndex reads an index from path.
func LoadIndex(path string) (fmindex.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	idx, err := ReadIndex(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// SaveCollection writes coll to path.
func SaveCollection(path string, coll *sequence.Collection) error {
	return writeFile(path, func(w *bufio.Writer) error { return WriteCollection(w, coll) })
}

// LoadCollection reads a sequence collection from path.
func LoadCollection(path string) (*sequence.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	coll, err := ReadCollection(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return coll, nil
}

func writeFile(path string, write func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
