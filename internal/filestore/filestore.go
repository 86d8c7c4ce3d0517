// Package filestore keeps uploaded statements on local disk for the duration
// of one analysis.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/sources"
	"github.com/google/uuid"
)

// Store writes uploads into a single directory under collision-free names.
type Store struct {
	dir string
}

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore.New: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filestore.New: create %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Allowed reports whether filename has a supported statement extension.
func Allowed(filename string) bool {
	_, ok := sources.KindFromFilename(filename)
	return ok
}

// Save copies r into the store and returns the path of the new file and the
// detected kind. The stored name keeps the original extension so the kind
// can be detected again from the path.
func (s *Store) Save(filename string, r io.Reader) (string, sources.Kind, error) {
	kind, ok := sources.KindFromFilename(filename)
	if !ok {
		return "", "", fmt.Errorf("Save: file type not allowed: %q", filename)
	}

	path := filepath.Join(s.dir, uuid.New().String()+"_"+sanitize(filename))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", "", fmt.Errorf("Save: create %q: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("Save: write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("Save: close %q: %w", path, err)
	}
	return path, kind, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

// sanitize keeps the base name and replaces anything outside a conservative
// character set, so client-supplied names never escape the directory.
func sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
