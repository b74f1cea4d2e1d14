// Package media stores binary research artifacts (scans, photographs)
// under content-addressed paths. The path is derived from the SHA-256 of
// the file bytes, sharded two levels deep, so writing the same bytes
// twice is a no-op that returns the existing path.
package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is a content-addressed file store rooted at a directory.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: root}, nil
}

// PathFor returns the sharded path for a digest without touching disk:
// root/ab/cd/<digest><ext>.
func (s *Store) PathFor(digest, ext string) string {
	return filepath.Join(s.root, digest[:2], digest[2:4], digest+ext)
}

// Put stores the bytes from r and returns the content-addressed path.
// created=false means identical bytes were already stored and no write
// happened. The write is crash-consistent: bytes stream into a temp
// file in the same directory, are flushed, then atomically renamed into
// place, so a reader never observes a partial artifact.
func (s *Store) Put(r io.Reader, ext string) (path string, created bool, err error) {
	// Stream through a temp file while hashing; the final path is not
	// known until all bytes are read.
	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return "", false, fmt.Errorf("media put: temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	if _, err = io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		return "", false, fmt.Errorf("media put: copy: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return "", false, fmt.Errorf("media put: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", false, fmt.Errorf("media put: close: %w", err)
	}

	digest := hex.EncodeToString(h.Sum(nil))
	path = s.PathFor(digest, ext)

	if _, statErr := os.Stat(path); statErr == nil {
		os.Remove(tmpName)
		return path, false, nil
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("media put: shard dir: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return "", false, fmt.Errorf("media put: publish: %w", err)
	}
	return path, true, nil
}

// Open returns a reader over a stored artifact by digest and extension.
func (s *Store) Open(digest, ext string) (io.ReadCloser, error) {
	f, err := os.Open(s.PathFor(digest, ext))
	if err != nil {
		return nil, fmt.Errorf("media open %s: %w", digest, err)
	}
	return f, nil
}
