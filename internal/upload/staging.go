package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Staging is the transient on-disk area holding a chunk's bytes between
// receipt from the client and forwarding to the object store. Chunks live
// under <root>/<sessionKey>/<chunkIndex>.part. A crash between staging and
// forwarding leaves an orphan; the janitor reclaims those, not Staging.
type Staging struct {
	root string
}

func NewStaging(root string) (*Staging, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create root: %w", err)
	}
	return &Staging{root: root}, nil
}

func (s *Staging) Root() string { return s.root }

// Stage writes a chunk body to disk and returns its path. A retried write
// for the same index overwrites; chunk content for an index is assumed
// identical across retries.
func (s *Staging) Stage(sessionKey string, chunkIndex int, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, sessionKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("staging: create session dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.part", chunkIndex))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("staging: create chunk file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("staging: write chunk: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("staging: close chunk: %w", err)
	}
	return path, nil
}

// Open returns a reader over a staged chunk.
func (s *Staging) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Unstage removes one staged chunk file.
func (s *Staging) Unstage(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveSession deletes a whole session directory.
func (s *Staging) RemoveSession(sessionKey string) error {
	return os.RemoveAll(filepath.Join(s.root, sessionKey))
}

// Sessions lists session directory names currently present under root.
func (s *Staging) Sessions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Sweep removes session directories whose mtime is older than maxAge and
// returns how many were removed. Active uploads refresh mtime with every
// chunk write, so only idle sessions age out.
func (s *Staging) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
