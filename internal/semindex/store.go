package semindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports a cache miss for an index key.
var ErrNotFound = errors.New("semantic index not found")

// Store persists indexes content-addressed by fingerprint key.
type Store interface {
	Save(key string, ix *Index) error
	Load(key string) (*Index, error)
	Exists(key string) bool
	Delete(key string) error
}

type fsStore struct {
	dir string
}

// NewFSStore keeps one JSON file per index key under dir.
func NewFSStore(dir string) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("index cache dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index cache dir: %w", err)
	}
	return &fsStore{dir: dir}, nil
}

func (s *fsStore) path(key string) string {
	// Keys are hex fingerprints; Base guards against traversal anyway.
	return filepath.Join(s.dir, filepath.Base(key)+".json")
}

// Save writes to a temp file and renames it into place, so a concurrent
// builder that loses the build race overwrites with identical content rather
// than corrupting a half-written index.
func (s *fsStore) Save(key string, ix *Index) error {
	raw, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func (s *fsStore) Load(key string) (*Index, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	var ix Index
	if err := json.Unmarshal(raw, &ix); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &ix, nil
}

func (s *fsStore) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

func (s *fsStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}
