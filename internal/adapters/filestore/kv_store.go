// Package filestore keeps the durable auth keys in a single JSON file.
// It is the default backend for a single dashboard process.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
)

var _ ports.KeyValueStore = (*KVStore)(nil)

// KVStore persists a flat string map as JSON. Every write replaces the file
// through a rename, so readers see either the old or the new triple.
type KVStore struct {
	path string
	mu   sync.Mutex
}

// NewKVStore returns a store backed by path. The file is created on first write.
func NewKVStore(path string) (*KVStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.Validation("state file path is required")
	}
	return &KVStore{path: path}, nil
}

// Path returns the backing file path.
func (s *KVStore) Path() string { return s.path }

func (s *KVStore) GetMany(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *KVStore) SetMany(_ context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return err
	}
	for k, v := range values {
		all[k] = v
	}
	return s.persistLocked(all)
}

func (s *KVStore) DeleteMany(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadLocked()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := all[k]; ok {
			delete(all, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persistLocked(all)
}

func (s *KVStore) loadLocked() (map[string]string, error) {
	out := make(map[string]string)

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "read state file")
	}
	if len(b) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(b, &out); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "decode state file")
	}
	return out, nil
}

func (s *KVStore) persistLocked(all map[string]string) error {
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode state file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "mkdir state dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "create temp state file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		cleanupTemp(tmp, tmpName)
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "write state file")
	}
	if err := tmp.Sync(); err != nil {
		cleanupTemp(tmp, tmpName)
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "sync state file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "close state file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, fmt.Sprintf("replace %s", s.path))
	}
	return nil
}

func cleanupTemp(f *os.File, name string) {
	_ = f.Close()
	_ = os.Remove(name)
}
