// Package memory holds in-memory store implementations for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/camillebr/photosite/internal/content"
)

// BlobStore keeps blobs in a map and hands out memory:// URLs.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBlobStore creates an empty in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{data: make(map[string][]byte)}
}

// Put stores a copy of data under path, honoring the overwrite flag.
func (s *BlobStore) Put(_ context.Context, path string, data []byte, _ string, overwrite bool) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is required", content.ErrStore)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[path]; exists && !overwrite {
		return fmt.Errorf("%w: %s", content.ErrConflict, path)
	}
	s.data[path] = append([]byte(nil), data...)
	return nil
}

// List returns stored paths under prefix in lexical order, up to limit.
func (s *BlobStore) List(_ context.Context, prefix string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for path := range s.data {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

// Remove deletes the given blobs; missing paths are ignored.
func (s *BlobStore) Remove(_ context.Context, paths []string) error {
	if len(paths) > content.MaxRemoveBatch {
		return fmt.Errorf("%w: remove batch of %d exceeds %d", content.ErrStore, len(paths), content.MaxRemoveBatch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range paths {
		delete(s.data, path)
	}
	return nil
}

// PublicURL returns a pseudo URL for the path.
func (s *BlobStore) PublicURL(path string) string {
	return fmt.Sprintf("memory://%s", path)
}

// Get returns the stored bytes for path, for test assertions.
func (s *BlobStore) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports the number of stored blobs.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
