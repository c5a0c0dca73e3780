package summary

import (
	"context"
	"sync"

	"countryatlas/pkg/platform/sentinel"
)

// ArtifactStore holds the most recent rendered summary image.
type ArtifactStore interface {
	// Save replaces the current artifact.
	Save(ctx context.Context, data []byte) error
	// Latest returns the current artifact, or sentinel.ErrNotFound if no
	// refresh has rendered one yet.
	Latest(ctx context.Context) ([]byte, error)
}

// MemoryStore keeps the artifact in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStore constructs an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Latest(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}
