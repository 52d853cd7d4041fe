package store

import (
	"context"

	"github.com/rcliao/selfgate/internal/model"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	items []model.MemoryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Upsert(_ context.Context, item model.MemoryItem) error {
	s.items = upsertSlice(s.items, item)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.MemoryItem, error) {
	out := make([]model.MemoryItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, cloneItem(it))
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
