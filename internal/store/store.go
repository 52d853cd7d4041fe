// Package store persists self-rules and applies the merge-on-conflict policy.
//
// Backends assume a single writer. There is no locking: two processes
// upserting into the same file or database can lose each other's updates.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/selfgate/internal/model"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store defines the self-rule storage interface.
type Store interface {
	// Upsert appends the item, or merges it into the existing record with the
	// same (About, Key). The change is durable when Upsert returns.
	Upsert(ctx context.Context, item model.MemoryItem) error

	// List returns all items in insertion order.
	List(ctx context.Context) ([]model.MemoryItem, error)

	// Close closes the store.
	Close() error
}

// Open returns the named backend rooted at path. The memory backend ignores path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// Merge folds a re-occurrence into the stored record. Only the last-seen time,
// the recurrence count and the confidence/utility maxima change; identity,
// claim, kind, tags and created_at stay as first written.
func Merge(existing, incoming model.MemoryItem) model.MemoryItem {
	out := existing
	out.LastSeenAt = incoming.LastSeenAt
	rec := existing.Recurrence
	if rec < 1 {
		rec = 1
	}
	out.Recurrence = rec + 1
	out.Confidence = max(existing.Confidence, incoming.Confidence)
	out.Utility = max(existing.Utility, incoming.Utility)
	return out
}

// sameRule reports whether two items share the (About, Key) identity.
func sameRule(a, b model.MemoryItem) bool {
	return a.About == b.About && a.Key == b.Key
}

// upsertSlice applies the upsert policy to an in-memory slice.
func upsertSlice(items []model.MemoryItem, item model.MemoryItem) []model.MemoryItem {
	for i := range items {
		if sameRule(items[i], item) {
			items[i] = Merge(items[i], item)
			return items
		}
	}
	return append(items, cloneItem(item))
}

func cloneItem(it model.MemoryItem) model.MemoryItem {
	if it.Tags != nil {
		it.Tags = append([]string(nil), it.Tags...)
	}
	return it
}
