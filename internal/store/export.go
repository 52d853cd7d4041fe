package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rcliao/selfgate/internal/model"
)

// Document is the persisted layout shared by the JSON backend, export and import.
type Document struct {
	Items []model.MemoryItem `json:"items"`
}

// Encode renders the document with two-space indentation and without HTML
// escaping. Nil slices are written as empty arrays.
func (d *Document) Encode() ([]byte, error) {
	out := Document{Items: make([]model.MemoryItem, 0, len(d.Items))}
	for _, it := range d.Items {
		if it.Tags == nil {
			it.Tags = []string{}
		}
		out.Items = append(out.Items, it)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode store: %w", err)
	}
	return buf.Bytes(), nil
}

// Export returns every item of s as a Document.
func Export(ctx context.Context, s Store) (*Document, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &Document{Items: items}, nil
}

// Import upserts the document's items in order, so duplicates merge exactly
// as they would during training. Returns the number of items applied.
func Import(ctx context.Context, s Store, doc *Document) (int, error) {
	imported := 0
	for _, it := range doc.Items {
		if err := s.Upsert(ctx, it); err != nil {
			return imported, fmt.Errorf("import %s/%s: %w", it.About, it.Key, err)
		}
		imported++
	}
	return imported, nil
}
