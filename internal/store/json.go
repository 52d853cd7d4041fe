package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/selfgate/internal/model"
)

// DefaultJSONPath returns the rule file location under a root directory.
func DefaultJSONPath(root string) string {
	return filepath.Join(root, "data", "self_memory.json")
}

// JSONStore implements Store as a single JSON document on disk. Every
// Upsert is a full load-modify-save.
type JSONStore struct {
	path string
}

// NewJSONStore opens or creates the JSON document at path.
func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &JSONStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(&Document{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) Upsert(_ context.Context, item model.MemoryItem) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Items = upsertSlice(doc.Items, item)
	return s.save(doc)
}

func (s *JSONStore) List(_ context.Context) ([]model.MemoryItem, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (s *JSONStore) Close() error { return nil }

// load reads the document. A missing or blank file is an empty document.
func (s *JSONStore) load() (*Document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return &Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", s.path, err)
	}
	return &doc, nil
}

// save writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written document.
func (s *JSONStore) save(doc *Document) error {
	b, err := doc.Encode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".self_memory-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
