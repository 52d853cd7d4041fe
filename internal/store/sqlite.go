package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rcliao/selfgate/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS self_rules (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		id           TEXT NOT NULL,
		about        TEXT NOT NULL,
		key          TEXT NOT NULL,
		kind         TEXT NOT NULL,
		claim        TEXT NOT NULL,
		confidence   REAL NOT NULL,
		utility      REAL NOT NULL,
		created_at   TEXT NOT NULL,
		last_seen_at TEXT NOT NULL,
		recurrence   INTEGER NOT NULL DEFAULT 1,
		tags         TEXT NOT NULL DEFAULT '[]',
		UNIQUE (about, key)
	);
	CREATE INDEX IF NOT EXISTS idx_self_rules_kind ON self_rules(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Upsert(ctx context.Context, item model.MemoryItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, about, key, kind, claim, confidence, utility, created_at, last_seen_at, recurrence, tags
		 FROM self_rules WHERE about = ? AND key = ?`, item.About, item.Key)
	existing, err := scanItem(row)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		tags, err := encodeTags(item.Tags)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO self_rules (id, about, key, kind, claim, confidence, utility, created_at, last_seen_at, recurrence, tags)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.About, item.Key, string(item.Kind), item.Claim, item.Confidence, item.Utility,
			item.CreatedAt, item.LastSeenAt, item.Recurrence, tags)
		if err != nil {
			return fmt.Errorf("insert rule: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup rule: %w", err)
	default:
		merged := Merge(existing, item)
		_, err = tx.ExecContext(ctx,
			`UPDATE self_rules SET last_seen_at = ?, recurrence = ?, confidence = ?, utility = ?
			 WHERE about = ? AND key = ?`,
			merged.LastSeenAt, merged.Recurrence, merged.Confidence, merged.Utility, item.About, item.Key)
		if err != nil {
			return fmt.Errorf("update rule: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.MemoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, about, key, kind, claim, confidence, utility, created_at, last_seen_at, recurrence, tags
		 FROM self_rules ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.MemoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row scanner) (model.MemoryItem, error) {
	var it model.MemoryItem
	var kind, tagsJSON string

	err := row.Scan(
		&it.ID, &it.About, &it.Key, &kind, &it.Claim, &it.Confidence, &it.Utility,
		&it.CreatedAt, &it.LastSeenAt, &it.Recurrence, &tagsJSON,
	)
	if err != nil {
		return it, err
	}
	it.Kind = model.Kind(kind)
	if err := json.Unmarshal([]byte(tagsJSON), &it.Tags); err != nil {
		return it, fmt.Errorf("decode tags for %s/%s: %w", it.About, it.Key, err)
	}
	return it, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}
