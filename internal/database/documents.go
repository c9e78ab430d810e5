package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AlexTLDR/flok/internal/store"
)

// Load returns the document stored under key.
func (db *DB) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := db.QueryRowContext(ctx,
		db.rebind(`SELECT data FROM documents WHERE doc_key = ?`),
		key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return []byte(data), nil
}

// Save writes the whole document under key, replacing any previous one.
func (db *DB) Save(ctx context.Context, key string, data []byte) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		db.rebind(`INSERT INTO documents (doc_key, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (doc_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`),
		key, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// UpdatedAt reports when the document under key was last written.
func (db *DB) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var at time.Time
	err := db.QueryRowContext(ctx,
		db.rebind(`SELECT updated_at FROM documents WHERE doc_key = ?`),
		key,
	).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, store.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read document timestamp: %w", err)
	}
	return at, nil
}
