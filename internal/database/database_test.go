package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := New(ctx, DriverSQLite, ":memory:", Options{Attempts: 1, Backoff: time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), "mysql", "x", DefaultOptions); err == nil {
		t.Errorf("expected error for unknown driver")
	}
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.Load(ctx, "flok-db-v1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := db.Save(ctx, "flok-db-v1", []byte(`{"version":4}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := db.Save(ctx, "flok-db-v1", []byte(`{"version":4,"users":{}}`)); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := db.Load(ctx, "flok-db-v1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != `{"version":4,"users":{}}` {
		t.Errorf("expected latest document, got %s", got)
	}

	var rows int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&rows); err != nil || rows != 1 {
		t.Errorf("expected a single row, got %d (%v)", rows, err)
	}
	if _, err := db.UpdatedAt(ctx, "flok-db-v1"); err != nil {
		t.Errorf("UpdatedAt() error = %v", err)
	}
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := store.Open(ctx, db, "")
	if s.Current() == nil {
		t.Fatal("expected a document")
	}
	if _, err := db.Load(ctx, "flok-db-v1"); err != nil {
		t.Errorf("expected the empty document to be persisted, got %v", err)
	}
	if st := s.Status(ctx); !st.Loaded || st.SavedAt == nil {
		t.Errorf("expected a loaded store with a save time, got %+v", st)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	if got := pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"); got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &DB{driver: DriverSQLite}
	if got := lite.rebind("x = ?"); got != "x = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
