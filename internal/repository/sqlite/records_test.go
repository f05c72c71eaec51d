package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/repository/sqlite"
)

var _ domain.Storage = (*sqlite.RecordStore)(nil)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordStore_SaveAndLoad(t *testing.T) {
	store := newTestDB(t).Records()
	ctx := context.Background()

	if err := store.Save(ctx, domain.UsersKey, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := store.Load(ctx, domain.UsersKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `[{"id":"1"}]` {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestRecordStore_SaveOverwrites(t *testing.T) {
	store := newTestDB(t).Records()
	ctx := context.Background()

	if err := store.Save(ctx, domain.SessionKey, []byte(`{"userId":"a"}`)); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := store.Save(ctx, domain.SessionKey, []byte(`{"userId":"b"}`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	data, err := store.Load(ctx, domain.SessionKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"userId":"b"}` {
		t.Fatalf("expected overwritten record, got %q", data)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %v", keys)
	}
}

func TestRecordStore_Load_NotFound(t *testing.T) {
	store := newTestDB(t).Records()

	_, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordStore_Delete(t *testing.T) {
	store := newTestDB(t).Records()
	ctx := context.Background()

	key := domain.TransactionsKey("user-1")
	if err := store.Save(ctx, key, []byte("[]")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestRecordStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "profile.db")
	ctx := context.Background()

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := db.Records().Save(ctx, domain.UsersKey, []byte("[1]")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	db.Close()

	reopened, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Migrate(ctx); err != nil {
		t.Fatalf("Migrate after reopen: %v", err)
	}

	data, err := reopened.Records().Load(ctx, domain.UsersKey)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if string(data) != "[1]" {
		t.Fatalf("unexpected data %q", data)
	}
}
