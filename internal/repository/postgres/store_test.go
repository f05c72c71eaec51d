package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/repository/postgres"
)

// TestStoreIntegration exercises the record store against a live database.
func TestStoreIntegration(t *testing.T) {
	dbURL := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("set LEDGER_TEST_DATABASE_URL to run this integration test")
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	key := fmt.Sprintf("test/%d", time.Now().UnixNano())
	t.Cleanup(func() { store.Delete(context.Background(), key) })

	if _, err := store.Load(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}
	if err := store.Save(ctx, key, []byte("[]")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, key, []byte(`[{"id":"x"}]`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	data, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `[{"id":"x"}]` {
		t.Fatalf("unexpected data %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := postgres.New(context.Background(), "://not a url"); err == nil {
		t.Fatal("expected error for invalid database url")
	}
}
