package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/repository/memory"
	"github.com/msomdec/expense-tracker/internal/repository/sqlite"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSQLiteStore(t *testing.T) *sqlite.RecordStore {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db.Records()
}

var errSaveFailed = errors.New("disk full")

// flakyStore wraps a memory store and fails saves while failing is set.
type flakyStore struct {
	*memory.Store
	mu      sync.Mutex
	failing bool
}

func newFlakyStore() *flakyStore { return &flakyStore{Store: memory.New()} }

func (f *flakyStore) SetFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *flakyStore) Save(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return errSaveFailed
	}
	return f.Store.Save(ctx, key, data)
}

var _ domain.Storage = (*flakyStore)(nil)
