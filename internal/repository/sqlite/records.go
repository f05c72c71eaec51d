package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
)

// RecordStore implements domain.Storage using SQLite BLOBs.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore creates a new SQLite-backed RecordStore.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db.SqlDB}
}

func (s *RecordStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM kv_records WHERE record_key = ?", key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load record %s: %w", key, err)
	}
	return data, nil
}

func (s *RecordStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_records (record_key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save record %s: %w", key, err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM kv_records WHERE record_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored record keys in lexical order.
func (s *RecordStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT record_key FROM kv_records ORDER BY record_key")
	if err != nil {
		return nil, fmt.Errorf("list record keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan record key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
