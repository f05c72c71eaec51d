package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/msomdec/expense-tracker/internal/domain"
)

// loadRecord decodes the record at key into v. It reports false when the key
// holds nothing.
func loadRecord(ctx context.Context, store domain.Storage, key string, v any) (bool, error) {
	data, err := store.Load(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func saveRecord(ctx context.Context, store domain.Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
