package domain

import "context"

// Storage abstracts the profile-local key-value store. Each key holds one
// serialized record which is always written as a whole.
// The default implementation keeps records in SQLite; memory and Postgres
// backends are swappable behind the same interface.
type Storage interface {
	// Load returns ErrNotFound when the key has never been saved or was deleted.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Database defines lifecycle operations for the underlying database.
// Each implementation owns its own migration strategy.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Record keys of the persisted layout.
const (
	UsersKey              = "users"
	SessionKey            = "session"
	SharedTransactionsKey = "transactions"
	transactionsKeyPrefix = "transactions/"
)

// TransactionsKey returns the record key holding a user's transactions.
func TransactionsKey(userID string) string {
	return transactionsKeyPrefix + userID
}
