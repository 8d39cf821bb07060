package ledger

import (
	"context"
	"sync"
)

// DefaultStorageKey is the key the escrow list is persisted under.
const DefaultStorageKey = "trustlance-escrows"

// Storage is a string key-value store with local-storage semantics. GetItem
// reports a missing key with ok=false and a nil error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key string, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage keeps items in process memory.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// GetItem returns the value stored under key.
func (storage *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	value, ok := storage.items[key]
	return value, ok, nil
}

// SetItem stores value under key.
func (storage *MemoryStorage) SetItem(_ context.Context, key string, value string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.items[key] = value
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (storage *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	delete(storage.items, key)
	return nil
}
