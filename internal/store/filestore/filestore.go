package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
)

const (
	errorOperationStore = "filestore"
	errorSubjectFile    = "file"
	errorSubjectItem    = "local_storage"
	errorCodeRead       = "read"
	errorCodeDecode     = "decode"
	errorCodeWrite      = "write"
	errorCodeInvalid    = "invalid"

	filePermissions      = 0o600
	directoryPermissions = 0o755
)

// ErrEmptyKey reports a blank storage key.
var ErrEmptyKey = errors.New("storage key is empty")

// Store implements ledger.Storage as one JSON object of key to value in a
// file. Every write replaces the file atomically.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store for path. The file is created on first write.
func New(path string) (*Store, error) {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if cleaned == "" || cleaned == "." {
		return nil, wrapStoreError(errorSubjectFile, errorCodeInvalid, errors.New("path is empty"))
	}
	return &Store{path: cleaned}, nil
}

// Path returns the backing file.
func (store *Store) Path() string {
	return store.path
}

// GetItem returns the value stored under key.
func (store *Store) GetItem(_ context.Context, key string) (string, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	items, err := store.read()
	if err != nil {
		return "", false, err
	}
	value, ok := items[key]
	return value, ok, nil
}

// SetItem stores value under key.
func (store *Store) SetItem(_ context.Context, key string, value string) error {
	if strings.TrimSpace(key) == "" {
		return wrapStoreError(errorSubjectItem, errorCodeInvalid, ErrEmptyKey)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	items, err := store.read()
	if err != nil {
		return err
	}
	items[key] = value
	return store.write(items)
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (store *Store) RemoveItem(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	items, err := store.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return store.write(items)
}

func (store *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(store.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, wrapStoreError(errorSubjectFile, errorCodeRead, err)
	}
	items := map[string]string{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, wrapStoreError(errorSubjectFile, errorCodeDecode, fmt.Errorf("%w: %v", ledger.ErrCorruptState, err))
	}
	return items, nil
}

func (store *Store) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	directory := filepath.Dir(store.path)
	if err := os.MkdirAll(directory, directoryPermissions); err != nil {
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	temporary, err := os.CreateTemp(directory, filepath.Base(store.path)+".*.tmp")
	if err != nil {
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	temporaryPath := temporary.Name()
	defer func() { _ = os.Remove(temporaryPath) }()
	if _, err := temporary.Write(data); err != nil {
		_ = temporary.Close()
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	if err := temporary.Sync(); err != nil {
		_ = temporary.Close()
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	if err := temporary.Close(); err != nil {
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	if err := os.Chmod(temporaryPath, filePermissions); err != nil {
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	if err := os.Rename(temporaryPath, store.path); err != nil {
		return wrapStoreError(errorSubjectFile, errorCodeWrite, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}
