package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
)

const storageKey = "trustlance-escrows"

func mustStore(test *testing.T, path string) *Store {
	test.Helper()
	store, err := New(path)
	if err != nil {
		test.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreItemLifecycle(test *testing.T) {
	test.Parallel()
	path := filepath.Join(test.TempDir(), "nested", "storage.json")
	store := mustStore(test, path)
	ctx := context.Background()

	if _, ok, err := store.GetItem(ctx, storageKey); err != nil || ok {
		test.Fatalf("expected missing key before first write, got ok=%v err=%v", ok, err)
	}
	if err := store.SetItem(ctx, storageKey, `{"state":{"escrows":[]},"version":0}`); err != nil {
		test.Fatalf("set: %v", err)
	}
	if err := store.SetItem(ctx, "other", "plain text"); err != nil {
		test.Fatalf("set other: %v", err)
	}

	reopened := mustStore(test, path)
	value, ok, err := reopened.GetItem(ctx, storageKey)
	if err != nil || !ok || value != `{"state":{"escrows":[]},"version":0}` {
		test.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}
	if err := reopened.RemoveItem(ctx, storageKey); err != nil {
		test.Fatalf("remove: %v", err)
	}
	if err := reopened.RemoveItem(ctx, storageKey); err != nil {
		test.Fatalf("second remove: %v", err)
	}
	if _, ok, _ := store.GetItem(ctx, storageKey); ok {
		test.Fatalf("expected key to be removed")
	}
	if other, ok, _ := store.GetItem(ctx, "other"); !ok || other != "plain text" {
		test.Fatalf("expected other key to survive, got %q", other)
	}

	info, err := os.Stat(path)
	if err != nil {
		test.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != filePermissions {
		test.Fatalf("expected mode %o, got %o", filePermissions, info.Mode().Perm())
	}
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if err != nil || len(leftovers) != 0 {
		test.Fatalf("expected no temporary files, got %v", leftovers)
	}
}

func TestStoreReportsCorruptFile(test *testing.T) {
	test.Parallel()
	path := filepath.Join(test.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		test.Fatalf("seed: %v", err)
	}
	store := mustStore(test, path)
	_, _, err := store.GetItem(context.Background(), storageKey)
	if !errors.Is(err, ledger.ErrCorruptState) {
		test.Fatalf("expected ErrCorruptState, got %v", err)
	}
	var operationError ledger.OperationError
	if !errors.As(err, &operationError) || operationError.Code() != errorCodeDecode {
		test.Fatalf("expected decode store error, got %v", err)
	}
}

func TestStoreValidation(test *testing.T) {
	test.Parallel()
	if _, err := New("  "); err == nil {
		test.Fatalf("expected empty path error")
	}
	store := mustStore(test, filepath.Join(test.TempDir(), "storage.json"))
	if err := store.SetItem(context.Background(), "", "{}"); !errors.Is(err, ErrEmptyKey) {
		test.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
