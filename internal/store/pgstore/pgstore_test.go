package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/jackc/pgx/v5/pgxpool"
)

const envPostgresURL = "TRUSTLANCE_TEST_POSTGRES_URL"

func mustStore(test *testing.T) *Store {
	test.Helper()
	databaseURL := os.Getenv(envPostgresURL)
	if databaseURL == "" {
		test.Skipf("%s not set", envPostgresURL)
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		test.Fatalf("pgxpool: %v", err)
	}
	test.Cleanup(pool.Close)
	store := New(pool)
	if err := store.Migrate(context.Background()); err != nil {
		test.Fatalf("migrate: %v", err)
	}
	return store
}

func TestStoreItemLifecycle(test *testing.T) {
	store := mustStore(test)
	ctx := context.Background()
	key := "pgstore-test-" + ledger.NewRecordID()
	test.Cleanup(func() { _ = store.RemoveItem(context.Background(), key) })

	if _, ok, err := store.GetItem(ctx, key); err != nil || ok {
		test.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.SetItem(ctx, key, `{"version":0}`); err != nil {
		test.Fatalf("set: %v", err)
	}
	if err := store.SetItem(ctx, key, `{"version": 1}`); err != nil {
		test.Fatalf("overwrite: %v", err)
	}
	value, ok, err := store.GetItem(ctx, key)
	if err != nil || !ok || value != `{"version": 1}` {
		test.Fatalf("expected overwritten value, got %q ok=%v err=%v", value, ok, err)
	}
	if err := store.RemoveItem(ctx, key); err != nil {
		test.Fatalf("remove: %v", err)
	}
	if _, ok, err := store.GetItem(ctx, key); err != nil || ok {
		test.Fatalf("expected removed key, got ok=%v err=%v", ok, err)
	}
}

func TestSetItemRejectsEmptyKey(test *testing.T) {
	test.Parallel()
	store := New(nil)
	err := store.SetItem(context.Background(), "  ", "{}")
	if !errors.Is(err, ErrEmptyKey) {
		test.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	var operationError ledger.OperationError
	if !errors.As(err, &operationError) || operationError.Operation() != errorOperationStore {
		test.Fatalf("expected wrapped store error, got %v", err)
	}
}
