package pgstore

import (
	"context"
	"errors"
	"strings"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	errorOperationStore = "pgstore"
	errorSubjectItem    = "local_storage"
	errorSubjectSchema  = "schema"
	errorCodeGet        = "get_item"
	errorCodeSet        = "set_item"
	errorCodeRemove     = "remove_item"
	errorCodeInvalid    = "invalid"
	errorCodeMigrate    = "migrate"

	sqlCreateTable = `
		create table if not exists local_storage (
			item_key text primary key,
			item_value jsonb not null,
			updated_at timestamptz not null default now()
		)
	`

	sqlSelectItem = `
		select item_value::text from local_storage where item_key = $1
	`

	sqlUpsertItem = `
		insert into local_storage(item_key, item_value, updated_at) values($1, $2::jsonb, now())
		on conflict (item_key) do update set item_value = excluded.item_value, updated_at = excluded.updated_at
	`

	sqlDeleteItem = `
		delete from local_storage where item_key = $1
	`
)

// ErrEmptyKey reports a blank storage key.
var ErrEmptyKey = errors.New("storage key is empty")

// Store implements ledger.Storage using pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by pgxpool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the local_storage table when it does not exist.
func (store *Store) Migrate(ctx context.Context) error {
	if _, err := store.pool.Exec(ctx, sqlCreateTable); err != nil {
		return wrapStoreError(errorSubjectSchema, errorCodeMigrate, err)
	}
	return nil
}

// GetItem returns the value stored under key. Postgres normalizes jsonb, so
// the returned text may differ in whitespace from what was written.
func (store *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := store.pool.QueryRow(ctx, sqlSelectItem, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapStoreError(errorSubjectItem, errorCodeGet, err)
	}
	return value, true, nil
}

// SetItem upserts value under key.
func (store *Store) SetItem(ctx context.Context, key string, value string) error {
	if strings.TrimSpace(key) == "" {
		return wrapStoreError(errorSubjectItem, errorCodeInvalid, ErrEmptyKey)
	}
	if _, err := store.pool.Exec(ctx, sqlUpsertItem, key, value); err != nil {
		return wrapStoreError(errorSubjectItem, errorCodeSet, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (store *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := store.pool.Exec(ctx, sqlDeleteItem, key); err != nil {
		return wrapStoreError(errorSubjectItem, errorCodeRemove, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}
