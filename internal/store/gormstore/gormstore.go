package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	errorOperationStore = "gormstore"
	errorSubjectItem    = "local_storage"
	errorSubjectSchema  = "schema"
	errorCodeGet        = "get_item"
	errorCodeSet        = "set_item"
	errorCodeRemove     = "remove_item"
	errorCodeInvalid    = "invalid"
	errorCodeMigrate    = "migrate"
)

// ErrInvalidValue reports a value that is not a JSON document.
var ErrInvalidValue = errors.New("value must be valid json")

// Store implements ledger.Storage using GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the local_storage table when it does not exist.
func (store *Store) Migrate(ctx context.Context) error {
	if err := store.db.WithContext(ctx).AutoMigrate(&LocalStorageItem{}); err != nil {
		return wrapStoreError(errorSubjectSchema, errorCodeMigrate, err)
	}
	return nil
}

// GetItem returns the value stored under key.
func (store *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item LocalStorageItem
	err := store.db.WithContext(ctx).Where("item_key = ?", key).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapStoreError(errorSubjectItem, errorCodeGet, err)
	}
	return string(item.Value), true, nil
}

// SetItem upserts value under key.
func (store *Store) SetItem(ctx context.Context, key string, value string) error {
	if strings.TrimSpace(key) == "" {
		return wrapStoreError(errorSubjectItem, errorCodeInvalid, fmt.Errorf("%w: empty key", ErrInvalidValue))
	}
	if !json.Valid([]byte(value)) {
		return wrapStoreError(errorSubjectItem, errorCodeInvalid, ErrInvalidValue)
	}
	item := LocalStorageItem{
		Key:       key,
		Value:     datatypes.JSON([]byte(value)),
		UpdatedAt: store.now(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"item_value", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return wrapStoreError(errorSubjectItem, errorCodeSet, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (store *Store) RemoveItem(ctx context.Context, key string) error {
	err := store.db.WithContext(ctx).Where("item_key = ?", key).Delete(&LocalStorageItem{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectItem, errorCodeRemove, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}
