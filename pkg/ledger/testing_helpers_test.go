package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const (
	clientAddress     = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"
	freelancerAddress = "GAAZI4TCR3TY5OJHCTJC2A4QSY6CJWJH5IAJTGKIN2ER7LBNVKOCCWN7"
	outsiderAddress   = "GCEZWKCA5VLDNRLN3RPRJMRZOX3Z6G5CHCGSNFHEYVXM3XOJMDS674JZ"
	contractAddress   = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"
	errorMismatch     = "expected %v, got %v"
)

var fixedCreatedAt = time.Date(2024, 11, 3, 9, 30, 15, 123456789, time.UTC)

func mustRecord(test *testing.T, id string, client string, freelancer string) Record {
	test.Helper()
	deadline := fixedCreatedAt.Add(14 * 24 * time.Hour)
	record, err := NewRecord(RecordInput{
		ID:         id,
		Title:      "Landing page " + id,
		Client:     client,
		Freelancer: freelancer,
		Amount:     "250.5",
		Currency:   "XLM",
		Deadline:   &deadline,
		Metadata:   `{"milestone":1}`,
	}, fixedCreatedAt)
	if err != nil {
		test.Fatalf("new record %s: %v", id, err)
	}
	return record
}

func mustLedger(test *testing.T, storage Storage, options ...LedgerOption) *LocalLedger {
	test.Helper()
	ledger, err := NewLocalLedger(context.Background(), storage, DefaultStorageKey, options...)
	if err != nil {
		test.Fatalf("new ledger: %v", err)
	}
	return ledger
}

func mustDecimal(test *testing.T, raw string) decimal.Decimal {
	test.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		test.Fatalf("decimal %q: %v", raw, err)
	}
	return value
}

type failingStorage struct {
	*MemoryStorage
	setError error
	getError error
}

func newFailingStorage(test *testing.T) *failingStorage {
	test.Helper()
	return &failingStorage{MemoryStorage: NewMemoryStorage()}
}

func (storage *failingStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if storage.getError != nil {
		return "", false, storage.getError
	}
	return storage.MemoryStorage.GetItem(ctx, key)
}

func (storage *failingStorage) SetItem(ctx context.Context, key string, value string) error {
	if storage.setError != nil {
		return storage.setError
	}
	return storage.MemoryStorage.SetItem(ctx, key, value)
}

var errBoom = errors.New("boom")
