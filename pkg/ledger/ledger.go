package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Ledger is the escrow record set behind the UI. LocalLedger is a cache over
// local storage; a contract-backed implementation can satisfy the same
// contract later.
type Ledger interface {
	Add(ctx context.Context, record Record) error
	Create(ctx context.Context, input RecordInput) (Record, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Record, error)
	UpdateTransactionHash(ctx context.Context, id string, hash string) (Record, error)
	ByParticipant(identifier string) []Record
	ByID(id string) (Record, bool)
	Delete(ctx context.Context, id string) error
	List() []Record
}

// LocalLedger holds escrow records in memory and writes the full list through
// to Storage after every mutation. A failed write leaves memory unchanged.
type LocalLedger struct {
	storage Storage
	key     string
	nowFn   func() int64
	logger  OperationLogger

	writes  sync.Mutex
	mu      sync.RWMutex
	records []Record
}

// NewLocalLedger loads the record list stored under key.
func NewLocalLedger(ctx context.Context, storage Storage, key string, options ...LedgerOption) (*LocalLedger, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: storage dependency is nil", ErrInvalidLedgerConfig)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultStorageKey
	}
	ledger := &LocalLedger{
		storage: storage,
		key:     key,
		nowFn:   func() int64 { return time.Now().UTC().Unix() },
	}
	for _, option := range options {
		if option != nil {
			option(ledger)
		}
	}
	if err := ledger.Reload(ctx); err != nil {
		return nil, err
	}
	return ledger, nil
}

// Reload replaces the in-memory records with the stored list.
func (ledger *LocalLedger) Reload(ctx context.Context) error {
	ledger.writes.Lock()
	defer ledger.writes.Unlock()
	value, ok, err := ledger.storage.GetItem(ctx, ledger.key)
	if err != nil {
		return err
	}
	records := []Record{}
	if ok {
		records, err = DecodeState([]byte(value))
		if err != nil {
			return err
		}
	}
	ledger.mu.Lock()
	ledger.records = records
	ledger.mu.Unlock()
	return nil
}

// Add appends a record. Ids must be unique, and the record must pass the same
// checks the storage codec applies on load.
func (ledger *LocalLedger) Add(ctx context.Context, record Record) error {
	operationError := ledger.mutate(ctx, func(records []Record) ([]Record, error) {
		if err := validateStored(&record); err != nil {
			return nil, err
		}
		if indexOf(records, record.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrEscrowExists, record.ID)
		}
		return append(records, record.clone()), nil
	})
	ledger.logOperation(ctx, OperationLog{
		Operation:    operationAdd,
		EscrowID:     record.ID,
		Actor:        record.Client,
		EscrowStatus: record.Status,
		Error:        operationError,
	})
	return operationError
}

// Create validates input, stamps it with the ledger clock and adds it.
func (ledger *LocalLedger) Create(ctx context.Context, input RecordInput) (Record, error) {
	record, err := NewRecord(input, time.Unix(ledger.nowFn(), 0).UTC())
	if err != nil {
		return Record{}, err
	}
	if err := ledger.Add(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// UpdateStatus sets the status of a record. Transitions are not checked here.
func (ledger *LocalLedger) UpdateStatus(ctx context.Context, id string, status Status) (Record, error) {
	var updated Record
	operationError := ledger.mutate(ctx, func(records []Record) ([]Record, error) {
		if _, err := ParseStatus(string(status)); err != nil {
			return nil, err
		}
		index := indexOf(records, id)
		if index < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEscrow, id)
		}
		records[index].Status = status
		updated = records[index].clone()
		return records, nil
	})
	ledger.logOperation(ctx, OperationLog{
		Operation:    operationStatus,
		EscrowID:     id,
		EscrowStatus: status,
		Error:        operationError,
	})
	return updated, operationError
}

// UpdateTransactionHash records the transaction that acted on a record.
func (ledger *LocalLedger) UpdateTransactionHash(ctx context.Context, id string, hash string) (Record, error) {
	var updated Record
	hash = strings.TrimSpace(hash)
	operationError := ledger.mutate(ctx, func(records []Record) ([]Record, error) {
		if hash == "" {
			return nil, fmt.Errorf("%w: empty value", ErrInvalidHash)
		}
		index := indexOf(records, id)
		if index < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEscrow, id)
		}
		records[index].TransactionHash = hash
		updated = records[index].clone()
		return records, nil
	})
	ledger.logOperation(ctx, OperationLog{
		Operation:       operationHash,
		EscrowID:        id,
		TransactionHash: hash,
		Error:           operationError,
	})
	return updated, operationError
}

// Delete removes a record.
func (ledger *LocalLedger) Delete(ctx context.Context, id string) error {
	operationError := ledger.mutate(ctx, func(records []Record) ([]Record, error) {
		index := indexOf(records, id)
		if index < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEscrow, id)
		}
		return append(records[:index], records[index+1:]...), nil
	})
	ledger.logOperation(ctx, OperationLog{
		Operation: operationDelete,
		EscrowID:  id,
		Error:     operationError,
	})
	return operationError
}

// ByParticipant returns the records where identifier is client or
// freelancer, in insertion order.
func (ledger *LocalLedger) ByParticipant(identifier string) []Record {
	ledger.mu.RLock()
	defer ledger.mu.RUnlock()
	matches := []Record{}
	for _, record := range ledger.records {
		if record.IsParticipant(identifier) {
			matches = append(matches, record.clone())
		}
	}
	return matches
}

// ByID returns the record with the given id.
func (ledger *LocalLedger) ByID(id string) (Record, bool) {
	ledger.mu.RLock()
	defer ledger.mu.RUnlock()
	index := indexOf(ledger.records, id)
	if index < 0 {
		return Record{}, false
	}
	return ledger.records[index].clone(), true
}

// List returns every record in insertion order.
func (ledger *LocalLedger) List() []Record {
	ledger.mu.RLock()
	defer ledger.mu.RUnlock()
	return cloneRecords(ledger.records)
}

// mutate applies change to a copy of the records, persists the result and only
// then publishes it. writes serializes mutations so persisted order matches
// memory order; mu is not held during the storage call.
func (ledger *LocalLedger) mutate(ctx context.Context, change func([]Record) ([]Record, error)) error {
	ledger.writes.Lock()
	defer ledger.writes.Unlock()

	ledger.mu.RLock()
	working := cloneRecords(ledger.records)
	ledger.mu.RUnlock()

	next, err := change(working)
	if err != nil {
		return err
	}
	encoded, err := EncodeState(next)
	if err != nil {
		return err
	}
	if err := ledger.storage.SetItem(ctx, ledger.key, string(encoded)); err != nil {
		return err
	}

	ledger.mu.Lock()
	ledger.records = next
	ledger.mu.Unlock()
	return nil
}

// validateStored rejects records that DecodeState would refuse and normalizes
// the currency the way the decoder does.
func validateStored(record *Record) error {
	if strings.TrimSpace(record.ID) == "" {
		return ErrInvalidEscrowID
	}
	if _, err := ParseStatus(string(record.Status)); err != nil {
		return err
	}
	currency, err := ParseCurrency(string(record.Currency))
	if err != nil {
		return err
	}
	record.Currency = currency
	return nil
}

func indexOf(records []Record, id string) int {
	for index, record := range records {
		if record.ID == id {
			return index
		}
	}
	return -1
}

func cloneRecords(records []Record) []Record {
	cloned := make([]Record, 0, len(records))
	for _, record := range records {
		cloned = append(cloned, record.clone())
	}
	return cloned
}
