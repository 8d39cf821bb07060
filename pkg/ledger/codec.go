package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateTypeTag  = "date"
	stateVersion = 0
)

// taggedDate is the persisted form of a timestamp. Readers also accept a bare
// RFC 3339 string, which is what browsers actually wrote for the same field.
type taggedDate struct {
	Type  string `json:"__type"`
	Value string `json:"value"`
}

func newTaggedDate(value time.Time) *taggedDate {
	return &taggedDate{Type: dateTypeTag, Value: value.UTC().Format(time.RFC3339Nano)}
}

func (date *taggedDate) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		date.Type = dateTypeTag
		date.Value = raw
		return nil
	}
	type plain taggedDate
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	if decoded.Type != dateTypeTag {
		return fmt.Errorf("%w: unexpected date tag %q", ErrCorruptState, decoded.Type)
	}
	*date = taggedDate(decoded)
	return nil
}

func (date *taggedDate) parse() (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, date.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return parsed.UTC(), nil
}

type recordDocument struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Client          string      `json:"client"`
	Freelancer      string      `json:"freelancer"`
	Amount          json.Number `json:"amount"`
	Currency        Currency    `json:"currency"`
	Status          Status      `json:"status"`
	ContractAddress string      `json:"contractAddress,omitempty"`
	TransactionHash string      `json:"transactionHash,omitempty"`
	CreatedAt       *taggedDate `json:"createdAt"`
	Deadline        *taggedDate `json:"deadline,omitempty"`
	Metadata        string      `json:"metadata,omitempty"`
}

type stateDocument struct {
	State struct {
		Escrows []recordDocument `json:"escrows"`
	} `json:"state"`
	Version int `json:"version"`
}

// EncodeState serializes records into the persisted envelope.
func EncodeState(records []Record) ([]byte, error) {
	var document stateDocument
	document.Version = stateVersion
	document.State.Escrows = make([]recordDocument, 0, len(records))
	for _, record := range records {
		entry := recordDocument{
			ID:              record.ID,
			Title:           record.Title,
			Client:          record.Client,
			Freelancer:      record.Freelancer,
			Amount:          json.Number(record.Amount.String()),
			Currency:        record.Currency,
			Status:          record.Status,
			ContractAddress: record.ContractAddress,
			TransactionHash: record.TransactionHash,
			CreatedAt:       newTaggedDate(record.CreatedAt),
			Metadata:        record.Metadata,
		}
		if record.Deadline != nil {
			entry.Deadline = newTaggedDate(*record.Deadline)
		}
		document.State.Escrows = append(document.State.Escrows, entry)
	}
	return json.Marshal(document)
}

// DecodeState parses the persisted envelope. Empty input decodes to no records.
func DecodeState(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var document stateDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	records := make([]Record, 0, len(document.State.Escrows))
	for index, entry := range document.State.Escrows {
		record, err := entry.record()
		if err != nil {
			return nil, fmt.Errorf("escrow %d: %w", index, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (entry recordDocument) record() (Record, error) {
	if entry.ID == "" {
		return Record{}, fmt.Errorf("%w: %w", ErrCorruptState, ErrInvalidEscrowID)
	}
	amount, err := decimal.NewFromString(entry.Amount.String())
	if err != nil {
		return Record{}, fmt.Errorf("%w: amount: %v", ErrCorruptState, err)
	}
	status, err := ParseStatus(string(entry.Status))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	currency, err := ParseCurrency(string(entry.Currency))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	record := Record{
		ID:              entry.ID,
		Title:           entry.Title,
		Client:          entry.Client,
		Freelancer:      entry.Freelancer,
		Amount:          amount,
		Currency:        currency,
		Status:          status,
		ContractAddress: entry.ContractAddress,
		TransactionHash: entry.TransactionHash,
		Metadata:        entry.Metadata,
	}
	if entry.CreatedAt != nil {
		createdAt, err := entry.CreatedAt.parse()
		if err != nil {
			return Record{}, err
		}
		record.CreatedAt = createdAt
	}
	if entry.Deadline != nil {
		deadline, err := entry.Deadline.parse()
		if err != nil {
			return Record{}, err
		}
		record.Deadline = &deadline
	}
	return record, nil
}
