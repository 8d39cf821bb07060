package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an escrow. The intended order is
// created, funded, then released or refunded. Nothing in the local ledger
// enforces it.
type Status string

const (
	StatusCreated  Status = "created"
	StatusFunded   Status = "funded"
	StatusReleased Status = "released"
	StatusRefunded Status = "refunded"
	StatusDisputed Status = "disputed"
)

// ParseStatus validates a status name.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusCreated, StatusFunded, StatusReleased, StatusRefunded, StatusDisputed:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// IsTerminal reports whether no further action applies.
func (status Status) IsTerminal() bool {
	return status == StatusReleased || status == StatusRefunded
}

// Currency is the asset an escrow is denominated in.
type Currency string

const (
	CurrencyXLM  Currency = "XLM"
	CurrencyUSDC Currency = "USDC"
)

// ParseCurrency validates a currency code. Empty defaults to XLM.
func ParseCurrency(raw string) (Currency, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return CurrencyXLM, nil
	}
	currency := Currency(trimmed)
	switch currency {
	case CurrencyXLM, CurrencyUSDC:
		return currency, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
}

// Record is a locally persisted escrow. It is a projection for display and
// never a source of truth for money movement.
type Record struct {
	ID              string
	Title           string
	Client          string
	Freelancer      string
	Amount          decimal.Decimal
	Currency        Currency
	Status          Status
	ContractAddress string
	TransactionHash string
	CreatedAt       time.Time
	Deadline        *time.Time
	Metadata        string
}

// IsParticipant reports whether identifier is the client or the freelancer.
func (record Record) IsParticipant(identifier string) bool {
	return identifier != "" && (record.Client == identifier || record.Freelancer == identifier)
}

func (record Record) clone() Record {
	if record.Deadline != nil {
		deadline := *record.Deadline
		record.Deadline = &deadline
	}
	return record
}

// RecordInput carries user-supplied fields for a new escrow.
type RecordInput struct {
	ID              string
	Title           string
	Client          string
	Freelancer      string
	Amount          string
	Currency        string
	ContractAddress string
	Deadline        *time.Time
	Metadata        string
}

// NewRecordID returns a fresh escrow id.
func NewRecordID() string {
	return uuid.NewString()
}

// NewRecord validates input and returns a record in StatusCreated. An empty
// ID is replaced by a fresh one.
func NewRecord(input RecordInput, createdAt time.Time) (Record, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = NewRecordID()
	}
	title := stellar.Sanitize(input.Title)
	if title == "" {
		return Record{}, fmt.Errorf("%w: empty value", ErrInvalidTitle)
	}
	client := strings.TrimSpace(input.Client)
	if !stellar.IsValidAccountAddress(client) {
		return Record{}, fmt.Errorf("%w: client %q", ErrInvalidParticipant, input.Client)
	}
	freelancer := strings.TrimSpace(input.Freelancer)
	if !stellar.IsValidAccountAddress(freelancer) {
		return Record{}, fmt.Errorf("%w: freelancer %q", ErrInvalidParticipant, input.Freelancer)
	}
	if client == freelancer {
		return Record{}, fmt.Errorf("%w: client and freelancer are the same account", ErrInvalidParticipant)
	}
	amount, err := stellar.ParseAmount(input.Amount)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	currency, err := ParseCurrency(input.Currency)
	if err != nil {
		return Record{}, err
	}
	contractAddress := strings.TrimSpace(input.ContractAddress)
	if contractAddress != "" && !stellar.IsValidContractAddress(contractAddress) {
		return Record{}, fmt.Errorf("%w: contract address %q", ErrInvalidParticipant, input.ContractAddress)
	}
	record := Record{
		ID:              id,
		Title:           title,
		Client:          client,
		Freelancer:      freelancer,
		Amount:          amount.Decimal(),
		Currency:        currency,
		Status:          StatusCreated,
		ContractAddress: contractAddress,
		CreatedAt:       createdAt.UTC(),
		Metadata:        strings.TrimSpace(input.Metadata),
	}
	if input.Deadline != nil {
		deadline := input.Deadline.UTC()
		if !deadline.After(createdAt) {
			return Record{}, fmt.Errorf("%w: must be after creation time", ErrInvalidDeadline)
		}
		record.Deadline = &deadline
	}
	return record, nil
}
