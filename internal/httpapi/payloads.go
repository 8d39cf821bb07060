package httpapi

import (
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/payment"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
)

type networkPayload struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Passphrase    string `json:"passphrase"`
	HorizonURL    string `json:"horizon_url"`
	SorobanRPCURL string `json:"soroban_rpc_url"`
}

func newNetworkPayload(network stellar.Network) networkPayload {
	return networkPayload{
		Name:          string(network.Name),
		DisplayName:   network.DisplayName,
		Passphrase:    network.Passphrase,
		HorizonURL:    network.HorizonURL,
		SorobanRPCURL: network.SorobanRPCURL,
	}
}

type sessionPayload struct {
	PublicKey      string `json:"public_key"`
	Balance        string `json:"balance,omitempty"`
	Connected      bool   `json:"connected"`
	Connecting     bool   `json:"connecting"`
	Loading        bool   `json:"loading"`
	LastError      string `json:"last_error,omitempty"`
	LastErrorCode  string `json:"last_error_code,omitempty"`
	NetworkWarning string `json:"network_warning,omitempty"`
	Network        string `json:"network"`
}

func newSessionPayload(session wallet.Session) sessionPayload {
	payload := sessionPayload{
		PublicKey:      session.PublicKey,
		Connected:      session.Connected,
		Connecting:     session.Connecting,
		Loading:        session.Loading,
		LastError:      session.LastError,
		LastErrorCode:  string(session.LastErrorCode),
		NetworkWarning: session.NetworkWarning,
		Network:        string(session.Network),
	}
	if session.Balance != nil {
		payload.Balance = session.Balance.StringFixed(stellar.MaxAmountDecimals)
	}
	return payload
}

type paymentRequest struct {
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Memo        string `json:"memo"`
}

type paymentPayload struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Ledger          int32  `json:"ledger,omitempty"`
	Stage           string `json:"stage"`
	FailedAt        string `json:"failed_at,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	ExplorerURL     string `json:"explorer_url,omitempty"`
}

func newPaymentPayload(result payment.Result, network stellar.Network) paymentPayload {
	payload := paymentPayload{
		Success:         result.Success,
		TransactionHash: result.TransactionHash,
		Ledger:          result.Ledger,
		Stage:           string(result.Stage),
		FailedAt:        string(result.FailedAt),
		ErrorCode:       string(result.ErrorCode),
		ErrorMessage:    result.ErrorMessage,
	}
	if result.TransactionHash != "" {
		payload.ExplorerURL = network.ExplorerTransactionURL(result.TransactionHash)
	}
	return payload
}

type escrowRequest struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Freelancer      string     `json:"freelancer"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	ContractAddress string     `json:"contract_address"`
	Deadline        *time.Time `json:"deadline"`
	Metadata        string     `json:"metadata"`
}

type transactionHashRequest struct {
	TransactionHash string `json:"transaction_hash"`
}

type revisionRequest struct {
	Note string `json:"note"`
}

type escrowPayload struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Client          string     `json:"client"`
	Freelancer      string     `json:"freelancer"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	ContractAddress string     `json:"contract_address,omitempty"`
	TransactionHash string     `json:"transaction_hash,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Metadata        string     `json:"metadata,omitempty"`
}

func newEscrowPayload(record ledger.Record) escrowPayload {
	return escrowPayload{
		ID:              record.ID,
		Title:           record.Title,
		Client:          record.Client,
		Freelancer:      record.Freelancer,
		Amount:          record.Amount.String(),
		Currency:        string(record.Currency),
		Status:          string(record.Status),
		ContractAddress: record.ContractAddress,
		TransactionHash: record.TransactionHash,
		CreatedAt:       record.CreatedAt,
		Deadline:        record.Deadline,
		Metadata:        record.Metadata,
	}
}

func newEscrowPayloads(records []ledger.Record) []escrowPayload {
	payloads := make([]escrowPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, newEscrowPayload(record))
	}
	return payloads
}

type transactionPayload struct {
	Hash           string    `json:"hash"`
	Ledger         int32     `json:"ledger"`
	CreatedAt      time.Time `json:"created_at"`
	Successful     bool      `json:"successful"`
	OperationCount int32     `json:"operation_count"`
	FeeCharged     int64     `json:"fee_charged"`
	ExplorerURL    string    `json:"explorer_url"`
}

func newTransactionPayload(record stellar.TransactionRecord, network stellar.Network) transactionPayload {
	return transactionPayload{
		Hash:           record.Hash,
		Ledger:         record.Ledger,
		CreatedAt:      record.CreatedAt,
		Successful:     record.Successful,
		OperationCount: record.OperationCount,
		FeeCharged:     record.FeeCharged,
		ExplorerURL:    network.ExplorerTransactionURL(record.Hash),
	}
}
