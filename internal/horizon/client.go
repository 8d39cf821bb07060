package horizon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	hprotocol "github.com/stellar/go/protocols/horizon"
)

const (
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second
	appName        = "trustlance"
)

// ErrInvalidClientConfig reports a Client built without a base URL.
var ErrInvalidClientConfig = errors.New("invalid horizon client config")

// Client reads accounts and transactions from a Horizon server and submits
// signed envelopes to it.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(horizonClient *Client) {
		if client != nil {
			horizonClient.http = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(horizonClient *Client) {
		if timeout > 0 {
			horizonClient.http.Timeout = timeout
		}
	}
}

// New returns a Client for baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base url is empty", ErrInvalidClientConfig)
	}
	client := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

// BaseURL returns the server the client talks to.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// LoadAccount fetches GET /accounts/{id}.
func (client *Client) LoadAccount(ctx context.Context, accountID string) (stellar.Account, error) {
	sdk, doer := client.sdk(ctx)
	account, err := sdk.AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if err != nil {
		return stellar.Account{}, translateError(err, doer.statusCode)
	}
	sequence, err := account.GetSequenceNumber()
	if err != nil {
		return stellar.Account{}, fmt.Errorf("account %s sequence: %w", accountID, err)
	}
	balances := make([]stellar.Balance, 0, len(account.Balances))
	for _, entry := range account.Balances {
		amount, err := decimal.NewFromString(entry.Balance)
		if err != nil {
			return stellar.Account{}, fmt.Errorf("account %s balance %q: %w", accountID, entry.Balance, err)
		}
		balances = append(balances, stellar.Balance{
			AssetType:   entry.Asset.Type,
			AssetCode:   entry.Asset.Code,
			AssetIssuer: entry.Asset.Issuer,
			Amount:      amount,
		})
	}
	return stellar.Account{ID: account.AccountID, Sequence: sequence, Balances: balances}, nil
}

// SubmitTransaction posts a signed base64 envelope to POST /transactions.
func (client *Client) SubmitTransaction(ctx context.Context, envelopeXDR string) (stellar.SubmitResult, error) {
	sdk, doer := client.sdk(ctx)
	transaction, err := sdk.SubmitTransactionXDR(envelopeXDR)
	if err != nil {
		return stellar.SubmitResult{}, translateError(err, doer.statusCode)
	}
	return stellar.SubmitResult{
		Hash:        transaction.Hash,
		Ledger:      transaction.Ledger,
		EnvelopeXDR: transaction.EnvelopeXdr,
		ResultXDR:   transaction.ResultXdr,
	}, nil
}

// Transaction fetches GET /transactions/{hash}.
func (client *Client) Transaction(ctx context.Context, hash string) (stellar.TransactionRecord, error) {
	sdk, doer := client.sdk(ctx)
	transaction, err := sdk.TransactionDetail(hash)
	if err != nil {
		return stellar.TransactionRecord{}, translateError(err, doer.statusCode)
	}
	return toRecord(transaction), nil
}

// AccountTransactions lists the newest transactions of an account.
func (client *Client) AccountTransactions(ctx context.Context, accountID string, limit int) ([]stellar.TransactionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	sdk, doer := client.sdk(ctx)
	page, err := sdk.Transactions(horizonclient.TransactionRequest{
		ForAccount: accountID,
		Order:      horizonclient.OrderDesc,
		Limit:      uint(limit),
	})
	if err != nil {
		return nil, translateError(err, doer.statusCode)
	}
	records := make([]stellar.TransactionRecord, 0, len(page.Embedded.Records))
	for _, transaction := range page.Embedded.Records {
		records = append(records, toRecord(transaction))
	}
	return records, nil
}

func (client *Client) sdk(ctx context.Context) (*horizonclient.Client, *requestDoer) {
	doer := &requestDoer{ctx: ctx, client: client.http}
	return &horizonclient.Client{
		HorizonURL: client.baseURL + "/",
		HTTP:       doer,
		AppName:    appName,
	}, doer
}

func toRecord(transaction hprotocol.Transaction) stellar.TransactionRecord {
	return stellar.TransactionRecord{
		Hash:           transaction.Hash,
		Ledger:         transaction.Ledger,
		CreatedAt:      transaction.LedgerCloseTime.UTC(),
		Successful:     transaction.Successful,
		OperationCount: transaction.OperationCount,
		FeeCharged:     transaction.FeeCharged,
	}
}

// translateError turns SDK failures into *stellar.HorizonError whenever the
// server answered with a non-2xx status.
func translateError(err error, statusCode int) error {
	var sdkError *horizonclient.Error
	if errors.As(err, &sdkError) {
		horizonError := &stellar.HorizonError{
			StatusCode: sdkError.Problem.Status,
			Title:      sdkError.Problem.Title,
			Detail:     sdkError.Problem.Detail,
		}
		if horizonError.StatusCode == 0 && sdkError.Response != nil {
			horizonError.StatusCode = sdkError.Response.StatusCode
		}
		if codes, codesErr := sdkError.ResultCodes(); codesErr == nil && codes != nil {
			horizonError.TransactionCode = codes.TransactionCode
			horizonError.OperationCodes = codes.OperationCodes
		}
		return horizonError
	}
	if statusCode != 0 && (statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices) {
		return &stellar.HorizonError{StatusCode: statusCode, Detail: err.Error()}
	}
	return err
}
