package payment

import (
	"context"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/stellar/go/strkey"
)

const (
	// DefaultHistoryLimit is the page size used when the caller passes none.
	DefaultHistoryLimit = 10
	maxHistoryLimit     = 200
)

// TransactionStatus looks up an applied transaction. It returns nil when the
// ledger does not know the hash.
func TransactionStatus(ctx context.Context, reader TransactionReader, hash string) (*stellar.TransactionRecord, error) {
	record, err := reader.Transaction(ctx, hash)
	if err != nil {
		if stellar.IsNotFound(err) {
			return nil, nil
		}
		return nil, classifySubmitError(err)
	}
	return &record, nil
}

// RecentTransactions lists the newest transactions of an account.
func RecentTransactions(ctx context.Context, reader TransactionReader, accountID string, limit int) ([]stellar.TransactionRecord, error) {
	if !stellar.IsValidAccountAddress(accountID) {
		return nil, stellar.NewError(stellar.CodeInvalidAddress, "Invalid account address", nil)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := reader.AccountTransactions(ctx, accountID, limit)
	if err != nil {
		if stellar.IsNotFound(err) {
			return []stellar.TransactionRecord{}, nil
		}
		return nil, classifySubmitError(err)
	}
	return records, nil
}

// AccountExists reports whether the ledger knows the account. Malformed keys
// never exist.
func AccountExists(ctx context.Context, loader AccountLoader, accountID string) (bool, error) {
	if !strkey.IsValidEd25519PublicKey(accountID) {
		return false, nil
	}
	if _, err := loader.LoadAccount(ctx, accountID); err != nil {
		if stellar.IsNotFound(err) {
			return false, nil
		}
		return false, classifySubmitError(err)
	}
	return true, nil
}
