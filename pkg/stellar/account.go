package stellar

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetTypeNative marks the native asset in balance lists.
const AssetTypeNative = "native"

// Balance is one entry of an account's balance list.
type Balance struct {
	AssetType   string
	AssetCode   string
	AssetIssuer string
	Amount      decimal.Decimal
}

// Account is the ledger's view of an account.
type Account struct {
	ID       string
	Sequence int64
	Balances []Balance
}

// NativeBalance returns the native asset balance, or zero if the account holds none.
func (account Account) NativeBalance() decimal.Decimal {
	for _, balance := range account.Balances {
		if balance.AssetType == AssetTypeNative {
			return balance.Amount
		}
	}
	return decimal.Zero
}

// SubmitResult is the ledger's acknowledgement of an accepted transaction.
type SubmitResult struct {
	Hash        string
	Ledger      int32
	EnvelopeXDR string
	ResultXDR   string
}

// TransactionRecord summarizes a transaction already applied to the ledger.
type TransactionRecord struct {
	Hash           string
	Ledger         int32
	CreatedAt      time.Time
	Successful     bool
	OperationCount int32
	FeeCharged     int64
}
