package wallet

import (
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/shopspring/decimal"
)

// Session is a snapshot of the wallet connection. It is never persisted.
type Session struct {
	PublicKey      string
	Balance        *decimal.Decimal
	Connected      bool
	Connecting     bool
	Loading        bool
	LastError      string
	LastErrorCode  stellar.ErrorCode
	NetworkWarning string
	Network        stellar.NetworkName
}

func (session Session) clone() Session {
	if session.Balance != nil {
		balance := *session.Balance
		session.Balance = &balance
	}
	return session
}
