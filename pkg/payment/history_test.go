package payment

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
)

type stubReader struct {
	record       stellar.TransactionRecord
	records      []stellar.TransactionRecord
	err          error
	limitSeen    int
	accountCalls int
}

func (reader *stubReader) Transaction(_ context.Context, hash string) (stellar.TransactionRecord, error) {
	if reader.err != nil {
		return stellar.TransactionRecord{}, reader.err
	}
	record := reader.record
	record.Hash = hash
	return record, nil
}

func (reader *stubReader) AccountTransactions(_ context.Context, _ string, limit int) ([]stellar.TransactionRecord, error) {
	reader.accountCalls++
	reader.limitSeen = limit
	if reader.err != nil {
		return nil, reader.err
	}
	return reader.records, nil
}

func TestTransactionStatus(test *testing.T) {
	test.Parallel()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reader := &stubReader{record: stellar.TransactionRecord{Ledger: 90, Successful: true, CreatedAt: created}}
	record, err := TransactionStatus(context.Background(), reader, "abc")
	if err != nil || record == nil {
		test.Fatalf("expected record, got %v %v", record, err)
	}
	if record.Hash != "abc" || !record.Successful || !record.CreatedAt.Equal(created) {
		test.Fatalf("unexpected record %+v", record)
	}

	reader.err = &stellar.HorizonError{StatusCode: http.StatusNotFound}
	record, err = TransactionStatus(context.Background(), reader, "missing")
	if err != nil || record != nil {
		test.Fatalf("expected nil record for unknown hash, got %v %v", record, err)
	}

	reader.err = &stellar.HorizonError{StatusCode: http.StatusGatewayTimeout}
	if _, err = TransactionStatus(context.Background(), reader, "slow"); stellar.CodeOf(err) != stellar.CodeTimeout {
		test.Fatalf(errorMismatch, stellar.CodeTimeout, err)
	}
}

func TestRecentTransactionsLimits(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	testCases := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: DefaultHistoryLimit},
		{name: "negative", limit: -3, want: DefaultHistoryLimit},
		{name: "explicit", limit: 25, want: 25},
		{name: "clamped", limit: 1_000, want: maxHistoryLimit},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			reader := &stubReader{records: []stellar.TransactionRecord{{Hash: "a"}, {Hash: "b"}}}
			records, err := RecentTransactions(context.Background(), reader, fixture.source.Address(), testCase.limit)
			if err != nil {
				test.Fatalf("recent transactions: %v", err)
			}
			if len(records) != 2 || reader.limitSeen != testCase.want {
				test.Fatalf("expected limit %d, got %d (records %d)", testCase.want, reader.limitSeen, len(records))
			}
		})
	}
}

func TestRecentTransactionsUnknownAccount(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	reader := &stubReader{err: &stellar.HorizonError{StatusCode: http.StatusNotFound}}
	records, err := RecentTransactions(context.Background(), reader, fixture.source.Address(), 5)
	if err != nil || records == nil || len(records) != 0 {
		test.Fatalf("expected empty history, got %v %v", records, err)
	}

	invalid := &stubReader{}
	if _, err := RecentTransactions(context.Background(), invalid, "nope", 5); stellar.CodeOf(err) != stellar.CodeInvalidAddress {
		test.Fatalf(errorMismatch, stellar.CodeInvalidAddress, err)
	}
	if invalid.accountCalls != 0 {
		test.Fatalf("expected no ledger call for an invalid address")
	}
}

func TestAccountExists(test *testing.T) {
	test.Parallel()
	fixture := newFixture(test)
	exists, err := AccountExists(context.Background(), fixture.ledger, fixture.source.Address())
	if err != nil || !exists {
		test.Fatalf("expected account to exist, got %v %v", exists, err)
	}

	fixture.ledger.loadError = &stellar.HorizonError{StatusCode: http.StatusNotFound}
	exists, err = AccountExists(context.Background(), fixture.ledger, fixture.source.Address())
	if err != nil || exists {
		test.Fatalf("expected missing account, got %v %v", exists, err)
	}

	calls := fixture.ledger.loadCalls
	exists, err = AccountExists(context.Background(), fixture.ledger, "GINVALID")
	if err != nil || exists || fixture.ledger.loadCalls != calls {
		test.Fatalf("expected invalid key to short-circuit, got %v %v", exists, err)
	}
}
