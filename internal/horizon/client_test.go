package horizon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/stellar/go/keypair"
)

const (
	problemContentType = "application/problem+json"
	testHash           = "3389e9f0f1a65f19736cacf544c2e825313e8447f569233bb8db39aa607c8889"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	form   string
}

func newServer(test *testing.T, handler http.HandlerFunc) (*Client, *[]recordedRequest) {
	test.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_ = request.ParseForm()
		requests = append(requests, recordedRequest{
			method: request.Method,
			path:   request.URL.Path,
			query:  request.URL.RawQuery,
			form:   request.PostForm.Get("tx"),
		})
		handler(writer, request)
	}))
	test.Cleanup(server.Close)
	client, err := New(server.URL + "/")
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	return client, &requests
}

func writeProblem(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", problemContentType)
	writer.WriteHeader(status)
	_, _ = writer.Write([]byte(body))
}

func TestNewRejectsEmptyBaseURL(test *testing.T) {
	test.Parallel()
	if _, err := New("  "); !errors.Is(err, ErrInvalidClientConfig) {
		test.Fatalf("expected ErrInvalidClientConfig, got %v", err)
	}
	client, err := New("https://horizon-testnet.stellar.org/", WithTimeout(time.Second))
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	if client.BaseURL() != "https://horizon-testnet.stellar.org" {
		test.Fatalf("unexpected base url %q", client.BaseURL())
	}
	if client.http.Timeout != time.Second {
		test.Fatalf("timeout not applied: %v", client.http.Timeout)
	}
}

func TestLoadAccountDecodesSequenceAndBalances(test *testing.T) {
	test.Parallel()
	accountID := keypair.MustRandom().Address()
	client, requests := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/hal+json")
		fmt.Fprintf(writer, `{
			"id": %[1]q,
			"account_id": %[1]q,
			"sequence": "4294967298",
			"balances": [
				{"balance": "12.5000000", "asset_type": "credit_alphanum4", "asset_code": "USDC", "asset_issuer": "GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN"},
				{"balance": "100.0000000", "asset_type": "native"}
			]
		}`, accountID)
	})

	account, err := client.LoadAccount(context.Background(), accountID)
	if err != nil {
		test.Fatalf("LoadAccount: %v", err)
	}
	if account.ID != accountID || account.Sequence != 4294967298 {
		test.Fatalf("unexpected account %+v", account)
	}
	if len(account.Balances) != 2 || account.Balances[0].AssetCode != "USDC" {
		test.Fatalf("unexpected balances %+v", account.Balances)
	}
	if got := account.NativeBalance().String(); got != "100" {
		test.Fatalf("expected native balance 100, got %s", got)
	}
	if len(*requests) != 1 || (*requests)[0].path != "/accounts/"+accountID {
		test.Fatalf("unexpected requests %+v", *requests)
	}
}

func TestLoadAccountNotFound(test *testing.T) {
	test.Parallel()
	client, _ := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writeProblem(writer, http.StatusNotFound, `{"type":"https://stellar.org/horizon-errors/not_found","title":"Resource Missing","status":404,"detail":"The resource at the url requested was not found."}`)
	})

	_, err := client.LoadAccount(context.Background(), keypair.MustRandom().Address())
	if !stellar.IsNotFound(err) {
		test.Fatalf("expected not found, got %v", err)
	}
	var horizonError *stellar.HorizonError
	if !errors.As(err, &horizonError) || horizonError.Title != "Resource Missing" {
		test.Fatalf("expected decoded problem, got %#v", err)
	}
}

func TestSubmitTransaction(test *testing.T) {
	test.Parallel()
	const envelope = "AAAAAgAAAAC="
	client, requests := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/hal+json")
		fmt.Fprintf(writer, `{"hash":%q,"ledger":123456,"successful":true,"envelope_xdr":"ENVELOPE","result_xdr":"RESULT"}`, testHash)
	})

	result, err := client.SubmitTransaction(context.Background(), envelope)
	if err != nil {
		test.Fatalf("SubmitTransaction: %v", err)
	}
	if result.Hash != testHash || result.Ledger != 123456 || result.EnvelopeXDR != "ENVELOPE" || result.ResultXDR != "RESULT" {
		test.Fatalf("unexpected result %+v", result)
	}
	recorded := (*requests)[0]
	if recorded.method != http.MethodPost || recorded.path != "/transactions" || recorded.form != envelope {
		test.Fatalf("unexpected request %+v", recorded)
	}
}

func TestSubmitTransactionFailureCarriesResultCodes(test *testing.T) {
	test.Parallel()
	client, _ := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writeProblem(writer, http.StatusBadRequest, `{
			"type": "https://stellar.org/horizon-errors/transaction_failed",
			"title": "Transaction Failed",
			"status": 400,
			"detail": "The transaction failed when submitted to the stellar network.",
			"extras": {
				"envelope_xdr": "AAAA",
				"result_xdr": "AAAAAAAAAGT/////AAAAAQAAAAAAAAAB/////gAAAAA=",
				"result_codes": {"transaction": "tx_failed", "operations": ["op_underfunded"]}
			}
		}`)
	})

	_, err := client.SubmitTransaction(context.Background(), "AAAA")
	var horizonError *stellar.HorizonError
	if !errors.As(err, &horizonError) {
		test.Fatalf("expected HorizonError, got %v", err)
	}
	if horizonError.StatusCode != http.StatusBadRequest || horizonError.TransactionCode != "tx_failed" {
		test.Fatalf("unexpected error %+v", horizonError)
	}
	if horizonError.FirstResultCode() != "op_underfunded" {
		test.Fatalf("expected op_underfunded, got %q", horizonError.FirstResultCode())
	}
}

func TestGatewayTimeoutWithoutProblemDocument(test *testing.T) {
	test.Parallel()
	client, _ := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/html")
		writer.WriteHeader(http.StatusGatewayTimeout)
		_, _ = writer.Write([]byte("<html>gateway timeout</html>"))
	})

	_, err := client.SubmitTransaction(context.Background(), "AAAA")
	var horizonError *stellar.HorizonError
	if !errors.As(err, &horizonError) || horizonError.StatusCode != http.StatusGatewayTimeout {
		test.Fatalf("expected 504 HorizonError, got %v", err)
	}
}

func TestTransactionDetail(test *testing.T) {
	test.Parallel()
	client, requests := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/hal+json")
		fmt.Fprintf(writer, `{"hash":%q,"ledger":77,"created_at":"2024-05-01T10:00:00Z","successful":true,"operation_count":1,"fee_charged":"100","max_fee":"100"}`, testHash)
	})

	record, err := client.Transaction(context.Background(), testHash)
	if err != nil {
		test.Fatalf("Transaction: %v", err)
	}
	if record.Hash != testHash || record.Ledger != 77 || !record.Successful || record.OperationCount != 1 || record.FeeCharged != 100 {
		test.Fatalf("unexpected record %+v", record)
	}
	if !record.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		test.Fatalf("unexpected created at %v", record.CreatedAt)
	}
	if (*requests)[0].path != "/transactions/"+testHash {
		test.Fatalf("unexpected path %q", (*requests)[0].path)
	}
}

func TestAccountTransactionsNewestFirst(test *testing.T) {
	test.Parallel()
	accountID := keypair.MustRandom().Address()
	client, requests := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/hal+json")
		fmt.Fprint(writer, `{"_embedded":{"records":[
			{"hash":"b","ledger":2,"successful":true,"operation_count":1,"fee_charged":"100","max_fee":"100"},
			{"hash":"a","ledger":1,"successful":false,"operation_count":2,"fee_charged":"200","max_fee":"200"}
		]}}`)
	})

	records, err := client.AccountTransactions(context.Background(), accountID, 5)
	if err != nil {
		test.Fatalf("AccountTransactions: %v", err)
	}
	if len(records) != 2 || records[0].Hash != "b" || records[1].Successful {
		test.Fatalf("unexpected records %+v", records)
	}
	recorded := (*requests)[0]
	if recorded.path != "/accounts/"+accountID+"/transactions" {
		test.Fatalf("unexpected path %q", recorded.path)
	}
	if !strings.Contains(recorded.query, "order=desc") || !strings.Contains(recorded.query, "limit=5") {
		test.Fatalf("unexpected query %q", recorded.query)
	}
}

func TestCancelledContextStopsRequest(test *testing.T) {
	test.Parallel()
	client, _ := newServer(test, func(writer http.ResponseWriter, request *http.Request) {
		<-request.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LoadAccount(ctx, keypair.MustRandom().Address())
	if !errors.Is(err, context.Canceled) {
		test.Fatalf("expected context.Canceled, got %v", err)
	}
}
