package keystore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

type recordingApprover struct {
	answer   bool
	requests []ApprovalRequest
}

func (approver *recordingApprover) approve(_ context.Context, request ApprovalRequest) bool {
	approver.requests = append(approver.requests, request)
	return approver.answer
}

func mustKeypair(test *testing.T) *keypair.Full {
	test.Helper()
	full, err := keypair.Random()
	if err != nil {
		test.Fatalf("random keypair: %v", err)
	}
	return full
}

func mustAgent(test *testing.T, keys *keypair.Full, options ...Option) *Agent {
	test.Helper()
	agent, err := New(keys.Seed(), stellar.ResolveNetwork("TESTNET"), options...)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	return agent
}

func mustEnvelope(test *testing.T, source *keypair.Full, destination string) string {
	test.Helper()
	transaction, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: source.Address(), Sequence: 41},
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{&txnbuild.Payment{
			Destination: destination,
			Amount:      "1.5000000",
			Asset:       txnbuild.NativeAsset{},
		}},
		BaseFee:       txnbuild.MinBaseFee,
		Memo:          txnbuild.MemoText("invoice 7"),
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimebounds(0, 1_700_000_180)},
	})
	if err != nil {
		test.Fatalf("build transaction: %v", err)
	}
	envelope, err := transaction.Base64()
	if err != nil {
		test.Fatalf("encode transaction: %v", err)
	}
	return envelope
}

func TestNewValidatesSeed(test *testing.T) {
	test.Parallel()
	if _, err := New("SNOTASEED", stellar.ResolveNetwork("")); !errors.Is(err, ErrInvalidSeed) {
		test.Fatalf("expected ErrInvalidSeed, got %v", err)
	}
	agent, err := New("", stellar.ResolveNetwork(""))
	if err != nil {
		test.Fatalf("empty seed: %v", err)
	}
	if agent.Installed(context.Background()) {
		test.Fatalf("agent without seed must not be installed")
	}
}

func TestAgentWithoutSeedReportsNotInstalled(test *testing.T) {
	test.Parallel()
	agent, err := New("", stellar.ResolveNetwork(""))
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	calls := map[string]func() error{
		"request access": func() error { _, err := agent.RequestAccess(ctx); return err },
		"address":        func() error { _, err := agent.Address(ctx); return err },
		"network":        func() error { _, err := agent.Network(ctx); return err },
		"details":        func() error { _, err := agent.NetworkDetails(ctx); return err },
		"sign":           func() error { _, err := agent.SignTransaction(ctx, "AAAA", "x"); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, wallet.ErrAgentNotInstalled) {
			test.Fatalf("%s: expected ErrAgentNotInstalled, got %v", name, err)
		}
	}
}

func TestRequestAccessGrantsAddress(test *testing.T) {
	test.Parallel()
	keys := mustKeypair(test)
	approver := &recordingApprover{answer: true}
	agent := mustAgent(test, keys, WithApprover(approver.approve))
	ctx := context.Background()

	before, err := agent.Address(ctx)
	if err != nil || before != "" {
		test.Fatalf("expected empty address before access, got %q %v", before, err)
	}
	address, err := agent.RequestAccess(ctx)
	if err != nil {
		test.Fatalf("RequestAccess: %v", err)
	}
	if address != keys.Address() {
		test.Fatalf("expected %s, got %s", keys.Address(), address)
	}
	after, err := agent.Address(ctx)
	if err != nil || after != keys.Address() {
		test.Fatalf("expected address after access, got %q %v", after, err)
	}
	if len(approver.requests) != 1 || approver.requests[0].Action != ActionAccess {
		test.Fatalf("unexpected prompts %+v", approver.requests)
	}
}

func TestDeclinedPromptsAreRejections(test *testing.T) {
	test.Parallel()
	keys := mustKeypair(test)
	approver := &recordingApprover{answer: false}
	agent := mustAgent(test, keys, WithApprover(approver.approve))
	ctx := context.Background()

	if _, err := agent.RequestAccess(ctx); !errors.Is(err, wallet.ErrUserRejected) || !wallet.IsRejection(err) {
		test.Fatalf("expected rejection, got %v", err)
	}
	envelope := mustEnvelope(test, keys, mustKeypair(test).Address())
	if _, err := agent.SignTransaction(ctx, envelope, stellar.ResolveNetwork("TESTNET").Passphrase); !errors.Is(err, wallet.ErrUserRejected) {
		test.Fatalf("expected rejection, got %v", err)
	}
}

func TestApproveAccessOnlyDeclinesSigning(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		action Action
		want   bool
	}{
		{action: ActionAccess, want: true},
		{action: ActionSign, want: false},
		{action: Action("other"), want: false},
	}
	for _, testCase := range testCases {
		if got := ApproveAccessOnly(context.Background(), ApprovalRequest{Action: testCase.action}); got != testCase.want {
			test.Fatalf("action %s: expected %v, got %v", testCase.action, testCase.want, got)
		}
	}
}

func TestSignTransactionProducesVerifiableSignature(test *testing.T) {
	test.Parallel()
	keys := mustKeypair(test)
	destination := mustKeypair(test).Address()
	approver := &recordingApprover{answer: true}
	agent := mustAgent(test, keys, WithApprover(approver.approve))
	passphrase := stellar.ResolveNetwork("TESTNET").Passphrase

	signedXDR, err := agent.SignTransaction(context.Background(), mustEnvelope(test, keys, destination), passphrase)
	if err != nil {
		test.Fatalf("SignTransaction: %v", err)
	}
	generic, err := txnbuild.TransactionFromXDR(signedXDR)
	if err != nil {
		test.Fatalf("decode signed: %v", err)
	}
	signed, ok := generic.Transaction()
	if !ok || len(signed.Signatures()) != 1 {
		test.Fatalf("expected one signature")
	}
	hash, err := signed.Hash(passphrase)
	if err != nil {
		test.Fatalf("hash: %v", err)
	}
	if err := keys.Verify(hash[:], signed.Signatures()[0].Signature); err != nil {
		test.Fatalf("signature does not verify: %v", err)
	}

	summary := approver.requests[0].Summary
	for _, fragment := range []string{"pay 1.5000000 XLM", "fee 100 stroops", `memo "invoice 7"`} {
		if !strings.Contains(summary, fragment) {
			test.Fatalf("summary %q lacks %q", summary, fragment)
		}
	}
}

func TestSignTransactionRejectsGarbage(test *testing.T) {
	test.Parallel()
	agent := mustAgent(test, mustKeypair(test))
	if _, err := agent.SignTransaction(context.Background(), "not-xdr", "x"); err == nil || wallet.IsRejection(err) {
		test.Fatalf("expected decode error, got %v", err)
	}
}

func TestNetworkDetailsMirrorConfiguredNetwork(test *testing.T) {
	test.Parallel()
	network := stellar.ResolveNetwork("PUBLIC")
	keys := mustKeypair(test)
	agent, err := New(keys.Seed(), network)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	details, err := agent.NetworkDetails(context.Background())
	if err != nil {
		test.Fatalf("NetworkDetails: %v", err)
	}
	if !network.Matches(details.Network, details.NetworkPassphrase) || details.NetworkURL != network.HorizonURL {
		test.Fatalf("unexpected details %+v", details)
	}
}
