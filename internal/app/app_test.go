package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MarkoPoloResearchLab/trustlance/internal/config"
	"github.com/MarkoPoloResearchLab/trustlance/internal/keystore"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func mustConfig(test *testing.T, cfg config.Config) config.Config {
	test.Helper()
	if err := cfg.Validate(); err != nil {
		test.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestNewWiresServices(test *testing.T) {
	test.Parallel()
	cfg := mustConfig(test, config.Config{
		NetworkName: "bogus",
		StorageURL:  filepath.Join(test.TempDir(), "escrows.json"),
		SecretSeed:  keypair.MustRandom().Seed(),
	})
	core, logs := observer.New(zapcore.InfoLevel)

	application, err := New(context.Background(), cfg, zap.New(core))
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	defer func() { _ = application.Close() }()

	if application.Storage != "file" || application.Network.Name != stellar.NetworkTestnet {
		test.Fatalf("unexpected app %+v", application)
	}
	if logs.FilterMessage("unknown network name, using default").Len() != 1 {
		test.Fatalf("expected coercion warning")
	}
	if !application.Agent.Installed(context.Background()) {
		test.Fatalf("agent should be installed with a seed")
	}
	manager, err := application.NewManager()
	if err != nil || manager.Network().Name != stellar.NetworkTestnet {
		test.Fatalf("NewManager: %v", err)
	}
}

func TestEscrowsPersistAcrossRestarts(test *testing.T) {
	test.Parallel()
	cfg := mustConfig(test, config.Config{StorageURL: "sqlite://" + filepath.Join(test.TempDir(), "trustlance.db")})
	ctx := context.Background()

	first, err := New(ctx, cfg, nil)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	record, err := first.Escrows.Create(ctx, ledger.RecordInput{
		Title:      "Logo",
		Client:     keypair.MustRandom().Address(),
		Freelancer: keypair.MustRandom().Address(),
		Amount:     "12",
	})
	if err != nil {
		test.Fatalf("Create: %v", err)
	}
	funded, err := first.Simulator.Fund(ctx, record.ID, record.Client)
	if err != nil || !funded.Simulated {
		test.Fatalf("Fund: %+v %v", funded, err)
	}
	if err := first.Close(); err != nil {
		test.Fatalf("Close: %v", err)
	}

	second, err := New(ctx, cfg, nil)
	if err != nil {
		test.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	reloaded, ok := second.Escrows.ByID(record.ID)
	if !ok || reloaded.Status != ledger.StatusFunded {
		test.Fatalf("expected funded escrow after restart, got %+v", reloaded)
	}
}

func TestDeclinedApprovalReachesPayments(test *testing.T) {
	test.Parallel()
	cfg := mustConfig(test, config.Config{StorageURL: "memory://", SecretSeed: keypair.MustRandom().Seed()})
	decline := func(context.Context, keystore.ApprovalRequest) bool { return false }
	application, err := New(context.Background(), cfg, nil, WithApprover(decline))
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	if _, err := application.Agent.RequestAccess(context.Background()); err == nil {
		test.Fatalf("expected declined access")
	}
}

func TestDefaultApproverDeclinesSigning(test *testing.T) {
	test.Parallel()
	cfg := mustConfig(test, config.Config{StorageURL: "memory://", SecretSeed: keypair.MustRandom().Seed()})
	application, err := New(context.Background(), cfg, nil)
	if err != nil {
		test.Fatalf("New: %v", err)
	}
	defer func() { _ = application.Close() }()
	ctx := context.Background()
	if _, err := application.Agent.RequestAccess(ctx); err != nil {
		test.Fatalf("expected access to be granted, got %v", err)
	}
	source := keypair.MustParseFull(cfg.SecretSeed)
	transaction, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: source.Address(), Sequence: 1},
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{&txnbuild.Payment{
			Destination: keypair.MustRandom().Address(),
			Amount:      "1",
			Asset:       txnbuild.NativeAsset{},
		}},
		BaseFee:       txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
	})
	if err != nil {
		test.Fatalf("build transaction: %v", err)
	}
	envelope, err := transaction.Base64()
	if err != nil {
		test.Fatalf("encode transaction: %v", err)
	}
	if _, err := application.Agent.SignTransaction(ctx, envelope, cfg.Network.Passphrase); !errors.Is(err, wallet.ErrUserRejected) {
		test.Fatalf("expected the default agent to decline signing, got %v", err)
	}
}

func TestNewRejectsBadSeed(test *testing.T) {
	test.Parallel()
	cfg := mustConfig(test, config.Config{StorageURL: "memory://", SecretSeed: "SBAD"})
	if _, err := New(context.Background(), cfg, nil); !errors.Is(err, keystore.ErrInvalidSeed) {
		test.Fatalf("expected ErrInvalidSeed, got %v", err)
	}
}
