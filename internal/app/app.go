// Package app wires configuration into the services both binaries run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/internal/config"
	"github.com/MarkoPoloResearchLab/trustlance/internal/contract"
	"github.com/MarkoPoloResearchLab/trustlance/internal/horizon"
	"github.com/MarkoPoloResearchLab/trustlance/internal/keystore"
	"github.com/MarkoPoloResearchLab/trustlance/internal/storage"
	"github.com/MarkoPoloResearchLab/trustlance/internal/zaplog"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/payment"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"go.uber.org/zap"
)

// App holds the wired services.
type App struct {
	Config    config.Config
	Network   stellar.Network
	Horizon   *horizon.Client
	Agent     *keystore.Agent
	Payments  *payment.Service
	Escrows   *ledger.LocalLedger
	Contract  *contract.Client
	Simulator *ledger.Simulator
	Logger    *zap.Logger
	Storage   string

	events *zaplog.Logger
	close  func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	approver keystore.Approver
	now      func() time.Time
}

// WithApprover sets the prompt used by the local signing agent. The default
// is keystore.ApproveAccessOnly.
func WithApprover(approver keystore.Approver) Option {
	return func(opts *options) {
		opts.approver = approver
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		if now != nil {
			opts.now = now
		}
	}
}

// New builds every service from a validated cfg. Close releases the storage.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	settings := options{approver: keystore.ApproveAccessOnly, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NetworkCoerced {
		logger.Warn("unknown network name, using default", zap.String("network", string(cfg.Network.Name)))
	}
	events := zaplog.New(logger)
	unixNow := func() int64 { return settings.now().UTC().Unix() }

	horizonClient, err := horizon.New(cfg.Network.HorizonURL, horizon.WithTimeout(cfg.HorizonTimeout))
	if err != nil {
		return nil, fmt.Errorf("horizon client: %w", err)
	}
	agent, err := keystore.New(cfg.SecretSeed, cfg.Network, keystore.WithApprover(settings.approver))
	if err != nil {
		return nil, fmt.Errorf("signing agent: %w", err)
	}
	payments, err := payment.NewService(horizonClient, agent, cfg.Network, unixNow, payment.WithSubmissionLogger(events))
	if err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}
	contractClient, err := contract.New(cfg.EscrowContractID, contract.WithRPCURL(cfg.Network.SorobanRPCURL), contract.WithClock(settings.now))
	if err != nil {
		return nil, fmt.Errorf("contract client: %w", err)
	}

	backend, err := storage.Open(ctx, cfg.StorageURL, cfg.StorageDriver)
	if err != nil {
		return nil, fmt.Errorf("storage open: %w", err)
	}
	escrows, err := ledger.NewLocalLedger(ctx, backend.Storage, cfg.StorageKey, ledger.WithOperationLogger(events), ledger.WithClock(unixNow))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("escrow ledger: %w", err)
	}
	simulator, err := ledger.NewSimulator(escrows, contractClient, ledger.WithSimulatorLogger(events))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("escrow simulator: %w", err)
	}
	logger.Info("storage ready", zap.String("driver", backend.Driver), zap.String("key", cfg.StorageKey))

	return &App{
		Config:    cfg,
		Network:   cfg.Network,
		Horizon:   horizonClient,
		Agent:     agent,
		Payments:  payments,
		Escrows:   escrows,
		Contract:  contractClient,
		Simulator: simulator,
		Logger:    logger,
		Storage:   backend.Driver,
		events:    events,
		close:     backend.Close,
	}, nil
}

// NewManager starts a wallet session against the local agent.
func (app *App) NewManager() (*wallet.Manager, error) {
	options := []wallet.ManagerOption{wallet.WithEventLogger(app.events)}
	if app.Config.StrictNetwork {
		options = append(options, wallet.WithStrictNetwork())
	}
	return wallet.NewManager(app.Agent, app.Horizon, app.Network, options...)
}

// Close releases the storage backend.
func (app *App) Close() error {
	if app.close == nil {
		return nil
	}
	return app.close()
}
