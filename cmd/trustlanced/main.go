package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MarkoPoloResearchLab/trustlance/internal/app"
	"github.com/MarkoPoloResearchLab/trustlance/internal/config"
	"github.com/MarkoPoloResearchLab/trustlance/internal/httpapi"
	"github.com/MarkoPoloResearchLab/trustlance/internal/keystore"
	"github.com/MarkoPoloResearchLab/trustlance/internal/zaplog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "trustlanced: %v\n", err)
		os.Exit(1)
	}
}

// serverApprover picks the prompt of the server's signing agent. Nobody is at
// the server to confirm a signature, so signing needs an explicit opt-in.
func serverApprover(cfg config.ServerConfig, logger *zap.Logger) keystore.Approver {
	if cfg.AutoApprove {
		logger.Warn("auto approval enabled, the server agent signs every payment it is sent", zap.String("addr", cfg.ListenAddr))
		return keystore.AutoApprove
	}
	return keystore.ApproveAccessOnly
}

func newRootCommand() *cobra.Command {
	cfg := config.ServerConfig{}
	cmd := &cobra.Command{
		Use:           "trustlanced",
		Short:         "HTTP API for trustlance wallet sessions, payments and escrows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadServer(cmd.Flags())
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, err := zaplog.NewBase(cfg.Development)
			if err != nil {
				return fmt.Errorf("zap init: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			application, err := app.New(ctx, cfg.Config, logger, app.WithApprover(serverApprover(cfg, logger)))
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := application.Close(); closeErr != nil {
					logger.Warn("storage close error", zap.Error(closeErr))
				}
			}()
			if !application.Agent.Installed(ctx) {
				logger.Warn("no secret seed configured, wallet connections will report NOT_INSTALLED")
			}

			return httpapi.Run(ctx, cfg, httpapi.Dependencies{
				Network:    application.Network,
				Horizon:    application.Horizon,
				Payments:   application.Payments,
				Escrows:    application.Escrows,
				Simulator:  application.Simulator,
				NewManager: application.NewManager,
				Logger:     logger,
			})
		},
	}
	config.RegisterServerFlags(cmd.Flags())
	return cmd
}
