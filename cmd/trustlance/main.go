package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/trustlance/internal/app"
	"github.com/MarkoPoloResearchLab/trustlance/internal/config"
	"github.com/MarkoPoloResearchLab/trustlance/internal/keystore"
	"github.com/MarkoPoloResearchLab/trustlance/internal/zaplog"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const flagYes = "yes"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "trustlance: %v\n", err)
		var failure *stellar.Error
		if errors.As(err, &failure) && failure.Code() == stellar.CodeNotInstalled {
			fmt.Fprintln(os.Stderr, "hint: set --secret-seed or TRUSTLANCE_SECRET_SEED to enable the local signing agent")
		}
		os.Exit(1)
	}
}

// runtime is what every subcommand shares once the root command has loaded
// the configuration.
type runtime struct {
	app    *app.App
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	state := &runtime{}
	cmd := &cobra.Command{
		Use:           "trustlance",
		Short:         "Payments and local escrows on the Stellar network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return state.close()
		},
	}
	config.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().Bool(flagYes, false, "approve signing prompts without asking")

	cmd.AddCommand(
		newNetworkCommand(state),
		newBalanceCommand(state),
		newPayCommand(state),
		newTransactionCommand(state),
		newEscrowCommand(state),
	)
	return cmd
}

func (state *runtime) open(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := zaplog.NewBase(cfg.Development)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	if !cfg.Development {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}
	approver := keystore.AutoApprove
	if yes, _ := cmd.Flags().GetBool(flagYes); !yes {
		approver = promptApprover(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	application, err := app.New(cmd.Context(), cfg, logger, app.WithApprover(approver))
	if err != nil {
		_ = logger.Sync()
		return err
	}
	state.app = application
	state.logger = logger
	return nil
}

func (state *runtime) close() error {
	if state.app == nil {
		return nil
	}
	err := state.app.Close()
	_ = state.logger.Sync()
	return err
}

// promptApprover asks on the terminal before the agent shares the key or
// signs. Access requests are approved without asking.
func promptApprover(in io.Reader, out io.Writer) keystore.Approver {
	reader := bufio.NewReader(in)
	return func(_ context.Context, request keystore.ApprovalRequest) bool {
		if request.Action != keystore.ActionSign {
			return true
		}
		fmt.Fprintf(out, "Sign on %s: %s\nApprove? [y/N] ", request.Network, request.Summary)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
