package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/spf13/cobra"
)

// connect opens a wallet session against the local agent.
func (state *runtime) connect(cmd *cobra.Command) (*wallet.Manager, error) {
	manager, err := state.app.NewManager()
	if err != nil {
		return nil, err
	}
	if err := manager.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	if warning := manager.Session().NetworkWarning; warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: "+warning)
	}
	return manager, nil
}

func (state *runtime) addressOrConnected(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	manager, err := state.connect(cmd)
	if err != nil {
		return "", err
	}
	return manager.PublicKey()
}

func newEscrowCommand(state *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Manage locally tracked escrows",
	}
	cmd.AddCommand(
		newEscrowListCommand(state),
		newEscrowCreateCommand(state),
		newEscrowShowCommand(state),
		newEscrowActionCommand(state, "fund", "Fund a created escrow", func(state *runtime, cmd *cobra.Command, id string, actor string) (ledger.ActionResult, error) {
			return state.app.Simulator.Fund(cmd.Context(), id, actor)
		}),
		newEscrowActionCommand(state, "release", "Release a funded escrow to the freelancer", func(state *runtime, cmd *cobra.Command, id string, actor string) (ledger.ActionResult, error) {
			return state.app.Simulator.Release(cmd.Context(), id, actor)
		}),
		newEscrowActionCommand(state, "refund", "Refund a funded escrow to the client", func(state *runtime, cmd *cobra.Command, id string, actor string) (ledger.ActionResult, error) {
			return state.app.Simulator.Refund(cmd.Context(), id, actor)
		}),
		newEscrowActionCommand(state, "dispute", "Raise a dispute on a funded escrow", func(state *runtime, cmd *cobra.Command, id string, actor string) (ledger.ActionResult, error) {
			return state.app.Simulator.Dispute(cmd.Context(), id, actor)
		}),
		newEscrowRevisionCommand(state),
		newEscrowSetTransactionCommand(state),
		newEscrowDeleteCommand(state),
	)
	return cmd
}

func newEscrowListCommand(state *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [participant]",
		Short: "List escrows of a participant, the connected agent by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all, _ := cmd.Flags().GetBool(flagAll); all {
				printEscrows(cmd.OutOrStdout(), state.app.Escrows.List())
				return nil
			}
			participant, err := state.addressOrConnected(cmd, args)
			if err != nil {
				return err
			}
			printEscrows(cmd.OutOrStdout(), state.app.Escrows.ByParticipant(participant))
			return nil
		},
	}
	cmd.Flags().Bool(flagAll, false, "list every stored escrow")
	return cmd
}

func newEscrowCreateCommand(state *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a new escrow with the connected agent as client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := state.connect(cmd)
			if err != nil {
				return err
			}
			client, err := manager.PublicKey()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			title, _ := flags.GetString(flagTitle)
			freelancer, _ := flags.GetString(flagFreelancer)
			amount, _ := flags.GetString(flagAmount)
			currency, _ := flags.GetString(flagCurrency)
			contractAddress, _ := flags.GetString(flagContract)
			metadata, _ := flags.GetString(flagMetadata)
			input := ledger.RecordInput{
				Title:           title,
				Client:          client,
				Freelancer:      freelancer,
				Amount:          amount,
				Currency:        currency,
				ContractAddress: contractAddress,
				Metadata:        metadata,
			}
			if rawDeadline, _ := flags.GetString(flagDeadline); strings.TrimSpace(rawDeadline) != "" {
				deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(rawDeadline))
				if err != nil {
					return stellar.NewError(stellar.CodeInvalidDeadline, "Deadline must be an RFC 3339 timestamp", err)
				}
				input.Deadline = &deadline
			}
			record, err := state.app.Escrows.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			printEscrows(cmd.OutOrStdout(), []ledger.Record{record})
			return nil
		},
	}
	cmd.Flags().String(flagTitle, "", "short description of the work (required)")
	cmd.Flags().String(flagFreelancer, "", "freelancer account (required)")
	cmd.Flags().String(flagAmount, "", "escrow amount (required)")
	cmd.Flags().String(flagCurrency, "", "XLM or USDC (default XLM)")
	cmd.Flags().String(flagDeadline, "", "deadline as an RFC 3339 timestamp")
	cmd.Flags().String(flagContract, "", "contract address holding the escrow")
	cmd.Flags().String(flagMetadata, "", "free-form metadata")
	_ = cmd.MarkFlagRequired(flagTitle)
	_ = cmd.MarkFlagRequired(flagFreelancer)
	_ = cmd.MarkFlagRequired(flagAmount)
	return cmd
}

func newEscrowShowCommand(state *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one escrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, ok := state.app.Escrows.ByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", ledger.ErrUnknownEscrow, args[0])
			}
			out := cmd.OutOrStdout()
			printEscrows(out, []ledger.Record{record})
			if record.Deadline != nil {
				fmt.Fprintf(out, "deadline: %s\n", record.Deadline.Format(time.RFC3339))
			}
			if record.TransactionHash != "" {
				fmt.Fprintf(out, "transaction: %s\n", state.app.Network.ExplorerTransactionURL(record.TransactionHash))
			}
			if record.ContractAddress != "" {
				fmt.Fprintf(out, "contract: %s\n", state.app.Network.ExplorerContractURL(record.ContractAddress))
			}
			if record.Metadata != "" {
				fmt.Fprintf(out, "metadata: %s\n", record.Metadata)
			}
			return nil
		},
	}
}

type escrowAction func(state *runtime, cmd *cobra.Command, id string, actor string) (ledger.ActionResult, error)

func newEscrowActionCommand(state *runtime, name string, short string, action escrowAction) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := state.connect(cmd)
			if err != nil {
				return err
			}
			actor, err := manager.PublicKey()
			if err != nil {
				return err
			}
			result, err := action(state, cmd, args[0], actor)
			if err != nil {
				return err
			}
			printActionResult(cmd, result)
			return nil
		},
	}
}

func newEscrowRevisionCommand(state *runtime) *cobra.Command {
	cmd := newEscrowActionCommand(state, "revision", "Request a revision on a funded escrow", func(state *runtime, cmd *cobra.Command, id string, actor string) (ledger.ActionResult, error) {
		note, _ := cmd.Flags().GetString(flagNote)
		return state.app.Simulator.RequestRevision(cmd.Context(), id, actor, note)
	})
	cmd.Flags().String(flagNote, "", "what should change")
	return cmd
}

func printActionResult(cmd *cobra.Command, result ledger.ActionResult) {
	printEscrows(cmd.OutOrStdout(), []ledger.Record{result.Record})
	if result.Simulated {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: escrow contract not deployed, status changed locally only")
	}
	if result.Note != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "revision note: %s\n", result.Note)
	}
}

func newEscrowSetTransactionCommand(state *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set-tx <id> <hash>",
		Short: "Attach a transaction hash to an escrow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := state.app.Escrows.UpdateTransactionHash(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printEscrows(cmd.OutOrStdout(), []ledger.Record{record})
			return nil
		},
	}
}

func newEscrowDeleteCommand(state *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an escrow from local storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.app.Escrows.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
