package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/payment"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/stellar"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const (
	flagTo         = "to"
	flagAmount     = "amount"
	flagMemo       = "memo"
	flagLimit      = "limit"
	flagTitle      = "title"
	flagFreelancer = "freelancer"
	flagCurrency   = "currency"
	flagDeadline   = "deadline"
	flagContract   = "contract"
	flagMetadata   = "metadata"
	flagNote       = "note"
	flagAll        = "all"
)

func newNetworkCommand(state *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Print the resolved network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			network := state.app.Network
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(out, "network\t%s\n", network.Name)
			fmt.Fprintf(out, "name\t%s\n", network.DisplayName)
			fmt.Fprintf(out, "passphrase\t%s\n", network.Passphrase)
			fmt.Fprintf(out, "horizon\t%s\n", network.HorizonURL)
			fmt.Fprintf(out, "soroban rpc\t%s\n", network.SorobanRPCURL)
			contractID := state.app.Contract.ContractID()
			if contractID == "" {
				contractID = "(not deployed)"
			}
			fmt.Fprintf(out, "escrow contract\t%s\n", contractID)
			fmt.Fprintf(out, "storage\t%s\n", state.app.Storage)
			return out.Flush()
		},
	}
}

func newBalanceCommand(state *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print the native balance of an account, or of the connected agent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				address := strings.TrimSpace(args[0])
				if !stellar.IsValidAccountAddress(address) {
					return stellar.NewError(stellar.CodeInvalidAddress, "Invalid account address", nil)
				}
				account, err := state.app.Horizon.LoadAccount(cmd.Context(), address)
				if err != nil && !stellar.IsNotFound(err) {
					return err
				}
				printBalance(cmd.OutOrStdout(), address, account.NativeBalance())
				return nil
			}
			manager, err := state.connect(cmd)
			if err != nil {
				return err
			}
			session := manager.Session()
			if session.LastError != "" {
				return fmt.Errorf("%s: %s", session.LastErrorCode, session.LastError)
			}
			balance := decimal.Zero
			if session.Balance != nil {
				balance = *session.Balance
			}
			printBalance(cmd.OutOrStdout(), session.PublicKey, balance)
			return nil
		},
	}
}

func printBalance(out io.Writer, address string, balance decimal.Decimal) {
	fmt.Fprintf(out, "%s\t%s XLM\n", address, balance.StringFixed(stellar.MaxAmountDecimals))
}

func newPayCommand(state *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Send a native asset payment from the connected agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := state.connect(cmd)
			if err != nil {
				return err
			}
			source, err := manager.PublicKey()
			if err != nil {
				return err
			}
			to, _ := cmd.Flags().GetString(flagTo)
			amount, _ := cmd.Flags().GetString(flagAmount)
			memo, _ := cmd.Flags().GetString(flagMemo)
			result := state.app.Payments.Submit(cmd.Context(), payment.Request{
				Source:      source,
				Destination: to,
				Amount:      amount,
				Memo:        memo,
			})
			if !result.Success {
				return result.Err()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transaction %s\n", result.TransactionHash)
			fmt.Fprintf(out, "ledger      %d\n", result.Ledger)
			fmt.Fprintf(out, "explorer    %s\n", state.app.Network.ExplorerTransactionURL(result.TransactionHash))
			return nil
		},
	}
	cmd.Flags().String(flagTo, "", "destination account (required)")
	cmd.Flags().String(flagAmount, "", "amount in XLM (required)")
	cmd.Flags().String(flagMemo, "", "text memo, at most 28 bytes")
	_ = cmd.MarkFlagRequired(flagTo)
	_ = cmd.MarkFlagRequired(flagAmount)
	return cmd
}

func newTransactionCommand(state *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Inspect applied transactions",
	}
	status := &cobra.Command{
		Use:   "status <hash>",
		Short: "Print the status of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := payment.TransactionStatus(cmd.Context(), state.app.Horizon, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
				return nil
			}
			printTransactions(cmd.OutOrStdout(), state.app.Network, []stellar.TransactionRecord{*record})
			return nil
		},
	}
	list := &cobra.Command{
		Use:   "list [address]",
		Short: "List the newest transactions of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := state.addressOrConnected(cmd, args)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt(flagLimit)
			records, err := payment.RecentTransactions(cmd.Context(), state.app.Horizon, address, limit)
			if err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), state.app.Network, records)
			return nil
		},
	}
	list.Flags().Int(flagLimit, payment.DefaultHistoryLimit, "number of transactions")
	cmd.AddCommand(status, list)
	return cmd
}

func printTransactions(out io.Writer, network stellar.Network, records []stellar.TransactionRecord) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "HASH\tLEDGER\tCREATED\tOK\tOPS\tFEE\tEXPLORER")
	for _, record := range records {
		fmt.Fprintf(writer, "%s\t%d\t%s\t%t\t%d\t%d\t%s\n",
			stellar.FormatHash(record.Hash, 8),
			record.Ledger,
			record.CreatedAt.Format(time.RFC3339),
			record.Successful,
			record.OperationCount,
			record.FeeCharged,
			network.ExplorerTransactionURL(record.Hash),
		)
	}
	_ = writer.Flush()
}

func printEscrows(out io.Writer, records []ledger.Record) {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTITLE\tSTATUS\tAMOUNT\tCLIENT\tFREELANCER\tCREATED")
	for _, record := range records {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
			record.ID,
			record.Title,
			record.Status,
			record.Amount.String(),
			record.Currency,
			stellar.Truncate(record.Client, 4, 4),
			stellar.Truncate(record.Freelancer, 4, 4),
			record.CreatedAt.Format(time.RFC3339),
		)
	}
	_ = writer.Flush()
}
