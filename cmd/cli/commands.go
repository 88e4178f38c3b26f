package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type account struct {
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name"`
	Balance       int64  `json:"balance"`
}

type auditRecord struct {
	Sequence    int    `json:"sequence"`
	Debit       int64  `json:"debit"`
	Credit      int64  `json:"credit"`
	Description string `json:"description"`
}

type options struct {
	baseURL string
	timeout time.Duration
	retries int
	output  string
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout, o.retries)
}

// reportClient never retries: a 409 from a ledger check is its verdict.
func (o *options) reportClient() *apiClient {
	return newAPIClient(o.baseURL, o.timeout, 0)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Ledger CLI tool",
		Long:          `A command line interface for interacting with the ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().IntVar(&opts.retries, "retries", 0, "Retries on 409 Conflict")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")

	rootCmd.AddCommand(accountCmd(opts), ledgerCmd(opts))

	return rootCmd
}

func accountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var acc account
			if err := opts.client().call(cmd.Context(), http.MethodPost, "/api/v1/accounts", map[string]string{"name": name}, &acc); err != nil {
				return err
			}
			return printAccount(cmd.OutOrStdout(), opts.output, acc)
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account holder name")
	_ = createCmd.MarkFlagRequired("name")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var acc account
			if err := opts.client().call(cmd.Context(), http.MethodGet, accountPath(args[0], ""), nil, &acc); err != nil {
				return err
			}
			return printAccount(cmd.OutOrStdout(), opts.output, acc)
		},
	}

	cmd.AddCommand(
		createCmd,
		showCmd,
		amountCmd(opts, "deposit", "Credit an account"),
		amountCmd(opts, "withdraw", "Debit an account"),
		sendCmd(opts),
		auditCmd(opts),
		reconcileCmd(opts),
	)

	return cmd
}

func amountCmd(opts *options, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " ID AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			var acc account
			if err := opts.client().call(cmd.Context(), http.MethodPost, accountPath(args[0], action), map[string]int64{"amount": amount}, &acc); err != nil {
				return err
			}
			return printAccount(cmd.OutOrStdout(), opts.output, acc)
		},
	}
}

func sendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send ID RECEIVER AMOUNT",
		Short: "Transfer funds to another account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}

			body := map[string]any{"amount": amount, "accountNumber": args[1]}
			var acc account
			if err := opts.client().call(cmd.Context(), http.MethodPost, accountPath(args[0], "send"), body, &acc); err != nil {
				return err
			}
			return printAccount(cmd.OutOrStdout(), opts.output, acc)
		},
	}
}

func auditCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "audit ID",
		Short: "Show an account's audit log, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []auditRecord
			if err := opts.client().call(cmd.Context(), http.MethodGet, accountPath(args[0], "audit"), nil, &records); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				return printJSON(out, records)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tDEBIT\tCREDIT\tDESCRIPTION")
			for _, r := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Sequence, blankZero(r.Debit), blankZero(r.Credit), r.Description)
			}
			return tw.Flush()
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile ID",
		Short: "Compare an account's balance with its replayed history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := opts.reportClient().call(cmd.Context(), http.MethodGet, accountPath(args[0], "reconcile"), nil, &result); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Status     string   `json:"status"`
				Consistent bool     `json:"consistent"`
				Entries    int      `json:"entries"`
				Accounts   int      `json:"accounts"`
				Mismatches []string `json:"mismatches"`
			}

			err := opts.reportClient().call(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, &result)
			if err != nil {
				return fmt.Errorf("consistency check FAILED: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Consistency check PASSED\n")
			fmt.Fprintf(out, "Entries: %d, accounts: %d\n", result.Entries, result.Accounts)
			return nil
		},
	})

	return cmd
}

func accountPath(id, action string) string {
	path := "/api/v1/accounts/" + url.PathEscape(id)
	if action != "" {
		path += "/" + action
	}
	return path
}

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: must be an integer", s)
	}
	return amount, nil
}

func printAccount(w io.Writer, format string, acc account) error {
	if format == "json" {
		return printJSON(w, acc)
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%d\n", acc.AccountNumber, acc.Name, acc.Balance)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func blankZero(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
