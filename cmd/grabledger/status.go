package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/grabledger/pkg/client"
	"github.com/ArionMiles/grabledger/pkg/config"
	"github.com/ArionMiles/grabledger/pkg/mailbox"
	"github.com/ArionMiles/grabledger/pkg/reader/grab"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration and mailbox access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runStatus(cmd.Context(), cmd.OutOrStdout(), slog.Default())
			return nil
		},
	}
}

// runStatus prints one check per line and reports whether all passed.
func runStatus(ctx context.Context, out io.Writer, logger *slog.Logger) bool {
	fmt.Fprintln(out, "=== grabledger status ===")
	fmt.Fprintln(out)

	allGood := true
	cfg, ok := checkConfig(out)
	if !ok {
		allGood = false
	} else if !checkMailbox(ctx, out, cfg.Session(), logger) {
		allGood = false
	}

	printFinalStatus(out, allGood)
	return allGood
}

func checkConfig(out io.Writer) (config.Config, bool) {
	fmt.Fprint(out, "Configuration: ")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return cfg, false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return cfg, false
	}
	fmt.Fprintln(out, "✓ Loaded")

	passcode := "set"
	if cfg.Passcode == "" {
		passcode = "unset"
	}
	fmt.Fprintf(out, "  account:  %s\n", cfg.Account)
	fmt.Fprintf(out, "  passcode: %s\n", passcode)
	fmt.Fprintf(out, "  server:   %s:%d\n", cfg.Host, cfg.Port)
	fmt.Fprintf(out, "  mailbox:  %s\n", cfg.Mailbox)
	fmt.Fprintf(out, "  timeout:  %s\n", cfg.Timeout)
	return cfg, true
}

// checkMailbox opens a session and attributes a failure to the step that
// caused it, then counts the receipts each rule matches.
func checkMailbox(ctx context.Context, out io.Writer, cfg mailbox.Config, logger *slog.Logger) bool {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Mailbox access:")

	s, err := mailbox.Open(ctx, cfg, logger)

	fmt.Fprintf(out, "  Connect (%s): ", cfg.Client.Addr())
	if errors.Is(err, client.ErrConnection) {
		fmt.Fprintf(out, "✗ %v\n", err)
		return false
	}
	fmt.Fprintln(out, "✓ Connected")

	fmt.Fprintf(out, "  Login (%s): ", cfg.Client.Username)
	if errors.Is(err, client.ErrAuthentication) {
		fmt.Fprintln(out, "✗ Rejected, check MAIL_ACCOUNT and MAIL_PASSCODE")
		return false
	}
	fmt.Fprintln(out, "✓ Authenticated")

	name := cfg.Mailbox
	if name == "" {
		name = mailbox.DefaultMailbox
	}
	fmt.Fprintf(out, "  Folder (%s): ", name)
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return false
	}
	defer s.Close()
	fmt.Fprintln(out, "✓ Selected read-only")

	allGood := true
	for _, rule := range grab.DefaultRules() {
		fmt.Fprintf(out, "  %s receipts: ", rule.Name)
		uids, err := s.Search(rule.Criteria)
		if err != nil {
			fmt.Fprintf(out, "✗ %v\n", err)
			allGood = false
			continue
		}
		fmt.Fprintf(out, "✓ %d found\n", len(uids))
	}
	return allGood
}

func printFinalStatus(out io.Writer, allGood bool) {
	fmt.Fprintln(out)
	if allGood {
		fmt.Fprintln(out, "Status: ✓ Ready to run")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'grabledger run' to print a report.")
	} else {
		fmt.Fprintln(out, "Status: ✗ Configuration issues detected")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Fix the issues above, then run 'grabledger status' again.")
	}
}
