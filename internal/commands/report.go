package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/walletrecon/internal/report"
)

func newReportCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report [path]",
		Short: "Summarize an audit report written by reconcile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := loadConfig(cmd, g)
				if err != nil {
					return err
				}
				path = cfg.ReportPath
			}
			return runReport(cmd.OutOrStdout(), path)
		},
	}
}

func runReport(out io.Writer, path string) error {
	if path == "" {
		return errors.New("no report path given and report_path is not configured")
	}
	entries, err := report.Read(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "Empty report.")
		return nil
	}

	s := report.Summarize(entries)
	fmt.Fprintf(out, "Run %s: %d records\n", s.RunID, s.Total)
	for _, c := range s.ByStatus {
		fmt.Fprintf(out, "  %s\t%d\n", c.Key, c.N)
	}
	if len(s.ByReason) > 0 {
		fmt.Fprintln(out, "Reasons:")
		for _, c := range s.ByReason {
			fmt.Fprintf(out, "  %s\t%d\n", c.Key, c.N)
		}
	}
	return nil
}
