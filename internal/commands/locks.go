package commands

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/normalize"
	"github.com/cleared-dev/walletrecon/internal/reconcile"
)

func newLocksCommand(g *globalFlags) *cobra.Command {
	var baselineDir string

	cmd := &cobra.Command{
		Use:   "locks",
		Short: "Show the account locks derived from the baseline ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("baseline") {
				cfg.BaselineDir = baselineDir
			}
			return runLocks(cmd.OutOrStdout(), cfg.BaselineDir, cfg.LockRemarks)
		},
	}

	cmd.Flags().StringVar(&baselineDir, "baseline", "", "baseline ledger directory")

	return cmd
}

func runLocks(out io.Writer, baselineDir string, remarks []string) error {
	book, err := ledger.Load(baselineDir)
	if err != nil {
		return err
	}

	locks := reconcile.BuildAccountLocks(book, remarks)
	if len(locks) == 0 {
		fmt.Fprintln(out, "No account locks.")
		return nil
	}

	accounts := make([]string, 0, len(locks))
	for a := range locks {
		accounts = append(accounts, a)
	}
	slices.Sort(accounts)
	for _, a := range accounts {
		fmt.Fprintf(out, "%s\t%s\n", a, normalize.FormatTime(locks[a]))
	}
	return nil
}
