package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/walletrecon/internal/buildinfo"
	"github.com/cleared-dev/walletrecon/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "walletrecon",
		Short:   "Reconcile wallet and card statements against a bookkeeping ledger",
		Version: versionString(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReconcileCommand(&g))
	rootCmd.AddCommand(newLocksCommand(&g))
	rootCmd.AddCommand(newReportCommand(&g))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
}

// loadConfig resolves the effective config: defaults, then the YAML file,
// then WALLETRECON_* variables, then --log-level. Paths in the file are
// relative to the file. A missing config file is
// only an error when --config was given explicitly.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(g.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(g.configPath)
	switch {
	case err == nil:
		resolvePaths(cfg, filepath.Dir(g.configPath))
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolvePaths makes relative paths from the config file relative to its
// directory.
func resolvePaths(cfg *config.Config, base string) {
	for _, p := range []*string{&cfg.InputDir, &cfg.BaselineDir, &cfg.OutputPrefix, &cfg.IntermediateDir, &cfg.ReportPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// exists reports whether path exists on disk.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
