package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/walletrecon/internal/config"
	"github.com/cleared-dev/walletrecon/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var withGit bool
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a reconciliation workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, withGit, force)
		},
	}

	cmd.Flags().BoolVar(&withGit, "git", false, "initialize a git repository and enable auto commit")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(out io.Writer, dir string, withGit, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if exists(cfgPath) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfg := config.Default()
	cfg.Git.AutoCommit = withGit

	dirs := []string{
		cfg.InputDir,
		cfg.BaselineDir,
		filepath.Dir(cfg.OutputPrefix),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Statements and secrets stay out of history.
	gitignore := cfg.InputDir + "/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, cfg.BaselineDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !withGit {
		fmt.Fprintf(out, "Initialized walletrecon workspace at %s\n", dir)
		return nil
	}

	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
	}
	root, _ := gitops.RepoRoot(dir)
	paths, err := relPaths(root, dir, config.FileName, ".gitignore", cfg.BaselineDir)
	if err != nil {
		return err
	}
	hash, err := gitops.CommitPaths(root, paths, "init: walletrecon workspace", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized walletrecon workspace at %s (%s)\n", dir, hash)
	return nil
}

// relPaths joins names onto dir and expresses them relative to root.
func relPaths(root, dir string, names ...string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		rel, err := filepath.Rel(root, filepath.Join(dir, n))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", n, err)
		}
		out = append(out, rel)
	}
	return out, nil
}
