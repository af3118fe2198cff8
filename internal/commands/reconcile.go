package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/walletrecon/internal/config"
	"github.com/cleared-dev/walletrecon/internal/gitops"
	"github.com/cleared-dev/walletrecon/internal/id"
	"github.com/cleared-dev/walletrecon/internal/importer"
	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/logging"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
	"github.com/cleared-dev/walletrecon/internal/reconcile"
	"github.com/cleared-dev/walletrecon/internal/report"
)

// outputStamp suffixes the output prefix, e.g. "output/ledger-202501141530".
const outputStamp = "200601021504"

type reconcileFlags struct {
	input           string
	baseline        string
	outputPrefix    string
	intermediateDir string
	report          string
	amountTol       string
	dateTol         string
	refundWindow    string
	dryRun          bool
	autoConfirm     bool
	incrementalOnly bool
	disableLock     bool
}

func newReconcileCommand(g *globalFlags) *cobra.Command {
	var f reconcileFlags

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Import statements, drop duplicates and write the merged ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			applyReconcileFlags(cmd, cfg, &f)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			outcome, err := runReconcile(cmd.Context(), reconcileRun{
				cfg:    cfg,
				dryRun: f.dryRun,
				in:     cmd.InOrStdin(),
				out:    cmd.OutOrStdout(),
				log:    log,
				now:    time.Now,
			})
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.input, "input", "", "directory holding channel statements")
	fl.StringVar(&f.baseline, "baseline", "", "baseline ledger directory")
	fl.StringVar(&f.outputPrefix, "output-prefix", "", "output directory prefix; a timestamp is appended")
	fl.StringVar(&f.intermediateDir, "intermediate-dir", "", "write per-channel parsed records here")
	fl.StringVar(&f.report, "report", "", "write a per-record audit report CSV")
	fl.StringVar(&f.amountTol, "amount-tolerance", "", "amount tolerance, e.g. 0.01")
	fl.StringVar(&f.dateTol, "date-tolerance", "", "date tolerance, e.g. 48h or 2d")
	fl.StringVar(&f.refundWindow, "refund-window", "", "refund pairing window, e.g. 30d")
	fl.BoolVar(&f.dryRun, "dry-run", false, "do not write the output ledger")
	fl.BoolVar(&f.autoConfirm, "auto-confirm", false, "accept every actionable record without prompting")
	fl.BoolVar(&f.incrementalOnly, "incremental-only", false, "write only the newly accepted records")
	fl.BoolVar(&f.disableLock, "disable-account-lock", false, "ignore balance-adjustment account locks")

	return cmd
}

// applyReconcileFlags copies explicitly set flags over cfg.
func applyReconcileFlags(cmd *cobra.Command, cfg *config.Config, f *reconcileFlags) {
	changed := cmd.Flags().Changed
	strs := []struct {
		name string
		src  string
		dst  *string
	}{
		{"input", f.input, &cfg.InputDir},
		{"baseline", f.baseline, &cfg.BaselineDir},
		{"output-prefix", f.outputPrefix, &cfg.OutputPrefix},
		{"intermediate-dir", f.intermediateDir, &cfg.IntermediateDir},
		{"report", f.report, &cfg.ReportPath},
		{"amount-tolerance", f.amountTol, &cfg.Tolerances.Amount},
		{"date-tolerance", f.dateTol, &cfg.Tolerances.Date},
		{"refund-window", f.refundWindow, &cfg.Tolerances.RefundWindow},
	}
	for _, s := range strs {
		if changed(s.name) {
			*s.dst = s.src
		}
	}
	if changed("auto-confirm") {
		cfg.AutoConfirm = f.autoConfirm
	}
	if changed("incremental-only") {
		cfg.IncrementalOnly = f.incrementalOnly
	}
	if changed("disable-account-lock") {
		cfg.AccountLock = !f.disableLock
	}
}

type reconcileRun struct {
	cfg    *config.Config
	dryRun bool
	in     io.Reader
	out    io.Writer
	log    *zap.Logger
	now    func() time.Time
}

type reconcileOutcome struct {
	Result     reconcile.Result
	Stats      reconcile.Stats
	OutputDir  string
	ReportPath string
	Commit     string
}

func runReconcile(ctx context.Context, run reconcileRun) (*reconcileOutcome, error) {
	cfg := run.cfg
	log := run.log
	if log == nil {
		log = zap.NewNop()
	}

	opts, err := pipelineOptions(cfg)
	if err != nil {
		return nil, err
	}

	log.Debug("pipeline options",
		zap.String("amount_tolerance", opts.AmountTolerance.String()),
		zap.String("date_tolerance", normalize.FormatDuration(opts.DateTolerance)),
		zap.String("refund_window", normalize.FormatDuration(opts.RefundWindow)),
		zap.Bool("account_lock", opts.AccountLock))

	baseline, err := ledger.Load(cfg.BaselineDir)
	if err != nil {
		return nil, err
	}

	channels := channelsFromConfig(cfg.Channels)
	files, err := importer.Discover(cfg.InputDir, channels)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no statements found in %s", cfg.InputDir)
	}

	batches, err := importer.ParseAll(ctx, importer.DefaultRegistry(), channels, files)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		log.Info("statement parsed",
			zap.String("channel", b.Channel.ID),
			zap.String("path", b.Path),
			zap.Int("records", len(b.Records)))
	}

	if cfg.IntermediateDir != "" {
		for _, b := range batches {
			path, err := report.WriteIntermediate(cfg.IntermediateDir, b.Channel.ID, b.Records)
			if err != nil {
				return nil, err
			}
			log.Debug("intermediate written", zap.String("path", path))
		}
	}

	records, stats := reconcile.New(opts, log).Run(importer.Flatten(batches), baseline)

	var confirmer reconcile.Confirmer = reconcile.AutoConfirm{}
	if !cfg.AutoConfirm {
		confirmer = newPromptConfirmer(run.in, run.out)
	}
	result, err := reconcile.Resolve(records, confirmer)
	if err != nil {
		return nil, err
	}
	outcome := &reconcileOutcome{Result: result, Stats: stats}

	if !run.dryRun {
		book := ledger.NewBook()
		if !cfg.IncrementalOnly {
			book = baseline.Clone()
		}
		book.AppendRecords(result.Accepted)
		book.SortByDate()

		outDir := cfg.OutputPrefix + "-" + run.now().In(normalize.Location).Format(outputStamp)
		if err := ledger.Save(outDir, book); err != nil {
			return nil, fmt.Errorf("writing output ledger: %w", err)
		}
		outcome.OutputDir = outDir
		log.Info("output written", zap.String("dir", outDir), zap.Int("rows", book.Len()))
	}

	if cfg.ReportPath != "" {
		if err := report.Write(cfg.ReportPath, id.New(), records); err != nil {
			return nil, err
		}
		outcome.ReportPath = cfg.ReportPath
	}

	if cfg.Git.AutoCommit && outcome.OutputDir != "" {
		hash, err := commitOutput(cfg, outcome.OutputDir, len(result.Accepted))
		if err != nil {
			return nil, err
		}
		if hash == "" {
			log.Warn("auto commit skipped, output is not inside a git repository", zap.String("dir", outcome.OutputDir))
		}
		outcome.Commit = hash
	}

	return outcome, nil
}

func pipelineOptions(cfg *config.Config) (reconcile.Options, error) {
	opts := reconcile.DefaultOptions()
	var err error
	if opts.AmountTolerance, err = cfg.AmountTolerance(); err != nil {
		return opts, err
	}
	if opts.DateTolerance, err = cfg.DateTolerance(); err != nil {
		return opts, err
	}
	if opts.RefundWindow, err = cfg.RefundWindow(); err != nil {
		return opts, err
	}
	opts.AccountLock = cfg.AccountLock
	if len(cfg.LockRemarks) > 0 {
		opts.LockRemarks = cfg.LockRemarks
	}
	if len(cfg.ProviderPrefixes) > 0 {
		opts.Providers = cfg.ProviderPrefixes
	}
	return opts, nil
}

// channelsFromConfig layers configured channels over the built-in ones.
// Configured patterns are tried before the built-in ones; unknown IDs are
// appended and need a parser of the same name.
func channelsFromConfig(overrides []config.ChannelConfig) []importer.Channel {
	channels := slices.Clone(importer.DefaultChannels)
	for _, cc := range overrides {
		i := slices.IndexFunc(channels, func(c importer.Channel) bool { return c.ID == cc.ID })
		if i < 0 {
			channels = append(channels, importer.Channel{ID: cc.ID, Label: cc.ID, Kind: model.ChannelBank})
			i = len(channels) - 1
		}
		ch := &channels[i]
		if cc.Label != "" {
			ch.Label = cc.Label
		}
		if cc.Kind != "" {
			ch.Kind = model.ChannelKind(cc.Kind)
		}
		if len(cc.Patterns) > 0 {
			ch.Patterns = append(slices.Clone(cc.Patterns), ch.Patterns...)
		}
	}
	return channels
}

// commitOutput commits outDir when it lives in a git repository. Returns an
// empty hash when it does not.
func commitOutput(cfg *config.Config, outDir string, accepted int) (string, error) {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	root, ok := gitops.RepoRoot(abs)
	if !ok {
		return "", nil
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	msg := fmt.Sprintf("reconcile: import %d records into %s", accepted, filepath.Base(abs))
	hash, err := gitops.CommitPaths(root, []string{rel}, msg, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return "", fmt.Errorf("committing output: %w", err)
	}
	return hash, nil
}

func printOutcome(w io.Writer, o *reconcileOutcome) {
	r := o.Result
	fmt.Fprintf(w, "Accepted: %d, Skipped: %d, Canceled: %d, Pending: %d\n",
		len(r.Accepted), r.Skipped, r.Canceled, r.Pending)
	if o.OutputDir != "" {
		fmt.Fprintf(w, "Output: %s\n", o.OutputDir)
	} else {
		fmt.Fprintln(w, "Dry run: no ledger written")
	}
	if o.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", o.ReportPath)
	}
	if o.Commit != "" {
		fmt.Fprintf(w, "Committed %s\n", o.Commit)
	}
}
