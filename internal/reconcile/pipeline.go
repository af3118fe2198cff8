package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/walletrecon/internal/id"
	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// Defaults for Options.
var (
	DefaultAmountTolerance = decimal.RequireFromString("0.01")
	DefaultDateTolerance   = 48 * time.Hour
)

// Options tunes the reconciliation stages.
type Options struct {
	AmountTolerance decimal.Decimal
	DateTolerance   time.Duration
	RefundWindow    time.Duration
	AccountLock     bool
	LockRemarks     []string
	Providers       []string
}

// DefaultOptions returns the stock tolerances with account locking enabled.
func DefaultOptions() Options {
	return Options{
		AmountTolerance: DefaultAmountTolerance,
		DateTolerance:   DefaultDateTolerance,
		RefundWindow:    DefaultRefundWindow,
		AccountLock:     true,
		LockRemarks:     DefaultLockRemarks,
		Providers:       DefaultProviders,
	}
}

// Stats counts the records each stage marked.
type Stats struct {
	Locked       int
	RefundPaired int
	Duplicates   int
	Supplemented int
	Locks        int
	BaselineSize int
}

// Pipeline runs the reconciliation stages in their fixed order.
type Pipeline struct {
	opts Options
	log  *zap.Logger
}

// New creates a pipeline. A nil logger discards output.
func New(opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{opts: opts, log: log}
}

// Run marks records against baseline: account locks, refund pairing,
// baseline dedupe, then card remark supplementation. Records are mutated in
// place and returned with the per-stage counts.
func (p *Pipeline) Run(records []*model.Record, baseline *ledger.Book) ([]*model.Record, Stats) {
	var st Stats
	if baseline == nil {
		baseline = ledger.NewBook()
	}

	if p.opts.AccountLock {
		locks := BuildAccountLocks(baseline, p.opts.LockRemarks)
		st.Locks = len(locks)
		for account, ts := range locks {
			p.log.Debug("account lock",
				zap.String("account", account),
				zap.String("until", normalize.FormatTime(ts)))
		}
		locked := ApplyAccountLocks(records, locks)
		st.Locked = len(locked)
		p.logStage("account-lock", locked)
	} else {
		p.log.Info("account lock disabled")
	}

	paired := ApplyRefundPairs(records, p.opts.RefundWindow)
	st.RefundPaired = len(paired)
	p.logStage("refund-pair", paired)

	idx := NewBaselineIndex(baseline, p.opts.AmountTolerance, p.opts.DateTolerance)
	st.BaselineSize = idx.Len()
	dups := ApplyBaselineDedupe(records, idx)
	st.Duplicates = len(dups)
	p.logStage("baseline-dedupe", dups)

	enriched := SupplementCardRemarks(records, p.opts.AmountTolerance, p.opts.DateTolerance, p.opts.Providers)
	st.Supplemented = len(enriched)
	p.logStage("supplement", enriched)

	return records, st
}

func (p *Pipeline) logStage(stage string, marked []*model.Record) {
	p.log.Info("stage complete", zap.String("stage", stage), zap.Int("marked", len(marked)))
	for _, r := range marked {
		p.log.Debug("record marked",
			zap.String("stage", stage),
			zap.String("id", id.Short(r.ID)),
			zap.String("account", r.Account),
			zap.String("amount", r.Amount.StringFixed(2)),
			zap.String("timestamp", normalize.FormatTime(r.Timestamp)),
			zap.String("reason", string(r.SkippedReason)))
	}
}

// Decision is a confirmer's answer for one record.
type Decision int

const (
	Accept Decision = iota
	Reject
	AcceptAll
	SkipAll
	Abort
)

// Confirmer decides whether an actionable record is imported.
type Confirmer interface {
	Confirm(r *model.Record) (Decision, error)
}

// AutoConfirm accepts every record.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(*model.Record) (Decision, error) { return AcceptAll, nil }

// Result partitions a reconciled record set.
type Result struct {
	Accepted []*model.Record
	Skipped  int
	Canceled int
	Pending  int
}

// Actionable returns the records still eligible for import, in input order.
func Actionable(records []*model.Record) []*model.Record {
	var out []*model.Record
	for _, r := range records {
		if r.Actionable() {
			out = append(out, r)
		}
	}
	return out
}

// Resolve asks c about every actionable record and marks the outcome.
// Rejected records get user-skip; after Abort the current and remaining
// records get user-abort. A nil confirmer accepts everything.
func Resolve(records []*model.Record, c Confirmer) (Result, error) {
	if c == nil {
		c = AutoConfirm{}
	}

	var (
		acceptAll bool
		skipAll   bool
		aborted   bool
	)
	for _, r := range Actionable(records) {
		switch {
		case aborted:
			r.Skip(model.SkipUserAbort)
			continue
		case skipAll:
			r.Skip(model.SkipUserSkip)
			continue
		case acceptAll:
			r.Meta.Accepted = true
			continue
		}

		d, err := c.Confirm(r)
		if err != nil {
			return Summarize(records), fmt.Errorf("confirming record %s: %w", r.ID, err)
		}
		switch d {
		case Accept:
			r.Meta.Accepted = true
		case AcceptAll:
			acceptAll = true
			r.Meta.Accepted = true
		case Reject:
			r.Skip(model.SkipUserSkip)
		case SkipAll:
			skipAll = true
			r.Skip(model.SkipUserSkip)
		case Abort:
			aborted = true
			r.Skip(model.SkipUserAbort)
		default:
			return Summarize(records), errors.New("unknown confirm decision")
		}
	}
	return Summarize(records), nil
}

// Summarize counts record outcomes. Supplement-only records that were never
// excluded are not counted.
func Summarize(records []*model.Record) Result {
	var res Result
	for _, r := range records {
		switch r.Status() {
		case "canceled":
			res.Canceled++
		case "skipped":
			res.Skipped++
		case "accepted":
			res.Accepted = append(res.Accepted, r)
		default:
			if !r.Meta.SupplementOnly {
				res.Pending++
			}
		}
	}
	return res
}
