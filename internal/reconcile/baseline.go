package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// unknownAccount buckets baseline rows that carry no account.
const unknownAccount = "__UNKNOWN__"

type baselineEntry struct {
	ts     time.Time
	amount decimal.Decimal
	remark string
}

// BaselineIndex answers whether a transaction already exists in the baseline
// ledger, within an amount and a time tolerance.
type BaselineIndex struct {
	amountTolerance decimal.Decimal
	dateTolerance   time.Duration
	entries         map[model.Category]map[string][]baselineEntry
}

// NewBaselineIndex groups baseline rows per category and account into
// time-sorted lists. A transfer row contributes one entry per leg.
func NewBaselineIndex(book *ledger.Book, amountTolerance decimal.Decimal, dateTolerance time.Duration) *BaselineIndex {
	idx := &BaselineIndex{
		amountTolerance: amountTolerance.Abs(),
		dateTolerance:   dateTolerance,
		entries:         make(map[model.Category]map[string][]baselineEntry),
	}

	for _, c := range model.Categories {
		t := book.Table(c)
		dateKey := model.DateColumn(c)
		if t.Len() == 0 || !t.HasColumn(dateKey) {
			continue
		}
		byAccount := make(map[string][]baselineEntry)
		for i := 0; i < t.Len(); i++ {
			ts, ok := normalize.Time(t.Value(i, dateKey))
			if !ok {
				continue
			}
			remark := stripSupplement(normalize.Text(t.Value(i, model.RemarkColumn)))
			account := normalize.Text(t.Value(i, model.AccountColumn))
			if account == "" {
				account = normalize.Text(t.Value(i, model.TransferFromColumn))
			}
			if account == "" {
				account = unknownAccount
			}
			for _, amountKey := range model.AmountColumns(c) {
				if !t.HasColumn(amountKey) {
					continue
				}
				byAccount[account] = append(byAccount[account], baselineEntry{
					ts:     ts,
					amount: normalize.Amount(t.Value(i, amountKey)),
					remark: remark,
				})
			}
		}
		for _, list := range byAccount {
			sort.SliceStable(list, func(a, b int) bool { return list[a].ts.Before(list[b].ts) })
		}
		idx.entries[c] = byAccount
	}
	return idx
}

// Exists reports whether the baseline holds an entry in category c for
// account whose time and amount fall within tolerance. Remarks must match
// only when both sides have one. The first chronological match wins.
func (idx *BaselineIndex) Exists(c model.Category, account string, amount decimal.Decimal, ts time.Time, remark string) bool {
	account = normalize.Text(account)
	if account == "" {
		account = unknownAccount
	}
	candidates := idx.entries[c][account]
	remark = normalize.Text(remark)

	for _, e := range candidates {
		// Time first: it discards most of the history cheaply.
		if absDuration(e.ts.Sub(ts)) > idx.dateTolerance {
			continue
		}
		if e.amount.Sub(amount).Abs().GreaterThan(idx.amountTolerance) {
			continue
		}
		if remark != "" && e.remark != "" && remark != e.remark {
			continue
		}
		return true
	}
	return false
}

// Len returns the number of indexed entries.
func (idx *BaselineIndex) Len() int {
	n := 0
	for _, byAccount := range idx.entries {
		for _, list := range byAccount {
			n += len(list)
		}
	}
	return n
}

// ApplyBaselineDedupe skips every unfinalized record already present in the
// baseline. Returns the records it marked.
func ApplyBaselineDedupe(records []*model.Record, idx *BaselineIndex) []*model.Record {
	var marked []*model.Record
	for _, r := range records {
		if r.Finalized() {
			continue
		}
		if !idx.Exists(r.Category(), r.Account, r.Amount, r.Timestamp, r.Remark) {
			continue
		}
		if r.Skip(model.SkipDuplicateBaseline) {
			r.Meta.DuplicateWith = "baseline"
			marked = append(marked, r)
		}
	}
	return marked
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
