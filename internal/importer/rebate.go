package importer

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/walletrecon/internal/model"
)

const (
	// RebateMerchant prefixes UnionPay cash-back lines on CMB statements.
	RebateMerchant = "银联Pay境内返现"
	// RebateReversal names a net-negative rebate.
	RebateReversal = "银联Pay境内返现调回"
)

// isRebate reports whether r is a UnionPay cash-back or reversal line,
// judged by the full statement description.
func isRebate(r *model.Record) bool {
	var name string
	switch d := r.Details.(type) {
	case *model.Expense:
		name = d.Merchant
	case *model.Income:
		name = d.Payer
	default:
		return false
	}
	if name == "" {
		name = r.Meta.Merchant
	}
	return strings.HasPrefix(name, RebateMerchant)
}

// mergeRebates folds every open rebate line into one record dated at the
// earliest line and appends it. Expenses count positive and incomes
// negative; the absorbed lines are canceled but kept for the audit trail.
// A zero net appends nothing.
func mergeRebates(records []*model.Record) []*model.Record {
	var lines []*model.Record
	for _, r := range records {
		if r.Finalized() || !isRebate(r) {
			continue
		}
		lines = append(lines, r)
	}
	if len(lines) == 0 {
		return records
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Timestamp.Before(lines[j].Timestamp) })

	net := decimal.Zero
	for _, r := range lines {
		if r.Direction == model.DirectionIncome {
			net = net.Sub(r.Amount)
		} else {
			net = net.Add(r.Amount)
		}
		r.Cancel(model.SkipMergedWithRebate)
	}
	if net.IsZero() {
		return records
	}

	first := lines[0]
	p := model.Params{
		Timestamp: first.Timestamp,
		Amount:    net.Abs(),
		Account:   first.Account,
		Source:    first.Source,
	}
	var merged *model.Record
	if net.IsPositive() {
		merged = model.NewExpense(p, RebateMerchant)
	} else {
		merged = model.NewIncome(p, RebateReversal, model.RefundClass)
	}
	return append(records, merged)
}
