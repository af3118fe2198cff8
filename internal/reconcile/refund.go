package reconcile

import (
	"sort"
	"time"

	"github.com/cleared-dev/walletrecon/internal/model"
)

// DefaultRefundWindow bounds the gap between a charge and its refund.
const DefaultRefundWindow = 30 * 24 * time.Hour

type refundKey struct {
	account string
	match   string
	amount  string
}

type refundBucket struct {
	expenses []*model.Record
	incomes  []*model.Record
}

// ApplyRefundPairs cancels expense/income pairs that share account, matching
// key and exact amount and lie within window of each other. Pairing is greedy
// per bucket: the earliest heads are compared, and a head too far from the
// other side's head is dropped when it is the earlier one. Returns the
// records it canceled.
func ApplyRefundPairs(records []*model.Record, window time.Duration) []*model.Record {
	buckets := make(map[refundKey]*refundBucket)
	var order []refundKey

	for _, r := range records {
		c := r.Category()
		if c != model.CategoryExpense && c != model.CategoryIncome {
			continue
		}
		if r.Finalized() || r.Meta.SupplementOnly {
			continue
		}
		key := refundKey{account: r.Account, match: r.MatchKey(), amount: r.Amount.Abs().StringFixed(2)}
		b, ok := buckets[key]
		if !ok {
			b = &refundBucket{}
			buckets[key] = b
			order = append(order, key)
		}
		if c == model.CategoryExpense {
			b.expenses = append(b.expenses, r)
		} else {
			b.incomes = append(b.incomes, r)
		}
	}

	var canceled []*model.Record
	for _, key := range order {
		b := buckets[key]
		if len(b.expenses) == 0 || len(b.incomes) == 0 {
			continue
		}
		canceled = append(canceled, pairBucket(b, window)...)
	}
	return canceled
}

func pairBucket(b *refundBucket, window time.Duration) []*model.Record {
	byTime := func(list []*model.Record) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	}
	byTime(b.expenses)
	byTime(b.incomes)

	var canceled []*model.Record
	exp, inc := b.expenses, b.incomes
	for len(exp) > 0 && len(inc) > 0 {
		e, i := exp[0], inc[0]
		if absDuration(e.Timestamp.Sub(i.Timestamp)) > window {
			if e.Timestamp.Before(i.Timestamp) {
				exp = exp[1:]
			} else {
				inc = inc[1:]
			}
			continue
		}
		e.Cancel(model.SkipRefundMatched)
		i.Cancel(model.SkipRefundMatched)
		e.Meta.DuplicateWith = i.ID
		i.Meta.DuplicateWith = e.ID
		canceled = append(canceled, e, i)
		exp, inc = exp[1:], inc[1:]
	}
	return canceled
}
