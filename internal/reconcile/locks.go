package reconcile

import (
	"time"

	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// DefaultLockRemarks are the remarks that mark a manual balance correction.
var DefaultLockRemarks = []string{"余额调整产生的烂账"}

// BuildAccountLocks scans the baseline for rows whose remark is one of
// remarks and returns, per account root, the latest such timestamp.
func BuildAccountLocks(book *ledger.Book, remarks []string) map[string]time.Time {
	if len(remarks) == 0 {
		remarks = DefaultLockRemarks
	}
	triggers := make(map[string]bool, len(remarks))
	for _, r := range remarks {
		triggers[normalize.Text(r)] = true
	}

	locks := make(map[string]time.Time)
	for _, c := range model.Categories {
		t := book.Table(c)
		dateKey := model.DateColumn(c)
		if !t.HasColumn(dateKey) {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			if !triggers[normalize.Text(t.Value(i, model.RemarkColumn))] {
				continue
			}
			ts, ok := normalize.Time(t.Value(i, dateKey))
			if !ok {
				continue
			}
			account := normalize.AccountRoot(normalize.Text(t.Value(i, model.AccountColumn)))
			if account == "" {
				continue
			}
			if current, ok := locks[account]; !ok || ts.After(current) {
				locks[account] = ts
			}
		}
	}
	return locks
}

// ApplyAccountLocks skips every unfinalized record whose account root is
// locked at or after its timestamp. Returns the records it marked.
func ApplyAccountLocks(records []*model.Record, locks map[string]time.Time) []*model.Record {
	if len(locks) == 0 {
		return nil
	}
	var marked []*model.Record
	for _, r := range records {
		if r.Finalized() {
			continue
		}
		lock, ok := locks[normalize.AccountRoot(normalize.Text(r.Account))]
		if !ok || r.Timestamp.After(lock) {
			continue
		}
		if r.Skip(model.SkipAccountLocked) {
			marked = append(marked, r)
		}
	}
	return marked
}
