package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

func at(day, hour, minute, sec int) time.Time {
	return time.Date(2025, 10, day, hour, minute, sec, 0, normalize.Location)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expense(ts time.Time, amount, account, merchant, remark string) *model.Record {
	return model.NewExpense(model.Params{
		Timestamp: ts,
		Amount:    dec(amount),
		Account:   account,
		Remark:    remark,
	}, merchant)
}

func income(ts time.Time, amount, account, payer, remark string) *model.Record {
	return model.NewIncome(model.Params{
		Timestamp: ts,
		Amount:    dec(amount),
		Account:   account,
		Remark:    remark,
	}, payer, "")
}

// bookFrom builds a baseline from CSV text per category.
func bookFrom(t *testing.T, sheets map[model.Category]string) *ledger.Book {
	t.Helper()
	book := ledger.NewBook()
	for c, text := range sheets {
		tbl, err := ledger.ReadTable(strings.NewReader(text), c)
		require.NoError(t, err)
		book.Set(tbl)
	}
	return book
}
