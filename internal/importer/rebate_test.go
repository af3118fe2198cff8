package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

func rebateParams(hour, minute int, amount, account string) model.Params {
	return model.Params{
		Timestamp: time.Date(2025, 10, 12, hour, minute, 0, 0, normalize.Location),
		Amount:    decimal.RequireFromString(amount),
		Account:   account,
		Source:    cmbAccount,
	}
}

func TestMergeRebates(t *testing.T) {
	tests := []struct {
		name      string
		expenses  []string
		incomes   []string
		wantNone  bool
		wantCat   model.Category
		wantTotal string
	}{
		{"net positive", []string{"100.00"}, []string{"50.00"}, false, model.CategoryExpense, "50.00"},
		{"several lines", []string{"100.00", "50.00"}, []string{"30.00"}, false, model.CategoryExpense, "120.00"},
		{"net negative", []string{"50.00"}, []string{"100.00"}, false, model.CategoryIncome, "50.00"},
		{"net zero", []string{"100.00"}, []string{"100.00"}, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []*model.Record
			for i, a := range tt.expenses {
				lines = append(lines, model.NewExpense(rebateParams(10, i, a, "招商银行信用卡(1129)"), "银联Pay境内返现-美团(商城)(云闪付)-A"))
			}
			for i, a := range tt.incomes {
				lines = append(lines, model.NewIncome(rebateParams(11, i, a, "招商银行信用卡(5678)"), "银联Pay境内返现调回-携程旅行网-Apple Pay", model.RefundClass))
			}
			unrelated := model.NewExpense(rebateParams(9, 0, "8.00", "招商银行信用卡(1129)"), "星巴克")
			records := append([]*model.Record{unrelated}, lines...)

			got := mergeRebates(records)

			for _, r := range lines {
				assert.True(t, r.Canceled)
				assert.Equal(t, model.SkipMergedWithRebate, r.SkippedReason)
			}
			assert.False(t, unrelated.Finalized())

			if tt.wantNone {
				assert.Len(t, got, len(records))
				return
			}
			require.Len(t, got, len(records)+1)
			merged := got[len(got)-1]
			assert.Equal(t, tt.wantCat, merged.Category())
			assert.Equal(t, tt.wantTotal, merged.Amount.StringFixed(2))
			assert.True(t, merged.Timestamp.Equal(lines[0].Timestamp), "dated at the earliest line")
			assert.Equal(t, "招商银行信用卡(1129)", merged.Account)
			if tt.wantCat == model.CategoryExpense {
				assert.Equal(t, RebateMerchant, merged.Meta.Merchant)
			} else {
				assert.Equal(t, RebateReversal, merged.Meta.Merchant)
				assert.Equal(t, model.RefundClass, merged.Details.(*model.Income).Class)
			}
		})
	}
}

func TestMergeRebates_None(t *testing.T) {
	records := []*model.Record{model.NewExpense(rebateParams(9, 0, "8.00", "招商银行信用卡(1129)"), "星巴克")}
	assert.Equal(t, records, mergeRebates(records))
	assert.False(t, records[0].Finalized())
}
