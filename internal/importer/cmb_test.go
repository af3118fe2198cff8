package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

func TestCMBParser_Parse(t *testing.T) {
	records, err := ParseFile(&CMBParser{}, "../../testdata/cmb_statement.eml")
	require.NoError(t, err)
	require.Len(t, records, 5, "four statement rows plus the merged rebate")

	rebate := records[0]
	assert.True(t, rebate.Canceled)
	assert.Equal(t, model.SkipMergedWithRebate, rebate.SkippedReason)
	assert.Equal(t, model.CategoryIncome, rebate.Category())
	assert.Equal(t, "2024-12-20 00:00:00", normalize.FormatTime(rebate.Timestamp), "December belongs to the cycle's first year")
	assert.Equal(t, "3.00", rebate.Amount.StringFixed(2))
	assert.Equal(t, "招商银行信用卡(1129)", rebate.Account)
	assert.True(t, strings.HasPrefix(rebate.Details.(*model.Income).Payer, "银联Pay境内返现"))
	assert.Equal(t, "退款/还款", rebate.Meta.BaseRemark)

	meal := records[1]
	assert.Equal(t, model.CategoryExpense, meal.Category())
	assert.Equal(t, "12.50", meal.Amount.StringFixed(2))
	assert.Equal(t, "美团外卖", meal.Meta.Merchant)
	assert.Equal(t, "记账: 2024-12-29; 地点: CN", meal.Meta.BaseRemark)
	assert.Equal(t, "1129", meal.Meta.Extras.Get(model.ExtraCardTail))

	apple := records[2]
	assert.Equal(t, "2025-01-05 00:00:00", normalize.FormatTime(apple.Timestamp), "January belongs to the cycle's last year")
	assert.Equal(t, "招商银行信用卡(5678)", apple.Account)
	assert.Equal(t, "1228_财付通-美团外卖", meal.RawID)
	assert.Equal(t, "0105_APPLE.COM/BILL_9.99 USD", apple.RawID)
	assert.Contains(t, apple.Remark, "原币金额: 9.99 USD")

	merged := records[4]
	assert.Equal(t, model.CategoryIncome, merged.Category())
	assert.Equal(t, RebateReversal, merged.Meta.Merchant)
	assert.Equal(t, "3.00", merged.Amount.StringFixed(2))
	assert.True(t, merged.Timestamp.Equal(rebate.Timestamp), "dated at the rebate line")
	assert.False(t, merged.Finalized())
}

func TestCMBParser_MissingTable(t *testing.T) {
	eml := "Content-Type: text/html; charset=utf-8\r\n\r\n<html><body><p>no table</p></body></html>\r\n"
	_, err := (&CMBParser{}).Parse(strings.NewReader(eml))
	assert.ErrorIs(t, err, ErrMissingSelector)
}

func TestCMBParser_NoHTMLPart(t *testing.T) {
	eml := "Content-Type: text/plain\r\n\r\nhello\r\n"
	_, err := (&CMBParser{}).Parse(strings.NewReader(eml))
	assert.ErrorIs(t, err, ErrMissingSelector)
}

func TestCMBParser_QuotedPrintableGBK(t *testing.T) {
	// "招商" in GBK is D5 D0 C9 CC.
	eml := "Content-Type: text/html; charset=gbk\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"<div id=3D\"loopBand2\"><table><tr><td>" +
		"<div>20250103</div><div>20250104</div><div>=D5=D0=C9=CC</div><div>5.00</div><div></div><div></div><div></div>" +
		"</td></tr></table></div>\r\n"

	records, err := (&CMBParser{}).Parse(strings.NewReader(eml))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "招商", records[0].Meta.Merchant)
	assert.Equal(t, "招商银行信用卡", records[0].Account)
	assert.Equal(t, "2025-01-03 00:00:00", normalize.FormatTime(records[0].Timestamp))
}

func TestBillingCycleResolve(t *testing.T) {
	c, ok := parseCycle("周期 2024/12/15-2025/01/14")
	require.True(t, ok)

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1220", "2024-12-20", true},
		{"0110", "2025-01-10", true},
		{"2025/01/10", "2025-01-10", true},
		{"0230", "", false},
		{"1320", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := c.resolve(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}
