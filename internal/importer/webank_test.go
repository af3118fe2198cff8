package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

func webankPage() []pdfWord {
	return []pdfWord{
		word("账号/卡号：", 10, 40),
		word("6236001234567890", 80, 40),

		word("20251011", 10, 100),
		word("美团", 90, 100),
		word("6236001234567890", 150, 100),
		word("微众银行", 235, 100),
		word("快捷支付", 295, 100),
		word("午饭", 355, 100),
		word("1234", 395, 100),
		word("-25.00", 475, 100),
		word("975.00", 535, 100),

		word("20251012", 10, 130),
		word("利息", 295, 130),
		word("1.20", 475, 130),
		word("976.20", 535, 130),

		word("20251013", 10, 160),
		word("0.00", 475, 160),

		word("第1页", 280, 770),
	}
}

func TestWeBankParser_Parse(t *testing.T) {
	records, err := parseWeBankPages([][]pdfWord{webankPage()})
	require.NoError(t, err)
	require.Len(t, records, 2, "zero amounts are dropped")

	exp := records[0]
	assert.Equal(t, model.CategoryExpense, exp.Category())
	assert.Equal(t, "微众银行(7890)", exp.Account)
	assert.Equal(t, "25.00", exp.Amount.StringFixed(2))
	assert.True(t, exp.Timestamp.Equal(time.Date(2025, 10, 11, 0, 0, 0, 0, normalize.Location)))
	assert.Equal(t, "美团", exp.Meta.Merchant)
	assert.Equal(t, "美团", exp.Meta.MatchingKey)
	assert.Equal(t, "20251011-快捷支付--25.00-1234", exp.RawID)
	assert.Equal(t, "", exp.Meta.Extras.Get(webankExtraCounterpartyAccount), "own account number is dropped")
	assert.Equal(t, "微众银行", exp.Meta.Extras.Get(webankExtraCounterpartyBank))
	assert.Equal(t, "1234", exp.Meta.Extras.Get(webankExtraCard))
	assert.Equal(t, "975.00", exp.Meta.Extras.Get(webankExtraBalance))
	assert.Equal(t, "午饭", exp.Meta.Extras.Get(webankExtraRemark))
	assert.Contains(t, exp.Remark, "午饭; 来源: 微众银行")
	assert.Contains(t, exp.Remark, "摘要: 快捷支付")

	inc := records[1]
	assert.Equal(t, model.CategoryIncome, inc.Category())
	assert.Equal(t, "1.20", inc.Amount.StringFixed(2))
	assert.Equal(t, model.Unclassified, inc.Details.(*model.Income).Class)
	assert.Equal(t, "利息", inc.Meta.MatchingKey, "falls back to the description")
	assert.Contains(t, inc.Remark, "利息")
}

func TestWeBankParser_NoAccountNumber(t *testing.T) {
	records, err := parseWeBankPages([][]pdfWord{webankPage()[2:]})
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, webankAccount, records[0].Account)
	assert.Equal(t, "6236001234567890", records[0].Meta.Extras.Get(webankExtraCounterpartyAccount))
}

func TestWeBankParser_Errors(t *testing.T) {
	_, err := parseWeBankPages([][]pdfWord{{word("账号/卡号：", 10, 40)}})
	assert.ErrorIs(t, err, ErrMissingLayout)

	_, err = parseWeBankPages([][]pdfWord{{word("20251399", 10, 100), word("-1.00", 475, 100)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestOwnAccountRemoved(t *testing.T) {
	assert.Equal(t, "6222 0001", ownAccountRemoved("6222 6236001234567890 0001", "6236001234567890"))
	assert.Equal(t, "6222", ownAccountRemoved("6222", ""))
	assert.Equal(t, "", ownAccountRemoved("6236001234567890", "6236001234567890"))
}
