package importer

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

func byRawID(records []*model.Record) map[string]*model.Record {
	out := make(map[string]*model.Record, len(records))
	for _, r := range records {
		out[r.RawID] = r
	}
	return out
}

func TestWeChatParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/wechat_bill.csv")
	require.NoError(t, err)

	records, err := (&WeChatParser{}).Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, records, 3, "internal transfers and zero amounts are dropped")

	got := byRawID(records)

	wallet := got["ID_WALLET"]
	require.NotNil(t, wallet)
	assert.Equal(t, model.CategoryExpense, wallet.Category())
	assert.Equal(t, "微信", wallet.Account)
	assert.Equal(t, "10.00", wallet.Amount.StringFixed(2))
	assert.Equal(t, "2025-10-11 12:25:03", normalize.FormatTime(wallet.Timestamp))
	assert.Equal(t, "商户甲", wallet.Meta.MatchingKey)
	assert.Equal(t, "测试钱包支付; 状态: 支付成功; 商品: 商品A", wallet.Meta.BaseRemark)
	assert.Equal(t, "测试钱包支付; 状态: 支付成功; 商品: 商品A; 来源: 微信支付; ID: ID_WALLET; 支付方式: 零钱", wallet.Remark)
	assert.Equal(t, "零钱", wallet.Meta.Extras.Get(model.ExtraPayMethod))
	assert.Empty(t, wallet.SkippedReason)
	assert.False(t, wallet.Meta.SupplementOnly)

	card := got["ID_CARD"]
	require.NotNil(t, card)
	assert.Equal(t, model.SkipNonWalletPayment, card.SkippedReason)
	assert.True(t, card.Meta.SupplementOnly)
	assert.Equal(t, "状态: 支付成功; 商品: 午饭", card.Meta.BaseRemark)

	income := got["ID_INCOME"]
	require.NotNil(t, income)
	assert.Equal(t, model.CategoryIncome, income.Category())
	assert.Equal(t, "张三", income.Meta.Merchant)
	assert.Empty(t, income.SkippedReason)
}

func TestWeChatParser_MissingHeader(t *testing.T) {
	_, err := (&WeChatParser{}).Parse(strings.NewReader("微信支付账单明细\n"))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestWeChatParser_BadTime(t *testing.T) {
	input := "交易时间,交易对方,收/支,金额(元),支付方式\nyesterday,商户,支出,¥1.00,零钱\n"
	_, err := (&WeChatParser{}).Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing time")
}
