package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// WeChatWalletKeywords mark payment methods backed by the WeChat balance.
var WeChatWalletKeywords = []string{"零钱", "零钱通", "小金罐", "亲属卡"}

const (
	wechatAccount = "微信"
	wechatSource  = "微信支付"

	wechatColTime     = "交易时间"
	wechatColCounter  = "交易对方"
	wechatColProduct  = "商品"
	wechatColFlow     = "收/支"
	wechatColAmount   = "金额(元)"
	wechatColPay      = "支付方式"
	wechatColStatus   = "当前状态"
	wechatColTradeID  = "交易单号"
	wechatColRemark   = "备注"
	wechatFlowExpense = "支出"
	wechatFlowIncome  = "收入"
)

// WeChatParser parses WeChat Pay bill CSV exports.
type WeChatParser struct{}

// Format returns the parser name.
func (p *WeChatParser) Format() string { return "wechat" }

// Parse reads a WeChat CSV. Rows that are neither 支出 nor 收入 (internal
// moves between balances) and zero-amount rows are dropped. Card-funded
// rows are kept as supplement-only.
func (p *WeChatParser) Parse(r io.Reader) ([]*model.Record, error) {
	t, err := readTable(r, wechatColTime)
	if err != nil {
		return nil, err
	}

	var records []*model.Record
	for i, row := range t.rows {
		rec, err := parseWeChatRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseWeChatRow(t *table, row []string) (*model.Record, error) {
	flow := t.get(row, wechatColFlow)
	if flow != wechatFlowExpense && flow != wechatFlowIncome {
		return nil, nil
	}
	rawTime := t.get(row, wechatColTime)
	if rawTime == "" {
		return nil, nil
	}
	ts, ok := normalize.Time(rawTime)
	if !ok {
		return nil, fmt.Errorf("parsing time %q", rawTime)
	}
	amount := normalize.Amount(t.get(row, wechatColAmount))
	if amount.IsZero() {
		return nil, nil
	}

	var remark []string
	if v := t.get(row, wechatColRemark); v != "" && v != "/" {
		remark = append(remark, v)
	}
	if v := t.get(row, wechatColStatus); v != "" {
		remark = append(remark, "状态: "+v)
	}
	if v := t.get(row, wechatColProduct); v != "" && v != "/" {
		remark = append(remark, "商品: "+v)
	}

	params := model.Params{
		Timestamp: ts,
		Amount:    amount,
		Account:   wechatAccount,
		Remark:    strings.Join(remark, "; "),
		Source:    wechatSource,
	}
	counterparty := t.get(row, wechatColCounter)
	if counterparty == "/" {
		counterparty = ""
	}

	var rec *model.Record
	if flow == wechatFlowExpense {
		rec = model.NewExpense(params, counterparty)
	} else {
		rec = model.NewIncome(params, counterparty, "")
	}
	rec.RawID = t.get(row, wechatColTradeID)

	payment := t.get(row, wechatColPay)
	annotate(rec, model.ExtraPayMethod, payment)
	if !IsWalletFunded(payment, WeChatWalletKeywords) {
		markCardFunded(rec)
	}
	return rec, nil
}
