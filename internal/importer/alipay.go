package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// AlipayWalletKeywords mark payment methods backed by Alipay's own funds.
var AlipayWalletKeywords = []string{"余额", "余额宝", "花呗", "余利宝"}

const (
	alipayAccount   = "支付宝"
	alipayHuabei    = "花呗"
	alipaySource    = "支付宝"
	alipayColTime   = "交易时间"
	alipayColKind   = "交易分类"
	alipayColCount  = "交易对方"
	alipayColDesc   = "商品说明"
	alipayColFlow   = "收/支"
	alipayColAmount = "金额"
	alipayColPay    = "收/付款方式"
	alipayColStatus = "交易状态"
	alipayColOrder  = "交易订单号"
	alipayColMerch  = "商家订单号"
	alipayFlowOut   = "支出"
	alipayFlowIn    = "收入"
	alipayFlowNone  = "不计收支"
	alipayRefund    = "退款"
)

// AlipayParser parses Alipay transaction detail CSV exports, which are GBK
// encoded behind a preamble of account information.
type AlipayParser struct{}

// Format returns the parser name.
func (p *AlipayParser) Format() string { return "alipay" }

// Parse reads an Alipay CSV. UTF-8 input is accepted as-is. 不计收支 rows
// are kept only when they are refunds, as income.
func (p *AlipayParser) Parse(r io.Reader) ([]*model.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading alipay export: %w", err)
	}
	if !utf8.Valid(data) {
		data, err = simplifiedchinese.GBK.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding GBK: %w", err)
		}
	}

	t, err := readTable(bytes.NewReader(data), alipayColTime)
	if err != nil {
		return nil, err
	}

	var records []*model.Record
	for i, row := range t.rows {
		rec, err := parseAlipayRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseAlipayRow(t *table, row []string) (*model.Record, error) {
	flow := t.get(row, alipayColFlow)
	if flow != alipayFlowOut && flow != alipayFlowIn && flow != alipayFlowNone {
		return nil, nil
	}
	rawTime := t.get(row, alipayColTime)
	if rawTime == "" {
		return nil, nil
	}
	ts, ok := normalize.Time(rawTime)
	if !ok {
		return nil, fmt.Errorf("parsing time %q", rawTime)
	}
	amount := normalize.Amount(t.get(row, alipayColAmount))
	if amount.IsZero() {
		return nil, nil
	}

	status := t.get(row, alipayColStatus)
	payment := t.get(row, alipayColPay)
	walletFunded := IsWalletFunded(payment, AlipayWalletKeywords)

	account := payment
	switch {
	case strings.Contains(payment, alipayHuabei):
		account = alipayHuabei
	case walletFunded || payment == "":
		account = alipayAccount
	}

	params := model.Params{
		Timestamp: ts,
		Amount:    amount,
		Account:   account,
		Remark:    t.get(row, alipayColDesc),
		Source:    alipaySource,
	}
	counterparty := t.get(row, alipayColCount)

	var rec *model.Record
	switch flow {
	case alipayFlowOut:
		rec = model.NewExpense(params, counterparty)
	case alipayFlowIn:
		rec = model.NewIncome(params, counterparty, "")
	default:
		if t.get(row, alipayColKind) != alipayRefund && !strings.Contains(status, alipayRefund) {
			return nil, nil
		}
		rec = model.NewIncome(params, counterparty, model.RefundClass)
	}

	rec.RawID = t.get(row, alipayColOrder)
	if rec.RawID == "" {
		rec.RawID = t.get(row, alipayColMerch)
	}
	annotate(rec, model.ExtraPayMethod, payment, model.ExtraStatus, status)
	if !walletFunded {
		markCardFunded(rec)
	}
	return rec, nil
}
