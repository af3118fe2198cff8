package importer

import (
	"fmt"
	"io"

	"github.com/cleared-dev/walletrecon/internal/id"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

const (
	citicAccount   = "中信银行信用卡"
	citicColDate   = "交易日期"
	citicColDesc   = "交易描述"
	citicColAmount = "交易金额"
	citicColTail   = "卡末四位"
)

// CITICParser parses CITIC Bank credit card statement CSV exports.
type CITICParser struct{}

// Format returns the parser name.
func (p *CITICParser) Format() string { return "citic" }

// Parse reads a CITIC CSV. Negative amounts are refunds and become income.
func (p *CITICParser) Parse(r io.Reader) ([]*model.Record, error) {
	t, err := readTable(r, citicColDate)
	if err != nil {
		return nil, err
	}

	var records []*model.Record
	for i, row := range t.rows {
		rec, err := parseCITICRow(t, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseCITICRow(t *table, row []string) (*model.Record, error) {
	rawDate := t.get(row, citicColDate)
	if rawDate == "" {
		return nil, nil
	}
	ts, ok := normalize.Time(rawDate)
	if !ok {
		return nil, fmt.Errorf("parsing date %q", rawDate)
	}
	amount := normalize.Amount(t.get(row, citicColAmount))
	if amount.IsZero() {
		return nil, nil
	}

	description := t.get(row, citicColDesc)
	account := citicAccount
	if tail := t.get(row, citicColTail); tail != "" {
		account = fmt.Sprintf("%s(%s)", citicAccount, tail)
	}
	params := model.Params{
		Timestamp: ts,
		Amount:    amount.Abs(),
		Account:   account,
		Source:    citicAccount,
	}

	var rec *model.Record
	if amount.IsNegative() {
		rec = model.NewIncome(params, description, model.RefundClass)
	} else {
		rec = model.NewExpense(params, description)
	}
	merchant := merchantName(description)
	rec.Meta.Merchant = merchant
	rec.Meta.MatchingKey = merchant
	if merchant == "" {
		rec.Meta.MatchingKey = description
	}
	rec.RawID = id.Ref(rawDate, description)
	annotate(rec)
	return rec, nil
}
