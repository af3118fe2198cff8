package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

const cmbDebitAccount = "招商银行储蓄卡"

// Extras keys for CMB debit rows.
const (
	cmbDebitExtraCurrency     = "币种"
	cmbDebitExtraBalance      = "联机余额"
	cmbDebitExtraDescription  = "交易摘要"
	cmbDebitExtraCounterparty = "对手信息"
)

var (
	cmbDebitLayout = pdfLayout{
		columns: []pdfColumn{
			{"date", 0, 90},
			{"currency", 90, 140},
			{"amount", 150, 220},
			{"balance", 220, 300},
			{"description", 300, 410},
			{"counterparty", 410, 600},
		},
		footerTop: 740,
		rowStart:  regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	}
	cmbDebitAccountNumber = regexp.MustCompile(`账号[:：]\s*(\d+)`)
)

// CMBDebitParser parses China Merchants Bank debit card transaction PDFs.
type CMBDebitParser struct{}

// Format returns the parser name.
func (p *CMBDebitParser) Format() string { return "cmb-debit" }

// Parse reads a CMB debit PDF. Positive amounts are income, negative ones
// expenses; both are left unclassified.
func (p *CMBDebitParser) Parse(r io.Reader) ([]*model.Record, error) {
	pages, err := readPDFWords(r)
	if err != nil {
		return nil, err
	}
	return parseCMBDebitPages(pages)
}

func parseCMBDebitPages(pages [][]pdfWord) ([]*model.Record, error) {
	rows, err := cmbDebitLayout.allRows(pages)
	if err != nil {
		return nil, err
	}
	account := cmbDebitAccount
	if m := cmbDebitAccountNumber.FindStringSubmatch(pageText(pages[0])); m != nil && len(m[1]) >= 4 {
		account = fmt.Sprintf("%s(%s)", cmbDebitAccount, m[1][len(m[1])-4:])
	}

	var records []*model.Record
	for i, row := range rows {
		rec, err := parseCMBDebitRow(row, account)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseCMBDebitRow(row pdfRow, account string) (*model.Record, error) {
	rawDate := row.join("date", "")
	rawAmount := row.join("amount", "")
	amount := normalize.Amount(rawAmount)
	if amount.IsZero() {
		return nil, nil
	}
	ts, ok := normalize.Time(rawDate)
	if !ok {
		return nil, fmt.Errorf("parsing date %q", rawDate)
	}

	description := row.join("description", " ")
	counterparty := row.join("counterparty", " ")
	params := model.Params{
		Timestamp: ts,
		Amount:    amount.Abs(),
		Account:   account,
		Remark:    description,
		Source:    cmbDebitAccount,
	}

	var rec *model.Record
	if amount.IsPositive() {
		rec = model.NewIncome(params, counterparty, model.Unclassified)
	} else {
		rec = model.NewExpense(params, counterparty)
	}
	rec.Meta.MatchingKey = counterparty
	if counterparty == "" {
		rec.Meta.MatchingKey = description
	}
	rec.RawID = strings.Join([]string{rawDate, rawAmount, description, counterparty}, "-")
	annotate(rec,
		cmbDebitExtraCurrency, row.join("currency", ""),
		cmbDebitExtraBalance, row.join("balance", ""),
		cmbDebitExtraDescription, description,
		cmbDebitExtraCounterparty, counterparty,
	)
	return rec, nil
}
