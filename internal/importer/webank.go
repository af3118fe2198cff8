package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

const webankAccount = "微众银行"

// Extras keys for WeBank rows.
const (
	webankExtraCounterpartyAccount = "对方账号"
	webankExtraCounterpartyBank    = "对方行名"
	webankExtraCard                = "交易卡号"
	webankExtraBalance             = "交易后余额"
	webankExtraDescription         = "摘要"
	webankExtraRemark              = "备注"
)

var (
	webankLayout = pdfLayout{
		columns: []pdfColumn{
			{"date", 0, 80},
			{"counterparty", 80, 140},
			{"counterparty_account", 140, 228},
			{"counterparty_bank", 228, 288},
			{"description", 288, 348},
			{"remark", 348, 388},
			{"card", 388, 468},
			{"amount", 468, 528},
			{"balance", 528, 620},
		},
		footerTop: 760,
		footer: []*regexp.Regexp{
			regexp.MustCompile(`^第\d+页$`),
			regexp.MustCompile(`^共\d+页$`),
			regexp.MustCompile(`^打印时间[:：]`),
			regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`),
		},
		rowStart: regexp.MustCompile(`^\d{8}$`),
	}
	webankAccountNumber = regexp.MustCompile(`(?:账号/卡号：|Account/Card No\.：)\s*(\d{8,})`)
)

// WeBankParser parses WeBank account statement PDFs.
type WeBankParser struct{}

// Format returns the parser name.
func (p *WeBankParser) Format() string { return "webank" }

// Parse reads a WeBank PDF. Negative amounts are expenses paid to the
// counterparty, positive ones unclassified income.
func (p *WeBankParser) Parse(r io.Reader) ([]*model.Record, error) {
	pages, err := readPDFWords(r)
	if err != nil {
		return nil, err
	}
	return parseWeBankPages(pages)
}

func parseWeBankPages(pages [][]pdfWord) ([]*model.Record, error) {
	rows, err := webankLayout.allRows(pages)
	if err != nil {
		return nil, err
	}
	var number string
	if m := webankAccountNumber.FindStringSubmatch(pageText(pages[0])); m != nil {
		number = m[1]
	}
	account := webankAccount
	if number != "" {
		account = fmt.Sprintf("%s(%s)", webankAccount, number[len(number)-4:])
	}

	var records []*model.Record
	for i, row := range rows {
		rec, err := parseWeBankRow(row, account, number)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func parseWeBankRow(row pdfRow, account, number string) (*model.Record, error) {
	rawDate := row.join("date", "")
	rawAmount := row.join("amount", "")
	amount := normalize.Amount(rawAmount)
	if amount.IsZero() {
		return nil, nil
	}
	ts, ok := normalize.Time(webankDate(rawDate))
	if !ok {
		return nil, fmt.Errorf("parsing date %q", rawDate)
	}

	counterparty := row.join("counterparty", " ")
	description := row.join("description", " ")
	remark := row.join("remark", " ")
	card := row.join("card", " ")
	params := model.Params{
		Timestamp: ts,
		Amount:    amount.Abs(),
		Account:   account,
		Remark:    remark,
		Source:    webankAccount,
	}
	if params.Remark == "" {
		params.Remark = description
	}

	var rec *model.Record
	if amount.IsNegative() {
		rec = model.NewExpense(params, counterparty)
	} else {
		rec = model.NewIncome(params, counterparty, model.Unclassified)
	}
	rec.Meta.MatchingKey = counterparty
	if counterparty == "" {
		rec.Meta.MatchingKey = params.Remark
	}
	rec.RawID = strings.Join([]string{rawDate, description, rawAmount, card}, "-")
	annotate(rec,
		webankExtraCounterpartyAccount, ownAccountRemoved(row.join("counterparty_account", " "), number),
		webankExtraCounterpartyBank, row.join("counterparty_bank", " "),
		webankExtraCard, card,
		webankExtraBalance, row.join("balance", ""),
		webankExtraDescription, description,
		webankExtraRemark, remark,
	)
	return rec, nil
}

// webankDate turns "20251011" into "2025-10-11".
func webankDate(s string) string {
	if len(s) == 8 {
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return s
}

// ownAccountRemoved drops the statement's own account number from a
// counterparty account cell, where WeBank repeats it for internal moves.
func ownAccountRemoved(s, number string) string {
	if number == "" || s == "" {
		return s
	}
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if f != number {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
