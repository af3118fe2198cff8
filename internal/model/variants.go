package model

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// Details is the closed set of per-category record variants. Each variant
// knows its category and how to lay itself out as a ledger row.
type Details interface {
	Category() Category
	fields(r *Record) map[string]string
}

// Borrow types shared by the lend/borrow and collect/repay sheets.
const (
	BorrowOut = "借出"
	BorrowIn  = "借入"
)

// Expense is a 支出 row.
type Expense struct {
	MainClass    string
	SubClass     string
	Currency     string
	Project      string
	Merchant     string
	Reimburse    string
	MemberAmount string
	Ledger       string
}

// Income is a 收入 row.
type Income struct {
	Class        string
	Currency     string
	Project      string
	Payer        string
	MemberAmount string
	Ledger       string
}

// Transfer is a 转账 row. Each leg has its own amount and currency.
type Transfer struct {
	FromAccount  string
	ToAccount    string
	FromCurrency string
	ToCurrency   string
	OutAmount    decimal.Decimal
	InAmount     decimal.Decimal
	Ledger       string
}

// Borrow is a 借入借出 row.
type Borrow struct {
	Type                string
	LoanAccount         string
	CounterpartyAccount string
	Ledger              string
}

// Repay is a 收款还款 row.
type Repay struct {
	Type                string
	LoanAccount         string
	CounterpartyAccount string
	Interest            string
	Ledger              string
}

func (*Expense) Category() Category  { return CategoryExpense }
func (*Income) Category() Category   { return CategoryIncome }
func (*Transfer) Category() Category { return CategoryTransfer }
func (*Borrow) Category() Category   { return CategoryBorrow }
func (*Repay) Category() Category    { return CategoryRepay }

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (e *Expense) fields(r *Record) map[string]string {
	return map[string]string{
		"支出大类": e.MainClass,
		"支出小类": e.SubClass,
		"账户":   r.Account,
		"币种":   e.Currency,
		"项目":   e.Project,
		"商家":   e.Merchant,
		"报销":   e.Reimburse,
		"消费日期": normalize.FormatTime(r.Timestamp),
		"消费金额": money(r.Amount),
		"成员金额": e.MemberAmount,
		"备注":   r.Remark,
		"账本":   e.Ledger,
	}
}

func (i *Income) fields(r *Record) map[string]string {
	return map[string]string{
		"收入大类": i.Class,
		"账户":   r.Account,
		"币种":   i.Currency,
		"项目":   i.Project,
		"付款方":  i.Payer,
		"收入日期": normalize.FormatTime(r.Timestamp),
		"收入金额": money(r.Amount),
		"成员金额": i.MemberAmount,
		"备注":   r.Remark,
		"账本":   i.Ledger,
	}
}

func (t *Transfer) fields(r *Record) map[string]string {
	return map[string]string{
		"转出账户": t.FromAccount,
		"币种":   t.FromCurrency,
		"转出金额": money(t.OutAmount),
		"转入账户": t.ToAccount,
		"币种.1": t.ToCurrency,
		"转入金额": money(t.InAmount),
		"转账时间": normalize.FormatTime(r.Timestamp),
		"备注":   r.Remark,
		"账本":   t.Ledger,
	}
}

func (b *Borrow) fields(r *Record) map[string]string {
	return map[string]string{
		"借贷类型": b.Type,
		"借贷时间": normalize.FormatTime(r.Timestamp),
		"借贷账户": b.LoanAccount,
		"账户":   b.CounterpartyAccount,
		"金额":   money(r.Amount),
		"备注":   r.Remark,
		"账本":   b.Ledger,
	}
}

func (rp *Repay) fields(r *Record) map[string]string {
	return map[string]string{
		"借贷类型": rp.Type,
		"借贷时间": normalize.FormatTime(r.Timestamp),
		"借贷账户": rp.LoanAccount,
		"账户":   rp.CounterpartyAccount,
		"金额":   money(r.Amount),
		"利息":   rp.Interest,
		"备注":   r.Remark,
		"账本":   rp.Ledger,
	}
}
