package model

import "strconv"

// Column is one ledger column. Key is unique within a sheet; Header is what
// the workbook shows, and may repeat (the transfer sheet has two 币种 columns).
type Column struct {
	Key    string
	Header string
}

// NewColumns builds columns from a header row, suffixing repeated headers
// with ".1", ".2" so keys stay unique.
func NewColumns(headers ...string) []Column {
	out := make([]Column, len(headers))
	seen := make(map[string]int)
	for i, h := range headers {
		key := h
		if n := seen[h]; n > 0 {
			key = h + "." + strconv.Itoa(n)
		}
		seen[h]++
		out[i] = Column{Key: key, Header: h}
	}
	return out
}

var sheetColumns = map[Category][]Column{
	CategoryExpense:  NewColumns("支出大类", "支出小类", "账户", "币种", "项目", "商家", "报销", "消费日期", "消费金额", "成员金额", "备注", "账本"),
	CategoryIncome:   NewColumns("收入大类", "账户", "币种", "项目", "付款方", "收入日期", "收入金额", "成员金额", "备注", "账本"),
	CategoryTransfer: NewColumns("转出账户", "币种", "转出金额", "转入账户", "币种", "转入金额", "转账时间", "备注", "账本"),
	CategoryBorrow:   NewColumns("借贷类型", "借贷时间", "借贷账户", "账户", "金额", "备注", "账本"),
	CategoryRepay:    NewColumns("借贷类型", "借贷时间", "借贷账户", "账户", "金额", "利息", "备注", "账本"),
}

var dateColumns = map[Category]string{
	CategoryExpense:  "消费日期",
	CategoryIncome:   "收入日期",
	CategoryTransfer: "转账时间",
	CategoryBorrow:   "借贷时间",
	CategoryRepay:    "借贷时间",
}

var amountColumns = map[Category][]string{
	CategoryExpense:  {"消费金额"},
	CategoryIncome:   {"收入金额"},
	CategoryTransfer: {"转出金额", "转入金额"},
	CategoryBorrow:   {"金额"},
	CategoryRepay:    {"金额"},
}

var defaultValues = map[Category]map[string]string{
	CategoryExpense: {
		"支出大类": Unclassified,
		"支出小类": Unclassified,
		"项目":   "日常",
		"报销":   "非报销",
		"币种":   DefaultCurrency,
		"账本":   DefaultLedger,
	},
	CategoryIncome: {
		"收入大类": Unclassified,
		"项目":   "日常",
		"币种":   DefaultCurrency,
		"账本":   DefaultLedger,
	},
	CategoryTransfer: {
		"币种":   DefaultCurrency,
		"币种.1": DefaultCurrency,
		"账本":   DefaultLedger,
	},
	CategoryBorrow: {
		"账本": DefaultLedger,
	},
	CategoryRepay: {
		"账本": DefaultLedger,
		"利息": "0",
	},
}

const (
	// Unclassified is the placeholder category for imported rows.
	Unclassified = "待分类"
	// RefundClass is the income category used for refunds and rebates.
	RefundClass     = "退款返款"
	DefaultCurrency = "人民币"
	DefaultLedger   = "日常账本"

	// AccountColumn and RemarkColumn are shared by most sheets.
	AccountColumn = "账户"
	RemarkColumn  = "备注"
	// TransferFromColumn stands in for AccountColumn on the transfer sheet.
	TransferFromColumn = "转出账户"
)

// Columns returns the ordered ledger columns for c.
func Columns(c Category) []Column {
	return sheetColumns[c]
}

// DateColumn returns the key of the column holding the timestamp for c.
func DateColumn(c Category) string {
	return dateColumns[c]
}

// AmountColumns returns the keys of the amount columns for c. Transfers
// have one per leg.
func AmountColumns(c Category) []string {
	return amountColumns[c]
}

// DefaultValue returns the value written when a record leaves column key empty.
func DefaultValue(c Category, key string) string {
	return defaultValues[c][key]
}
