package model

// Category is the ledger sheet a record belongs to.
type Category string

const (
	CategoryExpense  Category = "expense"
	CategoryIncome   Category = "income"
	CategoryTransfer Category = "transfer"
	CategoryBorrow   Category = "borrow"
	CategoryRepay    Category = "repay"
)

// Categories lists every category in ledger sheet order.
var Categories = []Category{
	CategoryExpense,
	CategoryIncome,
	CategoryTransfer,
	CategoryBorrow,
	CategoryRepay,
}

var sheetNames = map[Category]string{
	CategoryExpense:  "支出",
	CategoryIncome:   "收入",
	CategoryTransfer: "转账",
	CategoryBorrow:   "借入借出",
	CategoryRepay:    "收款还款",
}

// Sheet returns the ledger sheet name, e.g. "支出" for expenses.
func (c Category) Sheet() string {
	return sheetNames[c]
}

// CategoryFromSheet maps a ledger sheet name back to its category.
func CategoryFromSheet(sheet string) (Category, bool) {
	for c, name := range sheetNames {
		if name == sheet {
			return c, true
		}
	}
	return "", false
}

// Direction is the money flow of a record. Amounts never carry a sign.
type Direction string

const (
	DirectionExpense  Direction = "expense"
	DirectionIncome   Direction = "income"
	DirectionTransfer Direction = "transfer"
)

// SkipReason explains why a record is excluded from output.
type SkipReason string

const (
	SkipAccountLocked     SkipReason = "account-locked"
	SkipRefundMatched     SkipReason = "refund-matched"
	SkipDuplicateBaseline SkipReason = "duplicate-baseline"
	SkipNonWalletPayment  SkipReason = "non-wallet-payment"
	SkipMergedWithRebate  SkipReason = "merged-with-rebate"
	SkipChannelDuplicate  SkipReason = "channel-duplicate"
	SkipUserSkip          SkipReason = "user-skip"
	SkipUserAbort         SkipReason = "user-abort"
)

// ChannelKind groups channels by how they relate to each other during
// supplementation: wallet exports enrich card statements.
type ChannelKind string

const (
	ChannelWallet ChannelKind = "wallet"
	ChannelCard   ChannelKind = "card"
	ChannelBank   ChannelKind = "bank"
)
