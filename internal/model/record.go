package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/walletrecon/internal/id"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// Meta is the side-channel attached to a Record. It is never written to the ledger.
type Meta struct {
	BaseRemark       string // remark as parsed, before source annotation
	Merchant         string // normalized merchant or payer
	MatchingKey      string // stable cross-channel join key
	Extras           Extras
	Channel          string // e.g. "wechat"
	ChannelLabel     string // e.g. "微信支付"
	ChannelKind      ChannelKind
	SupplementOnly   bool   // kept only to enrich other records
	DuplicateWith    string // counterpart record ID or "baseline"
	SupplementedFrom string // channel that contributed remark context
	Accepted         bool
}

// Record is one normalized transaction. Category is fixed by Details at
// construction; Canceled and SkippedReason only ever move from unset to set.
type Record struct {
	ID            string
	Timestamp     time.Time
	Amount        decimal.Decimal // always >= 0, 2 decimal places
	Direction     Direction
	Account       string
	Remark        string
	Source        string
	RawID         string
	Meta          Meta
	Canceled      bool
	SkippedReason SkipReason
	Details       Details
}

// Params holds the fields shared by every record constructor.
type Params struct {
	Timestamp time.Time
	Amount    decimal.Decimal
	Account   string
	Remark    string
	Source    string
}

func newRecord(p Params, dir Direction, details Details) *Record {
	remark := normalize.Text(p.Remark)
	return &Record{
		ID:        id.New(),
		Timestamp: p.Timestamp.In(normalize.Location),
		Amount:    p.Amount.Abs().Round(2),
		Direction: dir,
		Account:   p.Account,
		Remark:    remark,
		Source:    p.Source,
		Meta: Meta{
			BaseRemark:  remark,
			MatchingKey: remark,
		},
		Details: details,
	}
}

func (r *Record) setCounterparty(name string) {
	name = normalize.Text(name)
	if name == "" {
		return
	}
	r.Meta.Merchant = name
	r.Meta.MatchingKey = name
}

// NewExpense creates an expense record. The matching key defaults to the
// merchant, falling back to the remark.
func NewExpense(p Params, merchant string) *Record {
	r := newRecord(p, DirectionExpense, &Expense{
		MainClass: Unclassified,
		SubClass:  Unclassified,
		Merchant:  normalize.Text(merchant),
	})
	r.setCounterparty(merchant)
	return r
}

// NewIncome creates an income record. The matching key defaults to the
// payer, falling back to the remark.
func NewIncome(p Params, payer, class string) *Record {
	if class == "" {
		class = Unclassified
	}
	r := newRecord(p, DirectionIncome, &Income{
		Class: class,
		Payer: normalize.Text(payer),
	})
	r.setCounterparty(payer)
	return r
}

// NewTransfer creates a transfer record; Account is the source account.
func NewTransfer(p Params, t Transfer) *Record {
	if t.FromAccount == "" {
		t.FromAccount = p.Account
	}
	if t.OutAmount.IsZero() {
		t.OutAmount = p.Amount.Abs().Round(2)
	}
	if t.InAmount.IsZero() {
		t.InAmount = t.OutAmount
	}
	return newRecord(p, DirectionTransfer, &t)
}

// NewBorrow creates a lend/borrow record.
func NewBorrow(p Params, b Borrow) *Record {
	if b.Type == "" {
		b.Type = BorrowOut
	}
	if b.CounterpartyAccount == "" {
		b.CounterpartyAccount = p.Account
	}
	dir := DirectionExpense
	if b.Type == BorrowIn {
		dir = DirectionIncome
	}
	return newRecord(p, dir, &b)
}

// NewRepay creates a collect/repay record.
func NewRepay(p Params, rp Repay) *Record {
	if rp.Type == "" {
		rp.Type = BorrowOut
	}
	if rp.CounterpartyAccount == "" {
		rp.CounterpartyAccount = p.Account
	}
	dir := DirectionIncome
	if rp.Type == BorrowIn {
		dir = DirectionExpense
	}
	return newRecord(p, dir, &rp)
}

// Category returns the ledger category, fixed by the record's variant.
func (r *Record) Category() Category {
	return r.Details.Category()
}

// MatchKey returns the matching key, falling back to the normalized remark.
func (r *Record) MatchKey() string {
	if r.Meta.MatchingKey != "" {
		return r.Meta.MatchingKey
	}
	return normalize.Text(r.Remark)
}

// Skip sets the skip reason unless the record is already finalized.
// Reports whether the reason was applied.
func (r *Record) Skip(reason SkipReason) bool {
	if r.Finalized() {
		return false
	}
	r.SkippedReason = reason
	return true
}

// Cancel marks the record canceled, recording reason when none is set yet.
func (r *Record) Cancel(reason SkipReason) {
	r.Canceled = true
	if r.SkippedReason == "" {
		r.SkippedReason = reason
	}
}

// Finalized reports whether an earlier stage already excluded the record.
func (r *Record) Finalized() bool {
	return r.Canceled || r.SkippedReason != ""
}

// Actionable reports whether the record is still a candidate for import.
func (r *Record) Actionable() bool {
	return !r.Finalized() && !r.Meta.SupplementOnly
}

// Status summarizes the record's outcome for reports.
func (r *Record) Status() string {
	switch {
	case r.Canceled:
		return "canceled"
	case r.SkippedReason != "":
		return "skipped"
	case r.Meta.Accepted:
		return "accepted"
	default:
		return "pending"
	}
}

// Row renders the record as a ledger row in column order, filling defaults.
func (r *Record) Row() []string {
	c := r.Category()
	fields := r.Details.fields(r)
	columns := Columns(c)
	row := make([]string, len(columns))
	for i, col := range columns {
		v := fields[col.Key]
		if v == "" {
			v = DefaultValue(c, col.Key)
		}
		row[i] = v
	}
	return row
}
