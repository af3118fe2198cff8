package ledger

import (
	"sort"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// Table holds one category's rows. Columns come from the file header, so a
// baseline with extra or reordered columns still reads correctly.
type Table struct {
	Category model.Category
	Columns  []model.Column
	Rows     [][]string
	index    map[string]int
}

// NewTable returns an empty table with the category's standard columns.
func NewTable(c model.Category) *Table {
	return newTable(c, model.Columns(c))
}

func newTable(c model.Category, columns []model.Column) *Table {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col.Key] = i
	}
	return &Table{Category: c, Columns: columns, index: index}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the table has a column with the given key.
func (t *Table) HasColumn(key string) bool {
	_, ok := t.index[key]
	return ok
}

// Value returns row i's value for column key, or "" when absent.
func (t *Table) Value(i int, key string) string {
	col, ok := t.index[key]
	if !ok || col >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][col]
}

// AppendRecord adds r, mapping its standard row onto this table's columns.
// Columns the record does not know are left empty.
func (t *Table) AppendRecord(r *model.Record) {
	values := make(map[string]string)
	std := model.Columns(r.Category())
	row := r.Row()
	for i, col := range std {
		values[col.Key] = row[i]
	}
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = values[col.Key]
	}
	t.Rows = append(t.Rows, out)
}

// SortByDate orders rows by the category's date column, oldest first, and
// rewrites parseable dates in the ledger layout. Rows with unparseable dates
// keep their relative order at the end.
func (t *Table) SortByDate() {
	key := model.DateColumn(t.Category)
	col, ok := t.index[key]
	if !ok || len(t.Rows) == 0 {
		return
	}

	type keyed struct {
		row    []string
		parsed bool
		unix   int64
	}
	items := make([]keyed, len(t.Rows))
	for i, row := range t.Rows {
		items[i].row = row
		if col >= len(row) {
			continue
		}
		if ts, ok := normalize.Time(row[col]); ok {
			items[i].parsed = true
			items[i].unix = ts.Unix()
			row[col] = normalize.FormatTime(ts)
		}
	}
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].parsed != items[b].parsed {
			return items[a].parsed
		}
		return items[a].unix < items[b].unix
	})
	for i := range items {
		t.Rows[i] = items[i].row
	}
}

func (t *Table) clone() *Table {
	c := newTable(t.Category, append([]model.Column(nil), t.Columns...))
	c.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// Book is a ledger: one table per category.
type Book struct {
	tables map[model.Category]*Table
}

// NewBook returns a book with an empty table for every category.
func NewBook() *Book {
	b := &Book{tables: make(map[model.Category]*Table, len(model.Categories))}
	for _, c := range model.Categories {
		b.tables[c] = NewTable(c)
	}
	return b
}

// Table returns the table for c. Never nil.
func (b *Book) Table(c model.Category) *Table {
	t, ok := b.tables[c]
	if !ok {
		t = NewTable(c)
		b.tables[c] = t
	}
	return t
}

// Set replaces the table for its category.
func (b *Book) Set(t *Table) {
	b.tables[t.Category] = t
}

// Len returns the total row count across categories.
func (b *Book) Len() int {
	n := 0
	for _, t := range b.tables {
		n += t.Len()
	}
	return n
}

// Clone returns a deep copy.
func (b *Book) Clone() *Book {
	c := &Book{tables: make(map[model.Category]*Table, len(b.tables))}
	for cat, t := range b.tables {
		c.tables[cat] = t.clone()
	}
	return c
}

// AppendRecords adds every record that may reach output: not canceled, not
// skipped, not supplement-only. Returns the number appended.
func (b *Book) AppendRecords(records []*model.Record) int {
	n := 0
	for _, r := range records {
		if r.Finalized() || r.Meta.SupplementOnly {
			continue
		}
		b.Table(r.Category()).AppendRecord(r)
		n++
	}
	return n
}

// SortByDate sorts every table by its date column.
func (b *Book) SortByDate() {
	for _, t := range b.tables {
		t.SortByDate()
	}
}
