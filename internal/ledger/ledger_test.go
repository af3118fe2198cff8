package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

func expense(t time.Time, amount, account, remark string) *model.Record {
	return model.NewExpense(model.Params{
		Timestamp: t,
		Amount:    decimal.RequireFromString(amount),
		Account:   account,
		Remark:    remark,
	}, "")
}

func at(day, hour int) time.Time {
	return time.Date(2025, 10, day, hour, 0, 0, 0, normalize.Location)
}

func TestReadTable(t *testing.T) {
	input := "\ufeff账户,消费日期,消费金额,备注\n微信,2025-10-11 12:25:03,10.00,测试\n,,,\n"
	tbl, err := ReadTable(strings.NewReader(input), model.CategoryExpense)
	require.NoError(t, err)

	require.Equal(t, 1, tbl.Len(), "blank rows are dropped")
	assert.Equal(t, "微信", tbl.Value(0, "账户"))
	assert.Equal(t, "10.00", tbl.Value(0, "消费金额"))
	assert.Equal(t, "", tbl.Value(0, "商家"), "missing column reads empty")
	assert.False(t, tbl.HasColumn("商家"))
}

func TestReadTable_Empty(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(""), model.CategoryIncome)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Len(t, tbl.Columns, len(model.Columns(model.CategoryIncome)))
}

func TestReadTable_TooManyFields(t *testing.T) {
	_, err := ReadTable(strings.NewReader("账户,备注\n微信,a,b\n"), model.CategoryExpense)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected at most 2 fields")
}

func TestReadTable_DuplicateHeaders(t *testing.T) {
	input := "转出账户,币种,转出金额,转入账户,币种,转入金额,转账时间,备注,账本\n微信,人民币,100.00,小金罐,美元,14.00,2025-10-11 14:00:00,,日常账本\n"
	tbl, err := ReadTable(strings.NewReader(input), model.CategoryTransfer)
	require.NoError(t, err)
	assert.Equal(t, "人民币", tbl.Value(0, "币种"))
	assert.Equal(t, "美元", tbl.Value(0, "币种.1"))
}

func TestWriteReadRoundTrip(t *testing.T) {
	tbl := NewTable(model.CategoryExpense)
	tbl.AppendRecord(expense(at(11, 12), "10", "微信", "测试"))

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))
	assert.True(t, strings.HasPrefix(buf.String(), "\ufeff支出大类,"))

	got, err := ReadTable(&buf, model.CategoryExpense)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, tbl.Rows[0], got.Rows[0])
}

func TestAppendRecord_ForeignColumnOrder(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("备注,消费金额,账户,自定义\n"), model.CategoryExpense)
	require.NoError(t, err)

	tbl.AppendRecord(expense(at(11, 12), "10", "微信", "测试"))
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"测试", "10.00", "微信", ""}, tbl.Rows[0])
}

func TestSortByDate(t *testing.T) {
	input := "账户,消费日期,消费金额\nb,2025/10/12 08:00:00,2\nx,garbage,9\na,2025-10-11 12:00:00,1\n"
	tbl, err := ReadTable(strings.NewReader(input), model.CategoryExpense)
	require.NoError(t, err)

	tbl.SortByDate()
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "a", tbl.Value(0, "账户"))
	assert.Equal(t, "b", tbl.Value(1, "账户"))
	assert.Equal(t, "2025-10-12 08:00:00", tbl.Value(1, "消费日期"), "dates are rewritten in ledger layout")
	assert.Equal(t, "x", tbl.Value(2, "账户"), "unparseable dates sort last")
}

func TestBook_AppendRecordsFiltersExcluded(t *testing.T) {
	ok := expense(at(11, 12), "10", "微信", "正常记录")
	supplementOnly := expense(at(11, 13), "10", "微信", "补充记录")
	supplementOnly.Meta.SupplementOnly = true
	canceled := expense(at(11, 14), "10", "微信", "已取消记录")
	canceled.Cancel(model.SkipRefundMatched)
	skipped := expense(at(11, 15), "10", "微信", "已跳过记录")
	skipped.Skip(model.SkipDuplicateBaseline)

	book := NewBook()
	n := book.AppendRecords([]*model.Record{ok, supplementOnly, canceled, skipped})
	assert.Equal(t, 1, n)

	tbl := book.Table(model.CategoryExpense)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "正常记录", tbl.Value(0, "备注"))
	assert.Equal(t, 1, book.Len())
}

func TestBook_CloneIsDeep(t *testing.T) {
	book := NewBook()
	book.AppendRecords([]*model.Record{expense(at(11, 12), "10", "微信", "a")})

	clone := book.Clone()
	clone.Table(model.CategoryExpense).Rows[0][0] = "changed"
	clone.AppendRecords([]*model.Record{expense(at(12, 12), "10", "微信", "b")})

	assert.Equal(t, model.Unclassified, book.Table(model.CategoryExpense).Rows[0][0])
	assert.Equal(t, 1, book.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestLoadSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "baseline")
	book := NewBook()
	book.AppendRecords([]*model.Record{expense(at(11, 12), "10", "微信", "测试")})
	require.NoError(t, Save(dir, book))

	for _, c := range model.Categories {
		_, err := os.Stat(filepath.Join(dir, FileName(c)))
		require.NoError(t, err, "%s should exist", FileName(c))
	}

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, "测试", got.Table(model.CategoryExpense).Value(0, "备注"))
}

func TestLoad_MissingCategoryIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "支出.csv"), []byte("账户,消费日期,消费金额,备注\n微信,2025-10-11 12:25:03,10.00,测试\n"), 0o644))

	book, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Table(model.CategoryExpense).Len())
	assert.Equal(t, 0, book.Table(model.CategoryTransfer).Len())
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBaselineNotFound)
}
