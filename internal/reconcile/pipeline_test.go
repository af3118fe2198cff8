package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/model"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "0.01", opts.AmountTolerance.StringFixed(2))
	assert.Equal(t, 48*time.Hour, opts.DateTolerance)
	assert.Equal(t, 30*24*time.Hour, opts.RefundWindow)
	assert.True(t, opts.AccountLock)
}

func TestPipeline_BaselineDuplicateScenario(t *testing.T) {
	book := bookFrom(t, map[model.Category]string{model.CategoryExpense: expenseBaseline})
	r := expense(at(11, 12, 25, 3), "10.00", "微信", "", "测试")
	r.Meta.ChannelKind = model.ChannelWallet

	records, st := New(DefaultOptions(), zaptest.NewLogger(t)).Run([]*model.Record{r}, book)

	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, model.SkipDuplicateBaseline, r.SkippedReason)
	assert.Empty(t, Actionable(records))
}

func TestPipeline_StageOrder(t *testing.T) {
	book := bookFrom(t, map[model.Category]string{
		model.CategoryExpense: "账户,消费日期,消费金额,备注\n" +
			"招商银行信用卡(1129),2025-10-05 00:00:00,0.00,余额调整产生的烂账\n" +
			"微信,2025-10-11 12:25:03,10.00,测试\n",
	})

	locked := expense(at(4, 10, 0, 0), "30.00", "招商银行信用卡(1129)", "京东", "")
	lockedRefund := income(at(4, 11, 0, 0), "30.00", "招商银行信用卡(1129)", "京东", "")
	e := expense(at(11, 12, 0, 0), "50.00", "微信", "美团", "")
	i := income(at(11, 13, 0, 0), "50.00", "微信", "美团", "")
	dup := expense(at(11, 12, 25, 3), "10.00", "微信", "", "测试")
	fresh := expense(at(12, 8, 0, 0), "7.00", "微信", "包子铺", "早饭")

	opts := DefaultOptions()
	records, st := New(opts, nil).Run([]*model.Record{locked, lockedRefund, e, i, dup, fresh}, book)

	assert.Equal(t, model.SkipAccountLocked, locked.SkippedReason)
	assert.Equal(t, model.SkipAccountLocked, lockedRefund.SkippedReason)
	assert.False(t, locked.Canceled, "locked records never enter refund pairing")
	assert.Equal(t, model.SkipRefundMatched, e.SkippedReason)
	assert.Equal(t, model.SkipRefundMatched, i.SkippedReason)
	assert.Equal(t, model.SkipDuplicateBaseline, dup.SkippedReason)
	assert.Equal(t, []*model.Record{fresh}, Actionable(records))
	assert.Equal(t, Stats{Locked: 2, RefundPaired: 2, Duplicates: 1, Locks: 1, BaselineSize: 2}, st)
}

func TestPipeline_AccountLockDisabled(t *testing.T) {
	book := bookFrom(t, map[model.Category]string{
		model.CategoryExpense: "账户,消费日期,消费金额,备注\n微信,2025-10-05 00:00:00,0.00,余额调整产生的烂账\n",
	})
	r := expense(at(4, 10, 0, 0), "30.00", "微信", "京东", "")

	opts := DefaultOptions()
	opts.AccountLock = false
	_, st := New(opts, nil).Run([]*model.Record{r}, book)

	assert.Zero(t, st.Locked)
	assert.Empty(t, r.SkippedReason)
}

// channelRecords simulates parsing the same exports twice: fresh records
// with identical content on every call.
func channelRecords() []*model.Record {
	card := expense(at(11, 12, 30, 0), "20.00", "中信银行信用卡(1129)", "财付通-美团外卖", "来源: 中信银行信用卡")
	card.Meta.ChannelKind = model.ChannelCard
	card.Meta.Channel = "citic"

	wallet := expense(at(11, 12, 0, 0), "20.00", "亲属卡", "美团外卖", "午饭")
	wallet.Meta.ChannelKind = model.ChannelWallet
	wallet.Meta.Channel = "wechat"
	wallet.Meta.ChannelLabel = "微信支付"
	wallet.Meta.Extras.Set(model.ExtraPayMethod, "中信银行信用卡(1129)")

	return []*model.Record{
		card,
		wallet,
		expense(at(11, 8, 0, 0), "7.00", "微信", "包子铺", "早饭"),
		model.NewTransfer(model.Params{Timestamp: at(11, 9, 0, 0), Amount: dec("100.00"), Account: "微信"}, model.Transfer{ToAccount: "零钱通"}),
		expense(at(12, 10, 0, 0), "50.00", "微信", "美团", ""),
		income(at(12, 11, 0, 0), "50.00", "微信", "美团", ""),
		expense(at(12, 10, 0, 0), "3.00", "招商银行信用卡(1129)", "滴滴出行", ""),
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	baseline := bookFrom(t, map[model.Category]string{model.CategoryExpense: expenseBaseline})
	p := New(DefaultOptions(), zaptest.NewLogger(t))

	first, _ := p.Run(channelRecords(), baseline)
	res, err := Resolve(first, AutoConfirm{})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 5)

	var card *model.Record
	for _, r := range res.Accepted {
		if r.Meta.Channel == "citic" {
			card = r
		}
	}
	require.NotNil(t, card)
	assert.Contains(t, card.Remark, "来源补充(微信支付): 午饭")

	next := baseline.Clone()
	assert.Equal(t, 5, next.AppendRecords(res.Accepted))
	roundTrip := roundTripBook(t, next)

	second, _ := p.Run(channelRecords(), roundTrip)
	res2, err := Resolve(second, AutoConfirm{})
	require.NoError(t, err)
	assert.Empty(t, res2.Accepted)
}

func roundTripBook(t *testing.T, book *ledger.Book) *ledger.Book {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, ledger.Save(dir, book))
	loaded, err := ledger.Load(dir)
	require.NoError(t, err)
	return loaded
}

type scripted struct {
	answers []Decision
	err     error
	asked   int
}

func (s *scripted) Confirm(*model.Record) (Decision, error) {
	if s.asked >= len(s.answers) {
		return 0, s.err
	}
	d := s.answers[s.asked]
	s.asked++
	return d, nil
}

func openRecords(n int) []*model.Record {
	out := make([]*model.Record, n)
	for i := range out {
		out[i] = expense(at(11, i, 0, 0), "1.00", "微信", "", "")
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		answers []Decision
		want    []model.SkipReason
		asked   int
	}{
		{"accept and reject", []Decision{Accept, Reject, Accept, Accept}, []model.SkipReason{"", model.SkipUserSkip, "", ""}, 4},
		{"accept all", []Decision{Reject, AcceptAll}, []model.SkipReason{model.SkipUserSkip, "", "", ""}, 2},
		{"skip all", []Decision{Accept, SkipAll}, []model.SkipReason{"", model.SkipUserSkip, model.SkipUserSkip, model.SkipUserSkip}, 2},
		{"abort", []Decision{Accept, Abort}, []model.SkipReason{"", model.SkipUserAbort, model.SkipUserAbort, model.SkipUserAbort}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := openRecords(4)
			c := &scripted{answers: tt.answers}

			res, err := Resolve(records, c)
			require.NoError(t, err)

			assert.Equal(t, tt.asked, c.asked)
			accepted := 0
			for i, r := range records {
				assert.Equal(t, tt.want[i], r.SkippedReason, "record %d", i)
				if tt.want[i] == "" {
					accepted++
					assert.True(t, r.Meta.Accepted)
				}
			}
			assert.Len(t, res.Accepted, accepted)
			assert.Equal(t, 4-accepted, res.Skipped)
			assert.Zero(t, res.Pending)
		})
	}
}

func TestResolve_ConfirmError(t *testing.T) {
	records := openRecords(3)
	boom := errors.New("stdin closed")

	res, err := Resolve(records, &scripted{answers: []Decision{Accept}, err: boom})

	require.ErrorIs(t, err, boom)
	assert.Len(t, res.Accepted, 1)
	assert.Equal(t, 2, res.Pending)
}

func TestResolve_SkipsExcluded(t *testing.T) {
	records := openRecords(3)
	records[0].Cancel(model.SkipRefundMatched)
	records[1].Meta.SupplementOnly = true
	records[1].Skip(model.SkipNonWalletPayment)

	res, err := Resolve(records, nil)
	require.NoError(t, err)

	assert.Equal(t, []*model.Record{records[2]}, res.Accepted)
	assert.Equal(t, 1, res.Canceled)
	assert.Equal(t, 1, res.Skipped)
}
