package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// SupplementMarker opens every remark fragment added by supplementation.
const SupplementMarker = "来源补充("

// DefaultProviders are payment providers that card statements put in front
// of the real merchant, e.g. "支付宝-美团外卖".
var DefaultProviders = []string{"支付宝", "财付通", "微信支付", "京东支付", "美团支付", "云闪付"}

// SupplementCardRemarks appends wallet-side context to matching card records.
// A wallet record matches a card record when it shares the card's merchant
// (after provider stripping), names the card in its payment method, has the
// same direction, and lies within both tolerances. The first match in time
// order wins. Only Remark and Meta.SupplementedFrom change. Returns the
// records it enriched.
func SupplementCardRemarks(records []*model.Record, amountTolerance decimal.Decimal, dateTolerance time.Duration, providers []string) []*model.Record {
	if providers == nil {
		providers = DefaultProviders
	}
	amountTolerance = amountTolerance.Abs()

	wallets := make(map[string][]*model.Record)
	for _, r := range records {
		if r.Meta.ChannelKind != model.ChannelWallet || r.Canceled || r.Meta.SupplementOnly {
			continue
		}
		key := walletKey(r)
		if key == "" {
			continue
		}
		wallets[key] = append(wallets[key], r)
	}
	for _, list := range wallets {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	}

	var enriched []*model.Record
	for _, r := range records {
		if !supplementCandidate(r) {
			continue
		}
		key := normalize.StripProvider(cardMerchant(r), providers)
		if key == "" {
			continue
		}
		for _, w := range wallets[key] {
			if !fundedBy(w, r.Account) {
				continue
			}
			if w.Direction != r.Direction {
				continue
			}
			if absDuration(w.Timestamp.Sub(r.Timestamp)) > dateTolerance {
				continue
			}
			if w.Amount.Sub(r.Amount).Abs().GreaterThan(amountTolerance) {
				continue
			}
			if appendSupplement(r, w) {
				enriched = append(enriched, r)
			}
			break
		}
	}
	return enriched
}

func supplementCandidate(r *model.Record) bool {
	if r.Meta.ChannelKind != model.ChannelCard || r.Canceled {
		return false
	}
	if r.Direction != model.DirectionExpense && r.Direction != model.DirectionIncome {
		return false
	}
	return r.SkippedReason == "" || r.SkippedReason == model.SkipChannelDuplicate
}

func walletKey(r *model.Record) string {
	if r.Meta.Merchant != "" {
		return r.Meta.Merchant
	}
	return r.Meta.MatchingKey
}

func cardMerchant(r *model.Record) string {
	if r.Meta.Merchant != "" {
		return r.Meta.Merchant
	}
	return r.MatchKey()
}

// fundedBy reports whether wallet record w was paid with the given card,
// judged by its payment-method field naming the card or the card's root.
func fundedBy(w *model.Record, cardAccount string) bool {
	cardAccount = normalize.Text(cardAccount)
	if cardAccount == "" {
		return false
	}
	pay := normalize.Text(w.Meta.Extras.Get(model.ExtraPayMethod))
	if pay == "" {
		return false
	}
	if strings.Contains(pay, cardAccount) {
		return true
	}
	root := normalize.AccountRoot(cardAccount)
	return root != "" && strings.Contains(pay, root)
}

func appendSupplement(card, wallet *model.Record) bool {
	base := wallet.Meta.BaseRemark
	if base == "" {
		return false
	}
	existing := card.Remark
	if strings.Contains(existing, base) && strings.Contains(existing, SupplementMarker) {
		return false
	}
	label := wallet.Meta.ChannelLabel
	if label == "" {
		label = wallet.Source
	}
	if label == "" {
		label = wallet.Meta.Channel
	}
	fragment := SupplementMarker + label + "): " + base
	if existing == "" {
		card.Remark = fragment
	} else {
		card.Remark = existing + "; " + fragment
	}
	card.Meta.SupplementedFrom = wallet.Meta.Channel
	return true
}

// stripSupplement removes supplemented context from a remark so a ledger row
// written after supplementation still matches the record before it.
func stripSupplement(remark string) string {
	if strings.HasPrefix(remark, SupplementMarker) {
		return ""
	}
	if i := strings.Index(remark, "; "+SupplementMarker); i >= 0 {
		return strings.TrimSpace(remark[:i])
	}
	return remark
}
