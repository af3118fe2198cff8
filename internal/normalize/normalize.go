package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Location is the reference timezone every channel timestamp is fixed to.
// Mainland China has had no DST since 1991, so a fixed offset is exact.
var Location = time.FixedZone("CST", 8*60*60)

// TimeLayout is the ledger's timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{
	TimeLayout,
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-01-02 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
}

// Text NFKC-normalizes and trims s. "Ａｌｉｐａｙ " -> "Alipay".
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Amount parses a money value and rounds it half-up to 2 decimal places.
// Unparseable or empty input yields zero; currency symbols and thousands
// separators are dropped before a second attempt.
func Amount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.Round(2)
	}
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// Time parses s in the reference timezone. Values carrying their own offset
// (RFC 3339) are converted into it. Returns false for empty or unknown input.
func Time(s string) (time.Time, bool) {
	s = Text(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, Location); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(Location), true
	}
	return time.Time{}, false
}

// FormatTime renders t in the ledger layout and reference timezone.
func FormatTime(t time.Time) string {
	return t.In(Location).Format(TimeLayout)
}

// AccountRoot strips a parenthesized suffix such as a card's last four digits.
// "招商银行信用卡(1129)" -> "招商银行信用卡"
func AccountRoot(account string) string {
	if i := strings.Index(account, "("); i > 0 {
		return strings.TrimSpace(account[:i])
	}
	return account
}

// StripProvider removes a leading payment-provider name and its separator.
// "支付宝-美团外卖" -> "美团外卖" when "支付宝" is a known provider.
func StripProvider(merchant string, providers []string) string {
	for _, p := range providers {
		if p == "" || !strings.HasPrefix(merchant, p) {
			continue
		}
		rest := strings.TrimSpace(merchant[len(p):])
		for _, sep := range []string{"-", "－"} {
			if strings.HasPrefix(rest, sep) {
				return strings.TrimSpace(rest[len(sep):])
			}
		}
	}
	return merchant
}

// ParseDuration accepts Go duration syntax plus a day suffix ("30d", "1.5d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing duration %q: %w", s, err)
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", s, err)
	}
	return d, nil
}

// FormatDuration renders whole days as "Nd" and everything else in Go syntax.
func FormatDuration(d time.Duration) string {
	day := 24 * time.Hour
	if d > 0 && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	return d.String()
}
