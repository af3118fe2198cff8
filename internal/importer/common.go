package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

var (
	cardKeywords      = []string{"信用卡", "储蓄卡", "借记卡", "银行卡"}
	cardKeywordsLatin = []string{"visa", "mastercard", "amex", "american express", "discover", "jcb", "unionpay"}
)

// IsWalletFunded reports whether a payment method draws on a wallet's own
// balance rather than a linked card. Unknown methods count as wallet-funded.
func IsWalletFunded(payment string, walletKeywords []string) bool {
	payment = normalize.Text(payment)
	for _, k := range walletKeywords {
		if strings.Contains(payment, k) {
			return true
		}
	}
	for _, k := range cardKeywords {
		if strings.Contains(payment, k) {
			return false
		}
	}
	lower := strings.ToLower(payment)
	for _, k := range cardKeywordsLatin {
		if strings.Contains(lower, k) {
			return false
		}
	}
	return true
}

// annotate stores non-empty extras on the record and appends source, raw id
// and the extras to the remark. kv alternates key and value.
func annotate(r *model.Record, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		if v := normalize.Text(kv[i+1]); v != "" {
			r.Meta.Extras.Set(kv[i], v)
		}
	}
	parts := []string{"来源: " + r.Source}
	if r.RawID != "" {
		parts = append(parts, "ID: "+r.RawID)
	}
	if r.Meta.Extras.Len() > 0 {
		parts = append(parts, r.Meta.Extras.String())
	}
	annotation := strings.Join(parts, "; ")
	if r.Remark != "" {
		r.Remark = normalize.Text(r.Remark + "; " + annotation)
	} else {
		r.Remark = normalize.Text(annotation)
	}
}

// markCardFunded keeps a card-funded wallet row only for supplementation.
func markCardFunded(r *model.Record) {
	r.Skip(model.SkipNonWalletPayment)
	r.Meta.SupplementOnly = true
}

// merchantName drops the channel prefix from a card statement description:
// "财付通－美团外卖" -> "美团外卖".
func merchantName(description string) string {
	for _, sep := range []string{"－", "-"} {
		if _, rest, ok := strings.Cut(description, sep); ok {
			return normalize.Text(rest)
		}
	}
	return description
}

// table is a delimited export located by its header row.
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) get(row []string, name string) string {
	i, ok := t.columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return normalize.Text(row[i])
}

// readTable reads CSV from r and returns the rows after the first row whose
// first cell is marker. Exports carry free-form preambles of varying length.
func readTable(r io.Reader, marker string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	for i, rec := range records {
		if len(rec) == 0 || normalize.Text(strings.TrimPrefix(rec[0], "\ufeff")) != marker {
			continue
		}
		columns := make(map[string]int, len(rec))
		for j, h := range rec {
			h = normalize.Text(strings.TrimPrefix(h, "\ufeff"))
			if _, dup := columns[h]; !dup && h != "" {
				columns[h] = j
			}
		}
		return &table{columns: columns, rows: records[i+1:]}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingHeader, marker)
}
