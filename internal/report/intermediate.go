package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cleared-dev/walletrecon/internal/ledger"
	"github.com/cleared-dev/walletrecon/internal/model"
)

// WriteIntermediate dumps one channel's parsed records as ledger CSVs under
// dir/<channel>/, one file per category. Supplement-only records are left
// out; every other record is written whatever its status.
func WriteIntermediate(dir, channel string, records []*model.Record) (string, error) {
	out := filepath.Join(dir, sanitize(channel))
	book := ledger.NewBook()
	for _, r := range records {
		if r.Meta.SupplementOnly {
			continue
		}
		book.Table(r.Category()).AppendRecord(r)
	}
	if err := ledger.Save(out, book); err != nil {
		return "", fmt.Errorf("writing %s intermediate: %w", channel, err)
	}
	return out, nil
}

// sanitize keeps letters, digits, '-' and '_', lower-cased.
func sanitize(name string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return unicode.ToLower(r)
		}
		return -1
	}, name)
	if s == "" {
		return "channel"
	}
	return s
}
