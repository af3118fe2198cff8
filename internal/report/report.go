package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// Entry is one row in the audit report: the outcome for a single record.
type Entry struct {
	RunID     string
	Category  string
	Account   string
	Timestamp string
	Amount    string
	Source    string
	Channel   string
	Remark    string
	Status    string
	Reason    string
}

// Header is the CSV header for the audit report.
const Header = "run_id,category,account,timestamp,amount,source,channel,remark,status,reason"

const (
	numFields    = 10
	colRunID     = 0
	colCategory  = 1
	colAccount   = 2
	colTimestamp = 3
	colAmount    = 4
	colSource    = 5
	colChannel   = 6
	colRemark    = 7
	colStatus    = 8
	colReason    = 9
)

// NewEntry describes r's outcome.
func NewEntry(runID string, r *model.Record) Entry {
	return Entry{
		RunID:     runID,
		Category:  r.Category().Sheet(),
		Account:   r.Account,
		Timestamp: normalize.FormatTime(r.Timestamp),
		Amount:    r.Amount.StringFixed(2),
		Source:    r.Source,
		Channel:   r.Meta.Channel,
		Remark:    r.Remark,
		Status:    r.Status(),
		Reason:    string(r.SkippedReason),
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colRunID] = e.RunID
	row[colCategory] = e.Category
	row[colAccount] = e.Account
	row[colTimestamp] = e.Timestamp
	row[colAmount] = e.Amount
	row[colSource] = e.Source
	row[colChannel] = e.Channel
	row[colRemark] = e.Remark
	row[colStatus] = e.Status
	row[colReason] = e.Reason
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if _, ok := model.CategoryFromSheet(record[colCategory]); !ok {
		return Entry{}, fmt.Errorf("unknown category %q", record[colCategory])
	}
	return Entry{
		RunID:     record[colRunID],
		Category:  record[colCategory],
		Account:   record[colAccount],
		Timestamp: record[colTimestamp],
		Amount:    record[colAmount],
		Source:    record[colSource],
		Channel:   record[colChannel],
		Remark:    record[colRemark],
		Status:    record[colStatus],
		Reason:    record[colReason],
	}, nil
}

// Write replaces path with one entry per record, in record order. Every
// record is listed, including canceled, skipped and supplement-only ones.
func Write(path, runID string, records []*model.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, "\ufeff"); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(MarshalEntry(NewEntry(runID, r))); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the report at path.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading report CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Count is a tally for one status or reason.
type Count struct {
	Key string
	N   int
}

// Summary tallies a report by status and by skip reason.
type Summary struct {
	RunID    string
	Total    int
	ByStatus []Count
	ByReason []Count
}

// Summarize counts entries per status and per non-empty reason, each sorted
// by key.
func Summarize(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}
	statuses := map[string]int{}
	reasons := map[string]int{}
	for _, e := range entries {
		statuses[e.Status]++
		if e.Reason != "" {
			reasons[e.Reason]++
		}
	}
	return Summary{
		RunID:    entries[0].RunID,
		Total:    len(entries),
		ByStatus: sortedCounts(statuses),
		ByReason: sortedCounts(reasons),
	}
}

func sortedCounts(m map[string]int) []Count {
	if len(m) == 0 {
		return nil
	}
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Key: k, N: n})
	}
	slices.SortFunc(out, func(a, b Count) int { return strings.Compare(a.Key, b.Key) })
	return out
}
