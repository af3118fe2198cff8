package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cleared-dev/walletrecon/internal/normalize"
)

// ErrMissingLayout reports a PDF statement with no transaction row in the
// expected column layout.
var ErrMissingLayout = errors.New("statement column layout not found")

const (
	// Glyphs closer than this on both axes belong to the same word.
	glyphTolerance = 3.0
	// Tokens in one column whose left edges are this close are one token
	// split across glyph runs.
	tokenTolerance  = 0.5
	defaultPageSize = 842.0
)

// pdfWord is a run of glyphs on one line. Top is measured from the top
// edge of the page.
type pdfWord struct {
	Text   string
	X0, X1 float64
	Top    float64
}

// readPDFWords returns the words of every page in content stream order.
func readPDFWords(r io.Reader) (pages [][]pdfWord, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			pages, err = nil, fmt.Errorf("decoding pdf: %v", p)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, groupGlyphs(page.Content().Text, pageHeight(page)))
	}
	return pages, nil
}

func pageHeight(p pdf.Page) float64 {
	box := p.V.Key("MediaBox")
	if box.IsNull() {
		box = p.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() < 4 {
		return defaultPageSize
	}
	return box.Index(3).Float64()
}

// groupGlyphs merges consecutive glyphs on the same baseline into words.
// Whitespace glyphs end a word.
func groupGlyphs(glyphs []pdf.Text, height float64) []pdfWord {
	var (
		words []pdfWord
		cur   *pdfWord
		lastY float64
	)
	flush := func() {
		if cur != nil {
			words = append(words, *cur)
			cur = nil
		}
	}
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if cur != nil && math.Abs(g.Y-lastY) <= glyphTolerance && math.Abs(g.X-cur.X1) <= glyphTolerance {
			cur.Text += g.S
			cur.X1 = g.X + g.W
			continue
		}
		flush()
		cur = &pdfWord{Text: g.S, X0: g.X, X1: g.X + g.W, Top: height - g.Y - g.FontSize}
		lastY = g.Y
	}
	flush()
	return words
}

// pageText joins a page's words with spaces, for header lookups.
func pageText(words []pdfWord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

type pdfColumn struct {
	name        string
	left, right float64
}

// pdfLayout splits a tabular statement page into rows by column position.
// A row starts at a word in the first column matching rowStart.
type pdfLayout struct {
	columns   []pdfColumn
	footerTop float64
	footer    []*regexp.Regexp
	rowStart  *regexp.Regexp
}

type pdfToken struct {
	text string
	x0   float64
}

// pdfRow holds the tokens of one transaction, keyed by column name.
type pdfRow map[string][]pdfToken

func (l pdfLayout) column(w pdfWord) string {
	center := (w.X0 + w.X1) / 2
	for _, c := range l.columns {
		if c.left <= center && center < c.right {
			return c.name
		}
	}
	return ""
}

func (l pdfLayout) isFooter(w pdfWord, text string) bool {
	if w.Top >= l.footerTop {
		return true
	}
	for _, re := range l.footer {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// rows groups words into transaction rows. Words before the first row
// start, in the footer band or outside every column are dropped.
func (l pdfLayout) rows(words []pdfWord) []pdfRow {
	first := l.columns[0].name
	var (
		rows []pdfRow
		cur  pdfRow
	)
	for _, w := range words {
		text := normalize.Text(w.Text)
		if text == "" || l.isFooter(w, text) {
			continue
		}
		col := l.column(w)
		if col == first && l.rowStart.MatchString(text) {
			if cur != nil {
				rows = append(rows, cur)
			}
			cur = pdfRow{first: {{text: text, x0: w.X0}}}
			continue
		}
		if cur == nil || col == "" {
			continue
		}
		cur[col] = append(cur[col], pdfToken{text: text, x0: w.X0})
	}
	if cur != nil {
		rows = append(rows, cur)
	}
	return rows
}

// allRows runs rows over every page and fails when none is found.
func (l pdfLayout) allRows(pages [][]pdfWord) ([]pdfRow, error) {
	var rows []pdfRow
	for _, words := range pages {
		rows = append(rows, l.rows(words)...)
	}
	if len(rows) == 0 {
		return nil, ErrMissingLayout
	}
	return rows, nil
}

// join concatenates tokens that share a left edge and joins the rest with sep.
func (r pdfRow) join(col, sep string) string {
	var (
		parts []string
		buf   string
		prev  = math.Inf(-1)
	)
	for _, t := range r[col] {
		if buf != "" && math.Abs(t.x0-prev) <= tokenTolerance {
			buf += t.text
		} else {
			if buf != "" {
				parts = append(parts, buf)
			}
			buf = t.text
		}
		prev = t.x0
	}
	if buf != "" {
		parts = append(parts, buf)
	}
	return strings.Join(parts, sep)
}
