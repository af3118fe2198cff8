package importer

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/cleared-dev/walletrecon/internal/id"
	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
)

const (
	cmbAccount     = "招商银行信用卡"
	cmbTableID     = "loopBand2"
	cmbCells       = 7
	cmbRefundNote  = "退款/还款"
	cmbAmountMark  = "¥"
	cmbCellTxnDate = 0
	cmbCellPosted  = 1
	cmbCellDesc    = 2
	cmbCellAmount  = 3
	cmbCellTail    = 4
	cmbCellPlace   = 5
	cmbCellForeign = 6
)

var cmbCycle = regexp.MustCompile(`(\d{4})/(\d{2})/(\d{2})-(\d{4})/(\d{2})/(\d{2})`)

// CMBParser parses China Merchants Bank credit card statement emails (.eml).
// Transactions live in the HTML body under #loopBand2 > table > tbody.
type CMBParser struct{}

// Format returns the parser name.
func (p *CMBParser) Format() string { return "cmb" }

// Parse reads a statement email. Dates printed as MMDD get their year from
// the billing cycle in the body. Non-positive amounts become income.
// UnionPay rebate lines are netted into one appended record.
func (p *CMBParser) Parse(r io.Reader) ([]*model.Record, error) {
	body, err := htmlBody(r)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing statement HTML: %w", err)
	}
	tbody := selectStatementTable(doc)
	if tbody == nil {
		return nil, fmt.Errorf("%w: #%s > table > tbody", ErrMissingSelector, cmbTableID)
	}

	var cycle *billingCycle
	if c, ok := parseCycle(body); ok {
		cycle = &c
	}

	var records []*model.Record
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != html.ElementNode || tr.DataAtom != atom.Tr {
			continue
		}
		cells := divTexts(tr)
		if len(cells) != cmbCells {
			continue
		}
		rec := parseCMBRow(cells, cycle)
		if rec != nil {
			records = append(records, rec)
		}
	}
	return mergeRebates(records), nil
}

func parseCMBRow(cells []string, cycle *billingCycle) *model.Record {
	description := cells[cmbCellDesc]
	tail := cells[cmbCellTail]
	account := cmbAccount
	if tail != "" {
		account = fmt.Sprintf("%s(%s)", cmbAccount, tail)
	}

	rawDate := cells[cmbCellTxnDate]
	if rawDate == "" {
		rawDate = cells[cmbCellPosted]
	}
	ts, ok := cycle.resolve(rawDate)
	if !ok {
		return nil
	}
	raw := strings.TrimSpace(strings.TrimPrefix(cells[cmbCellAmount], cmbAmountMark))
	amount := normalize.Amount(raw)
	if amount.IsZero() {
		return nil
	}

	params := model.Params{
		Timestamp: ts,
		Amount:    amount.Abs(),
		Account:   account,
		Source:    cmbAccount,
	}

	var rec *model.Record
	if amount.IsNegative() {
		params.Remark = cmbRefundNote
		rec = model.NewIncome(params, description, model.RefundClass)
		rec.RawID = id.Ref(cells[cmbCellTxnDate], description)
	} else {
		var remark []string
		if posted, ok := cycle.resolve(cells[cmbCellPosted]); ok {
			remark = append(remark, "记账: "+posted.Format("2006-01-02"))
		}
		if v := cells[cmbCellPlace]; v != "" {
			remark = append(remark, "地点: "+v)
		}
		if v := cells[cmbCellForeign]; v != "" {
			remark = append(remark, "原币金额: "+v)
		}
		params.Remark = strings.Join(remark, "; ")
		rec = model.NewExpense(params, description)
		rec.RawID = id.Ref(cells[cmbCellTxnDate], description, cells[cmbCellForeign])
	}
	rec.Meta.Merchant = merchantName(description)
	annotate(rec, model.ExtraCardTail, tail)
	return rec
}

// billingCycle is the statement period's first and last month.
type billingCycle struct {
	startYear, startMonth int
	endYear               int
}

func parseCycle(body string) (billingCycle, bool) {
	m := cmbCycle.FindStringSubmatch(body)
	if m == nil {
		return billingCycle{}, false
	}
	sy, _ := strconv.Atoi(m[1])
	sm, _ := strconv.Atoi(m[2])
	ey, _ := strconv.Atoi(m[4])
	return billingCycle{startYear: sy, startMonth: sm, endYear: ey}, true
}

// resolve parses YYYYMMDD, YYYY/MM/DD, or MMDD with the year inferred from
// the cycle: months at or after the cycle's first month belong to its first
// year, earlier months to its last year.
func (c *billingCycle) resolve(value string) (time.Time, bool) {
	value = strings.ReplaceAll(normalize.Text(value), "/", "")
	switch len(value) {
	case 8:
		t, err := time.ParseInLocation("20060102", value, normalize.Location)
		return t, err == nil
	case 4:
		if c == nil {
			return time.Time{}, false
		}
		month, err1 := strconv.Atoi(value[:2])
		day, err2 := strconv.Atoi(value[2:])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return time.Time{}, false
		}
		year := c.endYear
		if month >= c.startMonth {
			year = c.startYear
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, normalize.Location)
		if t.Day() != day {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// selectStatementTable finds #loopBand2 > table > tbody.
func selectStatementTable(doc *html.Node) *html.Node {
	band := findByID(doc, cmbTableID)
	if band == nil {
		return nil
	}
	for table := band.FirstChild; table != nil; table = table.NextSibling {
		if table.Type != html.ElementNode || table.DataAtom != atom.Table {
			continue
		}
		for tbody := table.FirstChild; tbody != nil; tbody = tbody.NextSibling {
			if tbody.Type == html.ElementNode && tbody.DataAtom == atom.Tbody {
				return tbody
			}
		}
	}
	return nil
}

func findByID(n *html.Node, want string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == want {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, want); found != nil {
			return found
		}
	}
	return nil
}

// divTexts returns the trimmed text of every div under n, in document order.
func divTexts(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.DataAtom == atom.Div {
			out = append(out, normalize.Text(textContent(c)))
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(c.Data))
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// htmlBody extracts the first text/html part of a MIME message, decoded
// from its transfer encoding and charset.
func htmlBody(r io.Reader) (string, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return "", fmt.Errorf("reading statement email: %w", err)
	}
	body, found, err := findHTMLPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: no text/html part in statement email", ErrMissingSelector)
	}
	return body, nil
}

func findHTMLPart(contentType, encoding string, body io.Reader) (string, bool, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false, fmt.Errorf("parsing content type %q: %w", contentType, err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return "", false, nil
			}
			if err != nil {
				return "", false, fmt.Errorf("reading MIME part: %w", err)
			}
			text, found, err := findHTMLPart(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil || found {
				return text, found, err
			}
		}
	}
	if mediaType != "text/html" {
		return "", false, nil
	}

	raw, err := io.ReadAll(transferDecoder(encoding, body))
	if err != nil {
		return "", false, fmt.Errorf("decoding HTML part: %w", err)
	}
	text, err := decodeCharset(raw, params["charset"])
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func transferDecoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func decodeCharset(raw []byte, charset string) (string, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return string(raw), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", charset, err)
	}
	return string(out), nil
}
