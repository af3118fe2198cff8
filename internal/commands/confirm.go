package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/walletrecon/internal/model"
	"github.com/cleared-dev/walletrecon/internal/normalize"
	"github.com/cleared-dev/walletrecon/internal/reconcile"
)

const confirmPrompt = "导入? [Y]es/[n]o/[a]ll/[s]kip all/[q]uit: "

var rule = strings.Repeat("-", 60)

// promptConfirmer asks on out and reads one answer per line from in.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints the record and parses the answer. End of input quits.
func (p *promptConfirmer) Confirm(r *model.Record) (reconcile.Decision, error) {
	printRecordSummary(p.out, r)
	fmt.Fprint(p.out, confirmPrompt)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return reconcile.Abort, fmt.Errorf("reading answer: %w", err)
		}
		if line == "" {
			fmt.Fprintln(p.out)
			return reconcile.Abort, nil
		}
	}
	return parseAnswer(line), nil
}

// parseAnswer maps a typed answer to a decision. Unrecognized input skips.
func parseAnswer(s string) reconcile.Decision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "y", "yes":
		return reconcile.Accept
	case "a":
		return reconcile.AcceptAll
	case "s":
		return reconcile.SkipAll
	case "q":
		return reconcile.Abort
	default:
		return reconcile.Reject
	}
}

func printRecordSummary(w io.Writer, r *model.Record) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s | %s | %s | %s\n",
		r.Category().Sheet(), r.Account, r.Amount.StringFixed(2), normalize.FormatTime(r.Timestamp))
	fmt.Fprintf(w, "来源: %s | 备注: %s\n", r.Source, r.Remark)
	fmt.Fprintln(w, rule)
}
