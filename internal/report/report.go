// Package report renders loaded automata and evaluation verdicts as text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/eval"
)

const (
	// Accepted is printed for accepted strings.
	Accepted = "Acepta"
	// Rejected is printed for rejected strings.
	Rejected = "NO acepta"
)

var (
	acceptColor = color.New(color.FgGreen, color.Bold)
	rejectColor = color.New(color.FgRed)
)

// StateLine lists the states in index order. The initial state is prefixed
// with "[" and closed by "]" unless it is final; final states end in "+".
func StateLine(a *automaton.Automaton) string {
	parts := make([]string, a.NumStates())
	for i := range parts {
		var b strings.Builder
		if i == a.Initial() {
			b.WriteString("[")
		}
		b.WriteString(a.Name(i))
		switch {
		case a.IsFinal(i):
			b.WriteString("+")
		case i == a.Initial():
			b.WriteString("]")
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, " ")
}

// WriteAutomaton prints the state line and the full transition table.
func WriteAutomaton(w io.Writer, a *automaton.Automaton) {
	fmt.Fprintln(w, "== AFD cargado ==")
	fmt.Fprintf(w, "Estados: %s\n", StateLine(a))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"q", "(q,0)->", "(q,1)->"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i := 0; i < a.NumStates(); i++ {
		table.Append([]string{
			a.Name(i),
			a.Name(a.Next(i, automaton.Zero)),
			a.Name(a.Next(i, automaton.One)),
		})
	}
	table.Render()
}

// Verdict returns the human-readable verdict.
func Verdict(accepted bool) string {
	if accepted {
		return Accepted
	}
	return Rejected
}

// WriteResults prints one "<input> -> <verdict>" line per result, with ε for
// the empty string. Verdicts are coloured when the terminal supports it.
func WriteResults(w io.Writer, results []eval.Result) {
	for _, r := range results {
		c := rejectColor
		if r.Accepted {
			c = acceptColor
		}
		fmt.Fprintf(w, "%s -> %s\n", r.Display(), c.Sprint(Verdict(r.Accepted)))
	}
}

// Summary formats the accepted and rejected totals.
func Summary(rep *eval.Report) string {
	return fmt.Sprintf("%d strings: %d accepted, %d rejected", len(rep.Results), rep.Accepted, rep.Rejected)
}
