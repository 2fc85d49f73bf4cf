// Package render formats sweep reports for people.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/service"
)

// Notice closes every human-readable report.
const Notice = "⚠️ These results are reference material for your own Keepering only. " +
	"Do not post or share them anywhere publicly accessible, such as social media."

// Markdown lays rep out as a table: one row per check, one column per
// starting SAN. Each cell holds the average SAN on reaching the check and
// the share of trials that broke there. The completion and remaining-SAN
// rows close the table.
func Markdown(rep service.Report) string {
	var b strings.Builder

	title := "SAN check simulation"
	if rep.Scenario != "" {
		title += ": " + rep.Scenario
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(rep.Rows) == 0 {
		b.WriteString("_no results_\n\n")
		b.WriteString("> " + Notice + "\n")
		return b.String()
	}

	b.WriteString("| Check |")
	for _, row := range rep.Rows {
		fmt.Fprintf(&b, " SAN %d |", row.InitialSAN)
	}
	b.WriteString("\n|---|")
	for range rep.Rows {
		b.WriteString("---:|")
	}
	b.WriteString("\n")

	for i, label := range rep.Steps {
		fmt.Fprintf(&b, "| %s |", escape(label))
		for _, row := range rep.Rows {
			r := row.Result
			fmt.Fprintf(&b, " avg %.1f / broke %.1f%% |", r.AvgProgress[i], r.DropoutRate[i])
		}
		b.WriteString("\n")
	}

	b.WriteString("| **Completed** |")
	for _, row := range rep.Rows {
		fmt.Fprintf(&b, " **%.1f%%** |", row.Result.CompletionRate)
	}
	b.WriteString("\n| Avg remaining SAN |")
	for _, row := range rep.Rows {
		fmt.Fprintf(&b, " %.1f (var %.1f) |", row.Result.AvgRemainingSAN, row.Result.VarRemainingSAN)
	}
	b.WriteString("\n\n")

	first := rep.Rows[0].Result
	fmt.Fprintf(&b, "%d trials per column, seed %d.\n\n", first.Trials, first.Seed)

	if len(rep.Losses) > 0 {
		b.WriteString("| Check | Success loss | Failure loss | Expected |\n|---|---|---|---:|\n")
		for _, l := range rep.Losses {
			fmt.Fprintf(&b, "| %s | %s | %s | %.1f |\n", escape(l.Step), lossCell(l.Success), lossCell(l.Failure), l.Expected)
		}
		b.WriteString("\n")
	}

	if len(rep.Fallbacks) > 0 {
		b.WriteString("Replaced loss expressions:\n\n")
		for _, fb := range rep.Fallbacks {
			fmt.Fprintf(&b, "- %s %s loss `%s`: %s\n", escape(fb.Step), fb.Field, fb.Text, fb.Action)
		}
		b.WriteString("\n")
	}

	b.WriteString("> " + Notice + "\n")
	return b.String()
}

func lossCell(r scenario.LossRange) string {
	if !r.Dice {
		return r.Expr
	}
	return fmt.Sprintf("%s (%d-%d, mean %.1f)", r.Expr, r.Min, r.Max, r.Mean)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// NewRenderer returns a function that renders markdown for a terminal.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Write prints md to w, styled when w is a terminal and raw otherwise.
func Write(w io.Writer, md string) error {
	if IsTerminal(w) {
		render, err := NewRenderer()
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}
