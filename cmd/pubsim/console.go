package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/talgya/pubsim/internal/engine"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed)
	neutral = color.New(color.FgHiWhite)
	muted   = color.New(color.FgHiBlack)
)

// consoleSink prints event records in colour. Unless verbose it only prints
// popups, which carry the weekly and monthly reports.
type consoleSink struct {
	out     io.Writer
	verbose bool
}

func (c consoleSink) Info(text string) {
	if c.verbose {
		muted.Fprintln(c.out, "  "+text)
	}
}

func (c consoleSink) Pos(text string) {
	if c.verbose {
		success.Fprintln(c.out, "+ "+text)
	}
}

func (c consoleSink) Neg(text string) {
	if c.verbose {
		danger.Fprintln(c.out, "- "+text)
	}
}

func (c consoleSink) Event(text string) {
	if c.verbose {
		neutral.Fprintln(c.out, "* "+text)
	}
}

func (c consoleSink) Popup(title, body string) {
	accent.Fprintf(c.out, "== %s ==\n", title)
	fmt.Fprintln(c.out, body)
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return sign + "£" + humanize.FormatFloat("#,###.##", v)
}

func printWeek(out io.Writer, w *engine.WeekSummary) {
	if w == nil {
		return
	}
	profit := success
	if w.Profit < 0 {
		profit = danger
	}
	accent.Fprintf(out, "Week %-3d ", w.Week)
	fmt.Fprintf(out, "revenue %s  costs %s  profit ", money(w.Revenue), money(w.Costs))
	profit.Fprint(out, money(w.Profit))
	fmt.Fprintf(out, "  cash %s  debt %s  rep %d  %s, %s\n",
		money(w.Cash), money(w.Debt), w.Reputation, w.Identity, w.ChaosLabel)
}

func printSummary(out io.Writer, s *engine.Simulation, steps uint64) {
	fmt.Fprintln(out)
	accent.Fprintf(out, "%s after %s\n", s.PubName, engine.SimTime(s))
	fmt.Fprintf(out, "  cash %s, debt %s, reputation %d, pub level %d\n",
		money(s.Cash), money(s.TotalDebt()), s.Reputation, s.PubLevel)
	fmt.Fprintf(out, "  staff %d, credit score %d, %s steps\n",
		s.Staff.Count(), s.Credit.Score, humanize.Comma(int64(steps)))
	if s.GameOver {
		warn.Fprintf(out, "  closed for good: %s\n", s.GameOverReason)
	}
}
