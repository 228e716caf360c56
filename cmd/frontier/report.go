package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aristath/frontier/internal/modules/optimization"
)

var nowFunc = time.Now

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printReport writes the human-readable summary of a run.
func printReport(w io.Writer, report *optimization.Report) {
	result := report.Result

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Frontier %s  %s..%s  %d observations",
		strings.ReplaceAll(string(result.Mode), "_", " "), report.Start, report.End, result.Observations)))
	fmt.Fprintln(w, mutedStyle.Render("session "+report.SessionID))
	fmt.Fprintln(w)

	portfolios := []*optimization.Portfolio{result.MinVariance, result.Headline()}
	fmt.Fprintln(w, portfolioTable(result.Symbols, portfolios))
	fmt.Fprintln(w)

	frontier := result.Frontier
	if frontier != nil {
		fmt.Fprintf(w, "Efficient frontier: %d points", len(frontier.Points))
		if n := len(frontier.Points); n > 0 {
			first, last := frontier.Points[0], frontier.Points[n-1]
			fmt.Fprintf(w, ", return %s..%s, volatility %s..%s",
				pct(first.TargetReturn), pct(last.TargetReturn), pct(first.Volatility), pct(last.Volatility))
		}
		fmt.Fprintln(w)
		for _, f := range frontier.Failures {
			fmt.Fprintf(w, "  failed at target %s: %s\n", pct(f.TargetReturn), f.Status)
		}
	}
	if len(result.Samples) > 0 {
		fmt.Fprintf(w, "Monte Carlo: %d random portfolios\n", len(result.Samples))
	}
}

// portfolioTable lays out one column per portfolio: weights, then stats.
func portfolioTable(symbols []string, portfolios []*optimization.Portfolio) string {
	headers := []string{""}
	var cols []*optimization.Portfolio
	for _, p := range portfolios {
		if p == nil {
			continue
		}
		cols = append(cols, p)
		headers = append(headers, strings.ReplaceAll(p.Label, "_", " "))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i, symbol := range symbols {
		row := []string{symbol}
		for _, p := range cols {
			row = append(row, fmt.Sprintf("%.4f", p.Weights[i]))
		}
		t.Row(row...)
	}

	stats := []struct {
		name  string
		value func(optimization.PortfolioStats) string
	}{
		{"return", func(s optimization.PortfolioStats) string { return pct(s.ExpectedReturn) }},
		{"volatility", func(s optimization.PortfolioStats) string { return pct(s.Volatility) }},
		{"sharpe", func(s optimization.PortfolioStats) string { return fmt.Sprintf("%.4f", s.Sharpe) }},
	}
	for _, st := range stats {
		row := []string{st.name}
		for _, p := range cols {
			row = append(row, st.value(p.Stats))
		}
		t.Row(row...)
	}

	return t.Render()
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
