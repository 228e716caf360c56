// Package charts renders optimization results as PNG images.
package charts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/vicanso/go-charts/v2"
)

// Kind selects which chart to render.
type Kind string

const (
	// KindFrontier plots the frontier, Monte Carlo samples and notable portfolios
	// in the risk/return plane.
	KindFrontier Kind = "frontier"
	// KindWeights plots the headline portfolio allocation.
	KindWeights Kind = "weights"
)

// ErrNothingToPlot is returned when a result has too little data for a chart.
var ErrNothingToPlot = errors.New("nothing to plot")

// ParseKind maps a query value to a Kind. Empty means frontier.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindFrontier:
		return KindFrontier, nil
	case KindWeights:
		return KindWeights, nil
	default:
		return "", fmt.Errorf("unknown chart kind %q", s)
	}
}

// Render draws the chart of the given kind for result.
func Render(kind Kind, result *optimization.Result) ([]byte, error) {
	if result == nil {
		return nil, ErrNothingToPlot
	}
	switch kind {
	case KindFrontier:
		return RenderFrontier(result)
	case KindWeights:
		return RenderWeights(result.Headline())
	default:
		return nil, fmt.Errorf("unknown chart kind %q", kind)
	}
}

// RenderWeights draws a portfolio allocation as a pie chart. Zero weights are
// left out.
func RenderWeights(portfolio *optimization.Portfolio) ([]byte, error) {
	if portfolio == nil {
		return nil, ErrNothingToPlot
	}

	names := make([]string, 0, len(portfolio.Allocation))
	for symbol, weight := range portfolio.Allocation {
		if weight > 0 {
			names = append(names, symbol)
		}
	}
	if len(names) == 0 {
		return nil, ErrNothingToPlot
	}
	sort.Strings(names)
	values := make([]float64, len(names))
	for i, symbol := range names {
		values[i] = portfolio.Allocation[symbol]
	}

	painter, err := charts.PieRender(values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text:    strings.ReplaceAll(portfolio.Label, "_", " "),
			Subtext: statsLine(portfolio.Stats),
			Left:    charts.PositionCenter,
		}),
		charts.PaddingOptionFunc(charts.Box{Top: 20, Right: 20, Bottom: 20, Left: 20}),
		charts.LegendOptionFunc(charts.LegendOption{
			Orient: charts.OrientVertical,
			Data:   names,
			Left:   charts.PositionLeft,
		}),
		charts.PieSeriesShowLabel(),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render weights chart: %w", err)
	}
	return painter.Bytes()
}

func statsLine(s optimization.PortfolioStats) string {
	return fmt.Sprintf("ret %.2f%% vol %.2f%% sharpe %.2f", s.ExpectedReturn*100, s.Volatility*100, s.Sharpe)
}
