package charts

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/vicanso/go-charts/v2"
)

const (
	frontierWidth  = 900
	frontierHeight = 600
	gridDivisions  = 5
	markerRadius   = 9
)

// Plot area inside the canvas. The top band holds title, subtitle and legend.
var plotPadding = charts.Box{Top: 96, Left: 80, Right: 30, Bottom: 60}

var (
	sampleColor   = charts.Color{R: 84, G: 112, B: 198, A: 110}
	frontierColor = charts.Color{R: 51, G: 51, B: 51, A: 255}
	minVarColor   = charts.Color{R: 250, G: 200, B: 88, A: 255}
	headlineColor = charts.Color{R: 238, G: 102, B: 102, A: 255}
	outlineColor  = charts.Color{R: 70, G: 70, B: 70, A: 255}
)

// scale maps volatility (x) and expected return (y) onto a plot area of
// width by height pixels, origin top left.
type scale struct {
	xMin, xMax    float64
	yMin, yMax    float64
	width, height int
}

func newScale(vols, rets []float64, width, height int) scale {
	xMin, xMax := padRange(vols)
	yMin, yMax := padRange(rets)
	return scale{xMin: xMin, xMax: xMax, yMin: yMin, yMax: yMax, width: width, height: height}
}

// padRange widens [min, max] by 5% on each side. A flat range gets ±1%.
func padRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.01
	}
	return lo - pad, hi + pad
}

func (s scale) point(vol, ret float64) charts.Point {
	x := (vol - s.xMin) / (s.xMax - s.xMin) * float64(s.width)
	y := (s.yMax - ret) / (s.yMax - s.yMin) * float64(s.height)
	return charts.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

type marker struct {
	label string
	at    charts.Point
	color charts.Color
}

// frontierLayout is a result projected into plot-area pixels.
type frontierLayout struct {
	scale    scale
	samples  []charts.Point
	frontier []charts.Point
	markers  []marker
}

func layoutFrontier(result *optimization.Result, width, height int) frontierLayout {
	var vols, rets []float64
	add := func(vol, ret float64) {
		vols = append(vols, vol)
		rets = append(rets, ret)
	}
	for _, p := range result.Frontier.Points {
		add(p.Volatility, p.TargetReturn)
	}
	for _, s := range result.Samples {
		add(s.Volatility, s.Return)
	}
	notable := notablePortfolios(result)
	for _, p := range notable {
		add(p.portfolio.Stats.Volatility, p.portfolio.Stats.ExpectedReturn)
	}

	layout := frontierLayout{scale: newScale(vols, rets, width, height)}
	for _, s := range result.Samples {
		layout.samples = append(layout.samples, layout.scale.point(s.Volatility, s.Return))
	}
	for _, p := range result.Frontier.Points {
		layout.frontier = append(layout.frontier, layout.scale.point(p.Volatility, p.TargetReturn))
	}
	for _, p := range notable {
		layout.markers = append(layout.markers, marker{
			label: strings.ReplaceAll(p.portfolio.Label, "_", " "),
			at:    layout.scale.point(p.portfolio.Stats.Volatility, p.portfolio.Stats.ExpectedReturn),
			color: p.color,
		})
	}
	return layout
}

type notablePortfolio struct {
	portfolio *optimization.Portfolio
	color     charts.Color
}

// notablePortfolios is the min-variance portfolio (yellow) and the headline
// max-Sharpe or target portfolio (red).
func notablePortfolios(result *optimization.Result) []notablePortfolio {
	var out []notablePortfolio
	if result.MinVariance != nil {
		out = append(out, notablePortfolio{result.MinVariance, minVarColor})
	}
	if h := result.Headline(); h != nil {
		out = append(out, notablePortfolio{h, headlineColor})
	}
	return out
}

// RenderFrontier draws the risk/return plane: Monte Carlo samples as dots,
// the efficient frontier as a line with x markers, and the min-variance and
// headline portfolios as stars. Both axes are numeric.
func RenderFrontier(result *optimization.Result) ([]byte, error) {
	if result == nil || result.Frontier == nil || len(result.Frontier.Points) < 2 {
		return nil, ErrNothingToPlot
	}

	p, err := charts.NewPainter(charts.PainterOptions{
		Type:   charts.ChartOutputPNG,
		Width:  frontierWidth,
		Height: frontierHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render frontier chart: %w", err)
	}
	theme := charts.NewTheme(charts.ThemeLight)
	p.SetBackground(p.Width(), p.Height(), theme.GetBackgroundColor())

	plot := p.Child(charts.PainterPaddingOption(plotPadding))
	layout := layoutFrontier(result, plot.Width(), plot.Height())

	drawHeader(p, theme, result, layout)
	drawGrid(plot, theme, layout.scale)

	if len(layout.samples) > 0 {
		plot.SetDrawingStyle(charts.Style{StrokeColor: sampleColor, FillColor: sampleColor, StrokeWidth: 1})
		plot.Dots(layout.samples)
	}

	plot.SetDrawingStyle(charts.Style{StrokeColor: frontierColor, StrokeWidth: 2})
	plot.LineStroke(layout.frontier)
	for _, pt := range layout.frontier {
		drawCross(plot, pt, 4)
	}
	plot.Stroke()

	for _, m := range layout.markers {
		drawStar(plot, m.at, markerRadius, m.color)
	}

	return p.Bytes()
}

func drawHeader(p *charts.Painter, theme charts.ColorPalette, result *optimization.Result, layout frontierLayout) {
	left := plotPadding.Left

	p.SetTextStyle(charts.Style{FontColor: theme.GetTextColor(), FontSize: 16})
	p.Text("Efficient frontier", left, 26)
	p.SetTextStyle(charts.Style{FontColor: theme.GetTextColor(), FontSize: 11})
	p.Text(frontierSubtitle(result), left, 46)

	x, y := left, 74
	item := func(label string, draw func(at charts.Point)) {
		draw(charts.Point{X: x + 8, Y: y - 4})
		p.SetTextStyle(charts.Style{FontColor: theme.GetTextColor(), FontSize: 11})
		p.Text(label, x+22, y)
		x += 22 + p.MeasureText(label).Width() + 24
	}

	if len(layout.samples) > 0 {
		item(fmt.Sprintf("Monte Carlo (%d)", len(layout.samples)), func(at charts.Point) {
			p.SetDrawingStyle(charts.Style{StrokeColor: sampleColor, FillColor: sampleColor, StrokeWidth: 1})
			p.Circle(4, at.X, at.Y)
			p.FillStroke()
		})
	}
	item("Efficient frontier", func(at charts.Point) {
		p.SetDrawingStyle(charts.Style{StrokeColor: frontierColor, StrokeWidth: 2})
		drawCross(p, at, 5)
		p.Stroke()
	})
	for _, m := range layout.markers {
		color := m.color
		item(m.label, func(at charts.Point) {
			drawStar(p, at, 7, color)
		})
	}
}

func drawGrid(plot *charts.Painter, theme charts.ColorPalette, s scale) {
	w, h := plot.Width(), plot.Height()

	plot.SetDrawingStyle(charts.Style{StrokeColor: theme.GetAxisSplitLineColor(), StrokeWidth: 1})
	plot.Grid(charts.GridOption{Column: gridDivisions, Row: gridDivisions})
	plot.SetDrawingStyle(charts.Style{StrokeColor: theme.GetAxisStrokeColor(), StrokeWidth: 1})
	plot.LineStroke([]charts.Point{{X: 0, Y: 0}, {X: 0, Y: h}, {X: w, Y: h}})

	plot.SetTextStyle(charts.Style{FontColor: theme.GetTextColor(), FontSize: 10})
	for i := 0; i <= gridDivisions; i++ {
		frac := float64(i) / gridDivisions

		xLabel := pctLabel(s.xMin + frac*(s.xMax-s.xMin))
		xBox := plot.MeasureText(xLabel)
		plot.Text(xLabel, int(frac*float64(w))-xBox.Width()/2, h+18)

		yLabel := pctLabel(s.yMax - frac*(s.yMax-s.yMin))
		yBox := plot.MeasureText(yLabel)
		plot.Text(yLabel, -yBox.Width()-8, int(frac*float64(h))+yBox.Height()/2)
	}

	plot.SetTextStyle(charts.Style{FontColor: theme.GetTextColor(), FontSize: 12})
	xTitle := "Volatility (annualized)"
	plot.Text(xTitle, (w-plot.MeasureText(xTitle).Width())/2, h+44)
	yTitle := "Expected return (annualized)"
	plot.TextRotation(yTitle, -62, (h+plot.MeasureText(yTitle).Width())/2, -math.Pi/2)
}

// drawCross adds an x-shaped marker to the current path; the caller strokes.
func drawCross(p *charts.Painter, at charts.Point, size int) {
	p.MoveTo(at.X-size, at.Y-size)
	p.LineTo(at.X+size, at.Y+size)
	p.MoveTo(at.X-size, at.Y+size)
	p.LineTo(at.X+size, at.Y-size)
}

func drawStar(p *charts.Painter, at charts.Point, radius float64, color charts.Color) {
	points := starPoints(at, radius)
	p.SetDrawingStyle(charts.Style{FillColor: color})
	p.FillArea(points)
	p.SetDrawingStyle(charts.Style{StrokeColor: outlineColor, StrokeWidth: 1})
	p.LineStroke(append(points, points[0]))
}

// starPoints returns the ten vertices of a five-pointed star, top point first.
func starPoints(center charts.Point, radius float64) []charts.Point {
	points := make([]charts.Point, 10)
	for i := range points {
		r := radius
		if i%2 == 1 {
			r = radius * 0.45
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/5
		points[i] = charts.Point{
			X: center.X + int(math.Round(r*math.Cos(angle))),
			Y: center.Y + int(math.Round(r*math.Sin(angle))),
		}
	}
	return points
}

func frontierSubtitle(result *optimization.Result) string {
	parts := make([]string, 0, 2)
	for _, p := range notablePortfolios(result) {
		parts = append(parts, strings.ReplaceAll(p.portfolio.Label, "_", " ")+" "+statsLine(p.portfolio.Stats))
	}
	return strings.Join(parts, " | ")
}

func pctLabel(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
