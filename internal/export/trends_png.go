package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/quake-explorer-service/internal/figure"
)

// ErrNoSeries is returned when a figure has no line to draw.
var ErrNoSeries = eris.New("figure has no series")

// Default PNG size.
const (
	PNGWidth  = 10 * vg.Inch
	PNGHeight = 5 * vg.Inch
)

// TrendsPNG draws the scatter traces of a trends figure as a PNG.
func TrendsPNG(w io.Writer, fig figure.Figure, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = fig.Title()
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Legend.Top = true
	if ax := fig.Layout.XAxis; ax != nil {
		if ax.Title != nil {
			p.X.Label.Text = ax.Title.Text
		}
		if len(ax.Range) == 2 {
			p.X.Min, p.X.Max = ax.Range[0], ax.Range[1]
		}
		if len(ax.TickVals) > 0 {
			ticks := make([]plot.Tick, len(ax.TickVals))
			for i, v := range ax.TickVals {
				ticks[i] = plot.Tick{Value: float64(v)}
				if i < len(ax.TickText) {
					ticks[i].Label = ax.TickText[i]
				}
			}
			p.X.Tick.Marker = plot.ConstantTicks(ticks)
		}
	}
	if ax := fig.Layout.YAxis; ax != nil && ax.Title != nil {
		p.Y.Label.Text = ax.Title.Text
	}
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	drawn := 0
	for _, tr := range fig.Data {
		if tr.Type != figure.TypeScatter || len(tr.X) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(tr.X))
		for i := range tr.X {
			pts[i].X = float64(tr.X[i])
			if i < len(tr.Y) {
				pts[i].Y = float64(tr.Y[i])
			}
		}

		color := plotutil.Color(drawn)
		if strings.Contains(tr.Mode, "markers") {
			line, points, err := plotter.NewLinePoints(pts)
			if err != nil {
				return eris.Wrapf(err, "series %q", tr.Name)
			}
			line.Color, points.Color = color, color
			points.Shape = plotutil.Shape(drawn)
			p.Add(line, points)
			p.Legend.Add(tr.Name, line, points)
		} else {
			line, err := plotter.NewLine(pts)
			if err != nil {
				return eris.Wrapf(err, "series %q", tr.Name)
			}
			line.Color = color
			line.Width = vg.Points(1.5)
			if tr.Line != nil && tr.Line.Dash == "dot" {
				line.Dashes = []vg.Length{vg.Points(2), vg.Points(3)}
			}
			p.Add(line)
			p.Legend.Add(tr.Name, line)
		}
		drawn++
	}
	if drawn == 0 {
		return ErrNoSeries
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return eris.Wrap(err, "create png canvas")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return eris.Wrap(err, "encode png")
	}
	return nil
}
