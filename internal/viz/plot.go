package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// PlotOptions sizes a chart.
type PlotOptions struct {
	Height  int
	Width   int
	Caption string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Height: 10, Width: 80}
}

var seriesPalette = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Orange,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Red,
	asciigraph.Blue,
}

func (o PlotOptions) graphOptions() []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Precision(3)}
	if o.Height > 0 {
		opts = append(opts, asciigraph.Height(o.Height))
	}
	if o.Width > 0 {
		opts = append(opts, asciigraph.Width(o.Width))
	}
	if o.Caption != "" {
		opts = append(opts, asciigraph.Caption(o.Caption))
	}
	return opts
}

// PlotSeries charts one series. It returns "" when nothing finite is left
// to draw.
func PlotSeries(values []float64, opts PlotOptions) string {
	if !plottable(values) {
		return ""
	}
	return asciigraph.Plot(clean(values), opts.graphOptions()...)
}

// PlotInventories overlays the named columns on one chart with a legend.
// Columns with no finite sample are left out.
func PlotInventories(names []string, columns [][]float64, opts PlotOptions) string {
	var (
		data    [][]float64
		legends []string
		colors  []asciigraph.AnsiColor
	)
	for i, col := range columns {
		if !plottable(col) {
			continue
		}
		data = append(data, clean(col))
		if i < len(names) {
			legends = append(legends, names[i])
		} else {
			legends = append(legends, "")
		}
		colors = append(colors, seriesPalette[len(colors)%len(seriesPalette)])
	}
	if len(data) == 0 {
		return ""
	}
	graphOpts := append(opts.graphOptions(),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
	return asciigraph.PlotMany(data, graphOpts...)
}

func plottable(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// clean maps infinities to NaN, which asciigraph leaves as gaps.
func clean(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
