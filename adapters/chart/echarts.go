package chart

import (
	"io"

	"causelens/domain/rd"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	controlColor = "#1f77b4"
	treatedColor = "#d62728"
)

// EChartsRenderer renders an interactive HTML chart
type EChartsRenderer struct {
	AssetsHost string // empty uses the go-echarts default CDN
	Width      string
	Height     string
}

// NewEChartsRenderer creates a renderer with a 900x600 canvas
func NewEChartsRenderer(assetsHost string) *EChartsRenderer {
	return &EChartsRenderer{AssetsHost: assetsHost, Width: "900px", Height: "600px"}
}

// ContentType implements ports.ChartRenderer
func (r *EChartsRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Render writes a complete HTML page for the plot
func (r *EChartsRenderer) Render(w io.Writer, plot *rd.Plot) error {
	s := splitSeries(plot)
	win := plot.Request.Window

	init := opts.Initialization{PageTitle: title(plot), Width: r.Width, Height: r.Height}
	if r.AssetsHost != "" {
		init.AssetsHost = r.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: title(plot), Subtitle: subtitle(plot)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: win.Lower(), Max: win.Upper(), Name: plot.Request.Running, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: plot.Request.Outcome, NameLocation: "middle", NameGap: 40}),
	)

	scatter.AddSeries(plot.Labels.Control, scatterData(s.ControlPoints),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: controlColor}),
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{Name: "cutoff", XAxis: win.Cutoff}),
	)
	scatter.AddSeries(plot.Labels.Treated, scatterData(s.TreatedPoints),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: treatedColor}),
	)

	line := charts.NewLine()
	if len(s.ControlCurve) > 0 {
		line.AddSeries(plot.Labels.Control+" fit", lineData(s.ControlCurve),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: controlColor, Width: 2}),
		)
	}
	if len(s.TreatedCurve) > 0 {
		line.AddSeries(plot.Labels.Treated+" fit", lineData(s.TreatedCurve),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: treatedColor, Width: 2}),
		)
	}
	scatter.Overlap(line)

	return scatter.Render(w)
}

func scatterData(points []xy) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}
	return data
}

func lineData(points []xy) []opts.LineData {
	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.LineData{Value: []interface{}{p.X, p.Y}})
	}
	return data
}
