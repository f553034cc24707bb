package chart

import (
	"fmt"
	"image/color"
	"io"

	"causelens/domain/rd"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	controlRGBA = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	treatedRGBA = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	cutoffRGBA  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// PNGRenderer renders a static image with gonum/plot
type PNGRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPNGRenderer creates a renderer for a 9x6 inch image
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 9 * vg.Inch, Height: 6 * vg.Inch}
}

// ContentType implements ports.ChartRenderer
func (r *PNGRenderer) ContentType() string { return "image/png" }

// Render writes the plot as PNG
func (r *PNGRenderer) Render(w io.Writer, plot *rd.Plot) error {
	p, err := r.build(plot)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save writes the plot to a file; the format follows the extension
func (r *PNGRenderer) Save(path string, plot *rd.Plot) error {
	p, err := r.build(plot)
	if err != nil {
		return err
	}
	return p.Save(r.Width, r.Height, path)
}

func (r *PNGRenderer) build(rdPlot *rd.Plot) (*plot.Plot, error) {
	s := splitSeries(rdPlot)
	win := rdPlot.Request.Window

	p := plot.New()
	p.Title.Text = title(rdPlot) + "\n" + subtitle(rdPlot)
	p.X.Label.Text = rdPlot.Request.Running
	p.Y.Label.Text = rdPlot.Request.Outcome
	p.X.Min = win.Lower()
	p.X.Max = win.Upper()
	p.Add(plotter.NewGrid())

	groups := []struct {
		label  string
		points []xy
		curve  []xy
		color  color.Color
	}{
		{rdPlot.Labels.Control, s.ControlPoints, s.ControlCurve, controlRGBA},
		{rdPlot.Labels.Treated, s.TreatedPoints, s.TreatedCurve, treatedRGBA},
	}

	for _, g := range groups {
		if len(g.points) > 0 {
			sc, err := plotter.NewScatter(toXYs(g.points))
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle.Color = g.color
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			sc.GlyphStyle.Radius = vg.Points(2)
			p.Add(sc)
			p.Legend.Add(g.label, sc)
		}
		if len(g.curve) > 0 {
			line, err := plotter.NewLine(toXYs(g.curve))
			if err != nil {
				return nil, err
			}
			line.Color = g.color
			line.Width = vg.Points(2)
			p.Add(line)
		}
	}

	// cutoff marker spans whatever y range the data produced
	ymin, ymax := yRange(s)
	cut, err := plotter.NewLine(plotter.XYs{{X: win.Cutoff, Y: ymin}, {X: win.Cutoff, Y: ymax}})
	if err != nil {
		return nil, err
	}
	cut.Color = cutoffRGBA
	cut.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(cut)

	p.Legend.Top = true
	return p, nil
}

func toXYs(points []xy) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return out
}

func yRange(s series) (float64, float64) {
	first := true
	var lo, hi float64
	for _, group := range [][]xy{s.ControlPoints, s.TreatedPoints, s.ControlCurve, s.TreatedCurve} {
		for _, p := range group {
			if first || p.Y < lo {
				lo = p.Y
			}
			if first || p.Y > hi {
				hi = p.Y
			}
			first = false
		}
	}
	if first {
		return 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}
