// Package viz renders evaluation figures with gonum/plot: per-class
// probability curves overlaid with ground-truth and predicted event
// spans. Figures are a side channel for inspection; nothing downstream
// reads them back.
package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/aiot-group/crossai-eval/internal/eval"
)

// AxisMode selects the x-axis unit of rendered figures.
type AxisMode int

const (
	// AxisTime labels the x axis in seconds.
	AxisTime AxisMode = iota
	// AxisSamples labels the x axis in sample indices.
	AxisSamples
)

// palette cycles through class line colors.
var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

var (
	gtColor   = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	predColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// Renderer draws curve figures at a fixed size. It implements the
// pipeline's FigureRenderer collaborator.
type Renderer struct {
	width  vg.Length
	height vg.Length
	mode   AxisMode
}

// NewRenderer returns a renderer producing figures of the given size
// in inches. Zero dimensions fall back to 14×6, the conventional
// evaluation figure size.
func NewRenderer(widthInches, heightInches float64, mode AxisMode) *Renderer {
	if widthInches <= 0 {
		widthInches = 14
	}
	if heightInches <= 0 {
		heightInches = 6
	}
	return &Renderer{
		width:  vg.Length(widthInches) * vg.Inch,
		height: vg.Length(heightInches) * vg.Inch,
		mode:   mode,
	}
}

// figure wraps a composed plot so callers can persist it without
// importing gonum/plot.
type figure struct {
	p    *plot.Plot
	w, h vg.Length
}

// Save writes the figure to filename; the format follows the file
// extension (png, svg, pdf, ...).
func (f *figure) Save(filename string) error {
	return f.p.Save(f.w, f.h, filename)
}

// RenderCurve draws every class channel of the curve plus the event
// spans. Ground-truth spans sit just above the probability band,
// predicted spans just below, so overlap is visible at a glance.
func (r *Renderer) RenderCurve(title string, c *eval.Curve, classNames []string, groundTruth, predicted []eval.Event) (eval.Figure, error) {
	if c == nil || c.Classes() == 0 {
		return nil, fmt.Errorf("viz: nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "probability"
	if r.mode == AxisTime {
		p.X.Label.Text = "time (s)"
	} else {
		p.X.Label.Text = "samples"
	}

	for ci, channel := range c.Values {
		pts := make(plotter.XYs, len(channel))
		for i, v := range channel {
			pts[i] = plotter.XY{X: r.x(i, c.SampleRate), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("viz: class line: %w", err)
		}
		line.Color = palette[ci%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		name := fmt.Sprintf("class_%d", ci)
		if ci < len(classNames) {
			name = classNames[ci]
		}
		p.Legend.Add(name, line)
	}

	if err := r.addSpans(p, groundTruth, 1.05, gtColor, "ground truth", c.SampleRate); err != nil {
		return nil, err
	}
	if err := r.addSpans(p, predicted, -0.05, predColor, "predicted", c.SampleRate); err != nil {
		return nil, err
	}

	p.Legend.Top = true
	return &figure{p: p, w: r.width, h: r.height}, nil
}

// addSpans draws each event as a thick horizontal segment at height y.
func (r *Renderer) addSpans(p *plot.Plot, events []eval.Event, y float64, col color.RGBA, legend string, sr int) error {
	for i, ev := range events {
		pts := plotter.XYs{
			{X: r.seconds(ev.Start, sr), Y: y},
			{X: r.seconds(ev.End, sr), Y: y},
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("viz: event span: %w", err)
		}
		line.Color = col
		line.Width = vg.Points(4)
		p.Add(line)
		if i == 0 {
			p.Legend.Add(legend, line)
		}
	}
	return nil
}

func (r *Renderer) x(sample int, sr int) float64 {
	if r.mode == AxisTime {
		return float64(sample) / float64(sr)
	}
	return float64(sample)
}

func (r *Renderer) seconds(t float64, sr int) float64 {
	if r.mode == AxisTime {
		return t
	}
	return t * float64(sr)
}
