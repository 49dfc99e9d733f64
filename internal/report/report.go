// Package report assembles a self-contained HTML report for a batch
// evaluation run using go-echarts: one curve chart per instance plus
// batch-level ICSD and trust-metric charts.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/aiot-group/crossai-eval/internal/eval"
)

// Builder accumulates charts for one batch run.
type Builder struct {
	title string
	page  *components.Page
}

// NewBuilder starts an empty report page.
func NewBuilder(title string) *Builder {
	return &Builder{title: title, page: components.NewPage()}
}

// AddInstance appends one instance's smoothed probability curves. The
// result's Smoothed field must have been requested; instances without
// it are skipped silently since the report is best-effort.
func (b *Builder) AddInstance(id string, res *eval.Result, classNames []string) {
	curve := res.Smoothed
	if curve == nil {
		curve = res.Interpolated
	}
	if curve == nil || curve.Classes() == 0 {
		return
	}

	samples := curve.Samples()
	xs := make([]string, samples)
	for i := range xs {
		xs[i] = fmt.Sprintf("%.2f", float64(i)/float64(curve.SampleRate))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Instance %s", id),
			Subtitle: subtitle(res),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xs)
	for ci, channel := range curve.Values {
		series := make([]opts.LineData, len(channel))
		for i, v := range channel {
			series[i] = opts.LineData{Value: v}
		}
		name := fmt.Sprintf("class_%d", ci)
		if ci < len(classNames) {
			name = classNames[ci]
		}
		line.AddSeries(name, series)
	}
	b.page.AddCharts(line)
}

// AddSummary appends the batch-level ICSD tallies and the per-instance
// trust metrics.
func (b *Builder) AddSummary(batch *eval.BatchResult) {
	total := batch.TotalCounts()
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: b.title, Subtitle: "batch ICSD totals"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"correct", "substitution", "deletion", "insertion"}).
		AddSeries("events", []opts.BarData{
			{Value: total.Correct},
			{Value: total.Substitution},
			{Value: total.Deletion},
			{Value: total.Insertion},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	b.page.AddCharts(bar)

	ids := batch.IDs()
	dr := make([]opts.BarData, len(ids))
	rel := make([]opts.BarData, len(ids))
	erer := make([]opts.BarData, len(ids))
	for i, id := range ids {
		m := batch.Results[id].Metrics
		dr[i] = metricBar(m.DetectionRatio)
		rel[i] = metricBar(m.Reliability)
		erer[i] = metricBar(m.ErrorRate)
	}
	metrics := charts.NewBar()
	metrics.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Trust metrics per instance"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	metrics.SetXAxis(ids).
		AddSeries("detection ratio", dr).
		AddSeries("reliability", rel).
		AddSeries("event error rate", erer)
	b.page.AddCharts(metrics)
}

// metricBar renders NotApplicable metrics as missing bars rather than
// zeros, so an undefined ratio is not mistaken for a bad one.
func metricBar(r eval.Ratio) opts.BarData {
	if !r.IsApplicable() {
		return opts.BarData{Value: nil, Name: "n/a"}
	}
	return opts.BarData{Value: float64(r)}
}

func subtitle(res *eval.Result) string {
	c := res.Counts
	return fmt.Sprintf("C=%d S=%d D=%d I=%d DR=%s Rel=%s ERER=%s",
		c.Correct, c.Substitution, c.Deletion, c.Insertion,
		formatRatio(res.Metrics.DetectionRatio),
		formatRatio(res.Metrics.Reliability),
		formatRatio(res.Metrics.ErrorRate))
}

func formatRatio(r eval.Ratio) string {
	if !r.IsApplicable() {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", float64(r))
}

// Render writes the assembled page.
func (b *Builder) Render(w io.Writer) error {
	return b.page.Render(w)
}

// WriteFile renders the report to path.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()
	if err := b.Render(f); err != nil {
		return fmt.Errorf("report: rendering: %w", err)
	}
	return f.Close()
}
