package eval

import (
	"context"
	"sort"
	"sync"

	"github.com/aiot-group/crossai-eval/internal/monitoring"
)

// Figure is an opaque rendered figure that can be persisted. Concrete
// implementations live in the viz package; this package never inspects
// them.
type Figure interface {
	Save(filename string) error
}

// FigureRenderer draws a per-class probability curve with its
// ground-truth and predicted event spans. Rendering is a side effect
// only: a renderer failure drops the figure and never alters computed
// results.
type FigureRenderer interface {
	RenderCurve(title string, c *Curve, classNames []string, groundTruth, predicted []Event) (Figure, error)
}

// Transform is the external data-preparation capability used by batch
// evaluation: it turns one raw instance (channel-major samples) into
// the window × feature batch the classifier expects.
type Transform interface {
	Apply(raw [][]float64) ([][]float64, error)
}

// Analyzer wires the pipeline stages for one configuration. It holds
// no per-instance state and is safe for concurrent use.
type Analyzer struct {
	classifier Classifier
	filter     FilterFunc
	renderer   FigureRenderer // nil disables figures
	opts       Options
}

// NewAnalyzer validates the options once and returns an Analyzer bound
// to the given collaborators. The renderer may be nil.
func NewAnalyzer(c Classifier, f FilterFunc, r FigureRenderer, opts Options) (*Analyzer, error) {
	if c == nil {
		return nil, validationf("classifier is required")
	}
	if f == nil {
		return nil, validationf("filter is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{classifier: c, filter: f, renderer: r, opts: opts}, nil
}

// Options returns a copy of the analyzer's configuration.
func (a *Analyzer) Options() Options { return a.opts }

// Result is the bundle produced by one single-instance evaluation.
// Fields outside the configured allow-list stay nil; Outcome, Counts
// and Metrics are always populated because the pipeline computes them
// regardless.
type Result struct {
	Transformed  [][]float64
	Probas       *ProbabilityTensor
	Stats        *WindowStats
	Interpolated *Curve
	Smoothed     *Curve
	Thresholded  *Curve
	Events       []Event
	Figures      map[string]Figure

	Outcome *Outcome
	Counts  Counts
	Metrics Metrics
}

// Analyze evaluates one prepared instance against its ground-truth
// events. input is the window × feature batch handed to the
// classifier; groundTruth events are in seconds and are not mutated.
func (a *Analyzer) Analyze(ctx context.Context, input [][]float64, groundTruth []Event) (*Result, error) {
	if len(input) == 0 {
		return nil, validationf("input must be at least 2-dimensional with one or more windows")
	}
	for w, row := range input {
		if len(row) == 0 {
			return nil, validationf("input window %d has no features", w)
		}
	}

	res := &Result{}
	if a.opts.includes(FieldTransformed) {
		res.Transformed = input
	}

	tensor, err := GenerateProbabilities(ctx, a.classifier, input, a.opts.Repeats, a.opts.Parallelism)
	if err != nil {
		return nil, err
	}
	if a.opts.includes(FieldProbas) {
		res.Probas = tensor
	}

	stats := ComputeStats(tensor)
	if a.opts.includes(FieldStats) {
		res.Stats = stats
	}

	interpolated, err := ReconstructCurve(stats, &a.opts)
	if err != nil {
		return nil, err
	}
	if a.opts.includes(FieldInterpolated) {
		res.Interpolated = interpolated
	}

	smoothed, err := SmoothCurve(interpolated, a.filter, a.opts.ClassNames)
	if err != nil {
		return nil, err
	}
	if a.opts.includes(FieldSmoothed) {
		res.Smoothed = smoothed
	}

	events, thresholded := ExtractEvents(smoothed, a.opts.ClassNames, a.opts.ProbThreshold, a.opts.MinDuration)
	if a.opts.includes(FieldThresholded) {
		res.Thresholded = thresholded
	}
	if a.opts.includes(FieldEvents) {
		res.Events = events
	}

	if a.renderer != nil && a.opts.includes(FieldFigures) {
		res.Figures = a.renderFigures(smoothed, thresholded, groundTruth, events)
	}

	res.Outcome = MatchEvents(events, groundTruth, a.opts.IoUThreshold, a.opts.Scope)
	res.Counts = res.Outcome.Counts()
	res.Metrics = ComputeMetrics(res.Counts)
	return res, nil
}

// renderFigures draws the smoothed and thresholded curves. Failures
// are logged and skipped; figures never gate the numeric results.
func (a *Analyzer) renderFigures(smoothed, thresholded *Curve, groundTruth, predicted []Event) map[string]Figure {
	figs := make(map[string]Figure, 2)
	if fig, err := a.renderer.RenderCurve("Interpolated Prediction Probabilities", smoothed, a.opts.ClassNames, groundTruth, nil); err != nil {
		monitoring.Logf("eval: render smoothed curve: %v", err)
	} else {
		figs["smoothed_probas"] = fig
	}
	if fig, err := a.renderer.RenderCurve("Thresholded Prediction Probabilities", thresholded, a.opts.ClassNames, groundTruth, predicted); err != nil {
		monitoring.Logf("eval: render thresholded curve: %v", err)
	} else {
		figs["thresholded_probas"] = fig
	}
	return figs
}

// Instance is one prepared item of a multi-instance evaluation.
type Instance struct {
	// ID keys the instance's result; completion order never affects
	// the assembled output.
	ID string
	// Input is the window × feature batch for the classifier.
	Input [][]float64
	// GroundTruth events for this instance, in seconds.
	GroundTruth []Event
}

// RawInstance is one unprepared item of a batch evaluation; the batch
// Transform turns Raw into classifier input.
type RawInstance struct {
	ID          string
	Raw         [][]float64
	GroundTruth []Event
}

// BatchResult collects per-instance results and failures keyed by
// instance ID. A failed instance appears in Failures only; the rest of
// the batch is unaffected (skip-and-record policy).
type BatchResult struct {
	Results  map[string]*Result
	Failures map[string]error
}

// IDs returns the sorted identifiers of successful instances.
func (b *BatchResult) IDs() []string {
	ids := make([]string, 0, len(b.Results))
	for id := range b.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalCounts sums the ICSD tallies across successful instances.
func (b *BatchResult) TotalCounts() Counts {
	var total Counts
	for _, r := range b.Results {
		total.Correct += r.Counts.Correct
		total.Substitution += r.Counts.Substitution
		total.Deletion += r.Counts.Deletion
		total.Insertion += r.Counts.Insertion
	}
	return total
}

// AnalyzeMany fans the single-instance pipeline out over prepared
// instances on up to workers goroutines. Instances share no state, so
// a cancelled or failing instance never corrupts another; its error is
// recorded under its ID and the batch continues.
func (a *Analyzer) AnalyzeMany(ctx context.Context, instances []Instance, workers int) *BatchResult {
	out := &BatchResult{
		Results:  make(map[string]*Result, len(instances)),
		Failures: make(map[string]error),
	}
	if workers <= 1 {
		workers = 1
	}
	if workers > len(instances) {
		workers = len(instances)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan Instance)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				res, err := a.Analyze(ctx, inst.Input, inst.GroundTruth)
				mu.Lock()
				if err != nil {
					monitoring.Logf("eval: instance %s failed: %v", inst.ID, err)
					out.Failures[inst.ID] = err
				} else {
					out.Results[inst.ID] = res
				}
				mu.Unlock()
			}
		}()
	}
	for _, inst := range instances {
		jobs <- inst
	}
	close(jobs)
	wg.Wait()
	return out
}

// AnalyzeBatch prepares each raw instance with the transform, then
// evaluates it. Transform failures are recorded per instance like any
// other stage failure.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, t Transform, raw []RawInstance, workers int) *BatchResult {
	prepared := make([]Instance, 0, len(raw))
	failures := make(map[string]error)
	for _, r := range raw {
		input, err := t.Apply(r.Raw)
		if err != nil {
			monitoring.Logf("eval: transform %s failed: %v", r.ID, err)
			failures[r.ID] = err
			continue
		}
		prepared = append(prepared, Instance{ID: r.ID, Input: input, GroundTruth: r.GroundTruth})
	}
	out := a.AnalyzeMany(ctx, prepared, workers)
	for id, err := range failures {
		out.Failures[id] = err
	}
	return out
}
