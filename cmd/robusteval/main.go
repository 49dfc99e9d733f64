// Package main provides the batch robustness-evaluation tool. It loads
// a CSV corpus and its ground-truth event table, runs the repeated
// inference pipeline against an ONNX model or a remote prediction
// service, and writes plots, an HTML report and a SQLite results
// database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aiot-group/crossai-eval/internal/config"
	"github.com/aiot-group/crossai-eval/internal/dataset"
	"github.com/aiot-group/crossai-eval/internal/dsp"
	"github.com/aiot-group/crossai-eval/internal/eval"
	"github.com/aiot-group/crossai-eval/internal/inference"
	"github.com/aiot-group/crossai-eval/internal/mlclient"
	"github.com/aiot-group/crossai-eval/internal/report"
	"github.com/aiot-group/crossai-eval/internal/resultdb"
	"github.com/aiot-group/crossai-eval/internal/transform"
	"github.com/aiot-group/crossai-eval/internal/version"
	"github.com/aiot-group/crossai-eval/internal/viz"
)

func main() {
	var (
		dataDir      = flag.String("data", "", "directory of per-class CSV recordings (required)")
		gtPath       = flag.String("ground-truth", "", "JSON ground-truth event table (required)")
		gtSamples    = flag.Bool("ground-truth-samples", false, "ground-truth times are sample indices, not seconds")
		modelPath    = flag.String("model", "", "ONNX model file")
		serviceURL   = flag.String("service", "", "remote prediction service base URL (alternative to -model)")
		serviceModel = flag.String("service-model", "default", "model name for the remote service")
		tuningPath   = flag.String("tuning", "", "JSON tuning overlay")
		channel      = flag.String("channel", "", "CSV channel to window (default: first column)")
		spectralFe   = flag.Bool("spectral", false, "feed spectral features instead of raw windows")
		outDir       = flag.String("out", "eval-out", "output directory for plots, report and results DB")
		title        = flag.String("title", "robustness evaluation", "run title")
		workers      = flag.Int("workers", 4, "concurrent instances")
		timeout      = flag.Duration("timeout", 10*time.Minute, "whole-batch timeout")
		xAxis        = flag.String("x-axis", "time", "figure x axis: time or samples")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("robusteval %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *dataDir == "" || *gtPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if (*modelPath == "") == (*serviceURL == "") {
		log.Fatal("exactly one of -model or -service is required")
	}

	if err := run(*dataDir, *gtPath, *gtSamples, *modelPath, *serviceURL, *serviceModel,
		*tuningPath, *channel, *spectralFe, *outDir, *title, *workers, *timeout, *xAxis); err != nil {
		log.Fatal(err)
	}
}

func run(dataDir, gtPath string, gtSamples bool, modelPath, serviceURL, serviceModel,
	tuningPath, channel string, spectralFe bool, outDir, title string,
	workers int, timeout time.Duration, xAxis string) error {

	tuning := &config.Tuning{}
	if tuningPath != "" {
		loaded, err := config.Load(tuningPath)
		if err != nil {
			return err
		}
		tuning = loaded
	}

	opts, err := tuning.Apply(eval.DefaultOptions(100, 1.0, 0.5, nil))
	if err != nil {
		return err
	}

	ds, err := dataset.LoadDir(dataDir, nil)
	if err != nil {
		return err
	}
	if len(opts.ClassNames) == 0 {
		opts.ClassNames = classNamesFromLabels(ds)
	}

	groundTruth, err := dataset.LoadGroundTruth(gtPath, opts.SampleRate, gtSamples)
	if err != nil {
		return err
	}

	var classifier eval.Classifier
	if modelPath != "" {
		session, err := inference.NewSession(modelPath, inference.Config{})
		if err != nil {
			return err
		}
		defer session.Close()
		classifier = session
	} else {
		classifier = mlclient.New(serviceURL, serviceModel, nil)
	}

	mode := viz.AxisTime
	if xAxis == "samples" {
		mode = viz.AxisSamples
	}
	renderer := viz.NewRenderer(14, 6, mode)

	analyzer, err := eval.NewAnalyzer(
		classifier,
		dsp.Lowpass(tuning.GetCutoff(), tuning.GetFilterOrder()),
		renderer,
		opts,
	)
	if err != nil {
		return err
	}

	windower := &transform.Windower{
		SampleRate: opts.SampleRate,
		WindowSize: opts.WindowSize,
		Overlap:    opts.Overlap,
		Spectral:   spectralFe,
	}
	raw := make([]eval.RawInstance, 0, ds.Len())
	for i := range ds.Instances {
		inst := &ds.Instances[i]
		input, err := instanceRaw(inst, channel)
		if err != nil {
			return err
		}
		raw = append(raw, eval.RawInstance{
			ID:          inst.ID,
			Raw:         input,
			GroundTruth: groundTruth[inst.ID],
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	batch := analyzer.AnalyzeBatch(ctx, windower, raw, workers)
	log.Printf("evaluated %d instances (%d failed)", len(batch.Results), len(batch.Failures))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeOutputs(outDir, title, opts, batch); err != nil {
		return err
	}

	total := batch.TotalCounts()
	m := eval.ComputeMetrics(total)
	log.Printf("batch totals: C=%d S=%d D=%d I=%d", total.Correct, total.Substitution, total.Deletion, total.Insertion)
	log.Printf("detection ratio %s, reliability %s, event error rate %s",
		fmtRatio(m.DetectionRatio), fmtRatio(m.Reliability), fmtRatio(m.ErrorRate))
	return nil
}

func writeOutputs(outDir, title string, opts eval.Options, batch *eval.BatchResult) error {
	builder := report.NewBuilder(title)
	for _, id := range batch.IDs() {
		res := batch.Results[id]
		builder.AddInstance(id, res, opts.ClassNames)
		for name, fig := range res.Figures {
			path := filepath.Join(outDir, fmt.Sprintf("%s_%s.png", sanitize(id), name))
			if err := fig.Save(path); err != nil {
				log.Printf("saving figure %s: %v", path, err)
			}
		}
	}
	builder.AddSummary(batch)
	if err := builder.WriteFile(filepath.Join(outDir, "report.html")); err != nil {
		return err
	}

	store, err := resultdb.Open(filepath.Join(outDir, "results.db"))
	if err != nil {
		return err
	}
	defer store.Close()
	runID, err := store.SaveRun(title, opts, batch)
	if err != nil {
		return err
	}
	log.Printf("stored run %s in %s", runID, filepath.Join(outDir, "results.db"))
	return nil
}

// instanceRaw narrows an instance to the named channel so the windower
// always reads column zero, regardless of how the source CSV ordered
// its columns. An empty channel keeps the full channel matrix.
func instanceRaw(inst *dataset.Instance, channel string) ([][]float64, error) {
	if channel == "" {
		return inst.Raw(), nil
	}
	samples, err := inst.Channel(channel)
	if err != nil {
		return nil, err
	}
	return [][]float64{samples}, nil
}

// classNamesFromLabels derives the class roster from the corpus folder
// names, de-duplicated in encounter order. The order must line up with
// the model's output columns; pass class_names in the tuning file when
// the corpus order differs.
func classNamesFromLabels(ds *dataset.Dataset) []string {
	seen := make(map[string]bool)
	var names []string
	for _, inst := range ds.Instances {
		if !seen[inst.Label] {
			seen[inst.Label] = true
			names = append(names, inst.Label)
		}
	}
	return names
}

func sanitize(id string) string {
	out := []rune(id)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '#':
			out[i] = '_'
		}
	}
	return string(out)
}

func fmtRatio(r eval.Ratio) string {
	if !r.IsApplicable() {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", float64(r))
}
