// Package config loads evaluation tuning from JSON files. All fields
// are optional pointers so a partial file overrides only what it
// names; everything else keeps the pipeline defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aiot-group/crossai-eval/internal/eval"
)

// Tuning mirrors the evaluation options as an overlay. Nil fields are
// left at their defaults when applied.
type Tuning struct {
	SampleRate    *int     `json:"sample_rate,omitempty"`
	WindowSize    *float64 `json:"window_size,omitempty"`
	Overlap       *float64 `json:"overlap,omitempty"`
	Repeats       *int     `json:"repeats,omitempty"`
	Parallelism   *int     `json:"parallelism,omitempty"`
	ProbThreshold *float64 `json:"prob_threshold,omitempty"`
	MinDuration   *float64 `json:"min_duration,omitempty"`
	IoUThreshold  *float64 `json:"iou_threshold,omitempty"`
	Anchor        *string  `json:"anchor,omitempty"`
	MatchScope    *string  `json:"match_scope,omitempty"`
	ClassNames    []string `json:"class_names,omitempty"`
	Include       []string `json:"include,omitempty"`
	Cutoff        *float64 `json:"cutoff,omitempty"`
	FilterOrder   *int     `json:"filter_order,omitempty"`
}

// Load reads a tuning overlay from a JSON file. The file must have a
// .json extension and stay under 1 MB; both checks guard against
// pointing the flag at the wrong artifact.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config: file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config: stat: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config: file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", cleanPath, err)
	}
	return t, nil
}

// Apply overlays the tuning onto opts and returns the result. Range
// validation is left to the pipeline, which checks the merged options
// once.
func (t *Tuning) Apply(opts eval.Options) (eval.Options, error) {
	if t.SampleRate != nil {
		opts.SampleRate = *t.SampleRate
	}
	if t.WindowSize != nil {
		opts.WindowSize = *t.WindowSize
	}
	if t.Overlap != nil {
		opts.Overlap = *t.Overlap
	}
	if t.Repeats != nil {
		opts.Repeats = *t.Repeats
	}
	if t.Parallelism != nil {
		opts.Parallelism = *t.Parallelism
	}
	if t.ProbThreshold != nil {
		opts.ProbThreshold = *t.ProbThreshold
	}
	if t.MinDuration != nil {
		opts.MinDuration = *t.MinDuration
	}
	if t.IoUThreshold != nil {
		opts.IoUThreshold = *t.IoUThreshold
	}
	if t.Anchor != nil {
		anchor, err := parseAnchor(*t.Anchor)
		if err != nil {
			return opts, err
		}
		opts.Anchor = anchor
	}
	if t.MatchScope != nil {
		scope, err := parseScope(*t.MatchScope)
		if err != nil {
			return opts, err
		}
		opts.Scope = scope
	}
	if t.ClassNames != nil {
		opts.ClassNames = t.ClassNames
	}
	if t.Include != nil {
		fields := make([]eval.Field, len(t.Include))
		for i, f := range t.Include {
			fields[i] = eval.Field(f)
		}
		opts.Include = fields
	}
	return opts, nil
}

// GetCutoff returns the low-pass cutoff in Hz, defaulting to 1 Hz.
func (t *Tuning) GetCutoff() float64 {
	if t.Cutoff == nil {
		return 1.0
	}
	return *t.Cutoff
}

// GetFilterOrder returns the low-pass order, defaulting to 3.
func (t *Tuning) GetFilterOrder() int {
	if t.FilterOrder == nil {
		return 3
	}
	return *t.FilterOrder
}

func parseAnchor(s string) (eval.Anchor, error) {
	switch s {
	case "start":
		return eval.AnchorStart, nil
	case "middle":
		return eval.AnchorMiddle, nil
	case "end":
		return eval.AnchorEnd, nil
	}
	return 0, fmt.Errorf("config: unknown anchor %q (want start, middle or end)", s)
}

func parseScope(s string) (eval.MatchScope, error) {
	switch s {
	case "all":
		return eval.MatchAllClasses, nil
	case "same_class":
		return eval.MatchSameClass, nil
	}
	return 0, fmt.Errorf("config: unknown match scope %q (want all or same_class)", s)
}
