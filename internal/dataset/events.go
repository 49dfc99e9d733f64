package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aiot-group/crossai-eval/internal/eval"
)

// gtEntry is the on-disk shape of one annotated event.
type gtEntry struct {
	Label string  `json:"label"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// LoadGroundTruth reads a JSON ground-truth table mapping instance ID
// to its annotated events. When inSamples is true the start/end values
// are sample indices and are converted to seconds with sampleRate;
// otherwise they are already seconds. Events with start >= end are
// rejected so annotation mistakes fail loudly instead of skewing the
// metrics.
func LoadGroundTruth(path string, sampleRate int, inSamples bool) (map[string][]eval.Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading ground truth: %w", err)
	}
	var table map[string][]gtEntry
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("dataset: parsing ground truth %s: %w", path, err)
	}
	if inSamples && sampleRate <= 0 {
		return nil, fmt.Errorf("dataset: sample rate required for sample-indexed ground truth")
	}

	out := make(map[string][]eval.Event, len(table))
	for id, entries := range table {
		events := make([]eval.Event, 0, len(entries))
		for i, e := range entries {
			start, end := e.Start, e.End
			if inSamples {
				start /= float64(sampleRate)
				end /= float64(sampleRate)
			}
			if start >= end {
				return nil, fmt.Errorf("dataset: %s event %d: start %g >= end %g", id, i, start, end)
			}
			events = append(events, eval.Event{Label: e.Label, Start: start, End: end})
		}
		out[id] = events
	}
	return out, nil
}
