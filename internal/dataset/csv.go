package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aiot-group/crossai-eval/internal/monitoring"
)

// LoadDir loads every *.csv under root into a Dataset. The immediate
// parent directory of each file becomes the instance label and the
// file name its ID. The first row is the header; when channels is
// non-empty only the named columns are kept, otherwise all columns
// load. Files that fail to parse are logged and skipped so one corrupt
// recording does not sink the corpus.
func LoadDir(root string, channels []string) (*Dataset, error) {
	ds := &Dataset{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		inst, err := loadCSV(path, channels)
		if err != nil {
			monitoring.Logf("dataset: skipping %s: %v", path, err)
			return nil
		}
		ds.Instances = append(ds.Instances, *inst)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: walking %s: %w", root, err)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("dataset: no readable CSV files under %s", root)
	}
	return ds, nil
}

func loadCSV(path string, channels []string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	// Column index per requested channel, in header order when no
	// selection was given.
	selected := make([]int, 0, len(header))
	names := make([]string, 0, len(header))
	if len(channels) == 0 {
		for i, name := range header {
			selected = append(selected, i)
			names = append(names, strings.TrimSpace(name))
		}
	} else {
		for _, want := range channels {
			found := -1
			for i, name := range header {
				if strings.TrimSpace(name) == want {
					found = i
					break
				}
			}
			if found < 0 {
				return nil, fmt.Errorf("missing channel %q", want)
			}
			selected = append(selected, found)
			names = append(names, want)
		}
	}

	samples := make([][]float64, len(selected))
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, col := range selected {
			if col >= len(record) {
				return nil, fmt.Errorf("short row: %d columns", len(record))
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", names[i], err)
			}
			samples[i] = append(samples[i], v)
		}
	}
	if len(samples[0]) == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	inst := &Instance{
		ID:    filepath.Base(path),
		Label: filepath.Base(filepath.Dir(path)),
	}
	for i, name := range names {
		inst.Channels = append(inst.Channels, Channel{Name: name, Samples: samples[i]})
	}
	return inst, nil
}
