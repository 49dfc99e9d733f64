// Package dataset holds the on-disk time-series corpus used by batch
// evaluation: multi-channel instances loaded from per-class CSV
// directories plus the ground-truth event table that scores them.
package dataset

import "fmt"

// Channel is one named sample stream of an instance.
type Channel struct {
	Name    string
	Samples []float64
}

// Instance is one recorded time series. ID is the source file name and
// keys the instance throughout batch evaluation; Label is the class
// folder the file was found in.
type Instance struct {
	ID       string
	Label    string
	Channels []Channel
}

// Channel returns the named sample stream.
func (in *Instance) Channel(name string) ([]float64, error) {
	for _, c := range in.Channels {
		if c.Name == name {
			return c.Samples, nil
		}
	}
	return nil, fmt.Errorf("dataset: instance %s has no channel %q", in.ID, name)
}

// Raw returns the channel-major sample matrix in channel order, the
// shape batch transforms consume.
func (in *Instance) Raw() [][]float64 {
	out := make([][]float64, len(in.Channels))
	for i, c := range in.Channels {
		out[i] = c.Samples
	}
	return out
}

// Dataset is an ordered collection of instances.
type Dataset struct {
	Instances []Instance
}

// Len returns the number of instances.
func (d *Dataset) Len() int { return len(d.Instances) }

// Slice returns a view of instances [i, j). The underlying instances
// are shared, not copied.
func (d *Dataset) Slice(i, j int) *Dataset {
	return &Dataset{Instances: d.Instances[i:j]}
}

// ByID returns the instance with the given ID.
func (d *Dataset) ByID(id string) (*Instance, error) {
	for i := range d.Instances {
		if d.Instances[i].ID == id {
			return &d.Instances[i], nil
		}
	}
	return nil, fmt.Errorf("dataset: no instance %q", id)
}
