package transform

import (
	"fmt"
	"math/rand"

	"github.com/aiot-group/crossai-eval/internal/dataset"
)

// Augmentation perturbs one sample stream. Implementations must return
// a new slice of the same length and leave the input untouched.
type Augmentation struct {
	Name string
	Func func(rng *rand.Rand, samples []float64) []float64
}

// Jitter adds zero-mean Gaussian noise with the given standard
// deviation.
func Jitter(std float64) Augmentation {
	return Augmentation{
		Name: "jitter",
		Func: func(rng *rand.Rand, samples []float64) []float64 {
			out := make([]float64, len(samples))
			for i, v := range samples {
				out[i] = v + rng.NormFloat64()*std
			}
			return out
		},
	}
}

// Scale multiplies the stream by a factor drawn uniformly from
// [low, high].
func Scale(low, high float64) Augmentation {
	return Augmentation{
		Name: "scale",
		Func: func(rng *rand.Rand, samples []float64) []float64 {
			factor := low + rng.Float64()*(high-low)
			out := make([]float64, len(samples))
			for i, v := range samples {
				out[i] = v * factor
			}
			return out
		},
	}
}

// Shift rotates the stream by a random offset of at most maxFraction
// of its length, wrapping around.
func Shift(maxFraction float64) Augmentation {
	return Augmentation{
		Name: "shift",
		Func: func(rng *rand.Rand, samples []float64) []float64 {
			n := len(samples)
			if n == 0 {
				return nil
			}
			maxOff := int(maxFraction * float64(n))
			if maxOff < 1 {
				return append([]float64(nil), samples...)
			}
			// A full rotation is the largest distinct shift.
			if maxOff > n {
				maxOff = n
			}
			off := rng.Intn(2*maxOff+1) - maxOff
			out := make([]float64, n)
			for i := range samples {
				out[(i+off+n)%n] = samples[i]
			}
			return out
		},
	}
}

// Augmenter grows a dataset with perturbed copies of each instance.
// Originals are always retained; each repeat appends one copy that has
// every augmentation applied in order to every channel, with the
// instance label and ID duplicated onto the copy.
type Augmenter struct {
	Augmentations []Augmentation
	Repeats       int
	Rng           *rand.Rand
}

// NewAugmenter seeds the augmenter deterministically so augmented
// corpora are reproducible.
func NewAugmenter(seed int64, repeats int, augs ...Augmentation) *Augmenter {
	return &Augmenter{
		Augmentations: augs,
		Repeats:       repeats,
		Rng:           rand.New(rand.NewSource(seed)),
	}
}

// Transform returns a new dataset holding the originals followed by
// their augmented copies. The source dataset is not modified.
func (a *Augmenter) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if a.Repeats < 1 {
		return nil, fmt.Errorf("transform: augmenter repeats must be at least 1, got %d", a.Repeats)
	}
	out := &dataset.Dataset{}
	for _, inst := range ds.Instances {
		out.Instances = append(out.Instances, inst)
		for r := 0; r < a.Repeats; r++ {
			copyInst := dataset.Instance{
				ID:    fmt.Sprintf("%s#aug%d", inst.ID, r),
				Label: inst.Label,
			}
			for _, ch := range inst.Channels {
				samples := append([]float64(nil), ch.Samples...)
				for _, aug := range a.Augmentations {
					samples = aug.Func(a.Rng, samples)
				}
				copyInst.Channels = append(copyInst.Channels, dataset.Channel{Name: ch.Name, Samples: samples})
			}
			out.Instances = append(out.Instances, copyInst)
		}
	}
	return out, nil
}
