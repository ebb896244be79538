// Package dataset provides the in-memory and the streaming dataset representations.
//
// Dataset is an ordered, finite, indexable sequence of examples.
// Streaming is a lazy, chunk-driven view over a record source,
// for sources too large to materialise.
package dataset

import (
	"context"

	"go.llib.dev/frameless/pkg/errorkit"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/port/source"
)

// ErrNilExample is returned when a Transform yields a nil example
// for an operation that requires one output example per input example.
const ErrNilExample errorkit.Error = "ErrNilExample"

// New creates a Dataset from the given example sequence.
// The Dataset takes ownership of the slice.
func New(examples []datakit.Example) *Dataset {
	return &Dataset{examples: examples}
}

// Dataset is an ordered, finite, indexable sequence of examples.
//
// Operations on a Dataset are non-destructive:
// Filter and Map return a new Dataset and leave the receiver untouched,
// so an index always refers to the same example for the Dataset's lifetime.
type Dataset struct {
	examples []datakit.Example
}

// Len returns the number of examples in the dataset.
func (ds *Dataset) Len() int { return len(ds.examples) }

// At returns the example at index i.
func (ds *Dataset) At(i int) datakit.Example { return ds.examples[i] }

// Examples returns the examples of the dataset in order.
// The returned slice is a copy, mutating it doesn't affect the dataset.
func (ds *Dataset) Examples() []datakit.Example {
	out := make([]datakit.Example, len(ds.examples))
	copy(out, ds.examples)
	return out
}

// Filter returns a new Dataset with the examples the predicate selected,
// preserving their relative order.
func (ds *Dataset) Filter(pred func(datakit.Example) bool) *Dataset {
	var out []datakit.Example
	for _, e := range ds.examples {
		if pred(e) {
			out = append(out, e)
		}
	}
	return New(out)
}

// Map returns a new Dataset where each example is the transform's output
// for the corresponding input example. Exactly one output example is produced
// per input example; a transform yielding nil is an ErrNilExample failure.
func (ds *Dataset) Map(t datakit.Transform) (*Dataset, error) {
	out := make([]datakit.Example, 0, len(ds.examples))
	for i, e := range ds.examples {
		mapped, err := t.Transform(e.Clone())
		if err != nil {
			return nil, err
		}
		if mapped == nil {
			return nil, ErrNilExample.F("transform returned nil for example at index %d", i)
		}
		out = append(out, mapped)
	}
	return New(out), nil
}

// Apply applies the transform in place, replacing each example with the
// transform's output while keeping the one-output-per-input contract of Map.
func (ds *Dataset) Apply(t datakit.Transform) error {
	mapped, err := ds.Map(t)
	if err != nil {
		return err
	}
	ds.examples = mapped.examples
	return nil
}

// Head returns a new Dataset with the first min(n, Len) examples.
func (ds *Dataset) Head(n int) *Dataset {
	if n > len(ds.examples) {
		n = len(ds.examples)
	}
	if n < 0 {
		n = 0
	}
	out := make([]datakit.Example, n)
	copy(out, ds.examples[:n])
	return New(out)
}

// Select returns a new Dataset with the examples at the given indices,
// in the given order.
func (ds *Dataset) Select(indices []int) *Dataset {
	out := make([]datakit.Example, 0, len(indices))
	for _, i := range indices {
		out = append(out, ds.examples[i])
	}
	return New(out)
}

// Concat returns a new Dataset with the receiver's examples followed by oth's.
func (ds *Dataset) Concat(oth *Dataset) *Dataset {
	out := make([]datakit.Example, 0, len(ds.examples)+len(oth.examples))
	out = append(out, ds.examples...)
	out = append(out, oth.examples...)
	return New(out)
}

// Save writes the full ordered example sequence with the given Writer capability.
func (ds *Dataset) Save(ctx context.Context, w source.Writer, path string) (rErr error) {
	rw, err := w.Create(ctx, path)
	if err != nil {
		return err
	}
	defer errorkit.Finish(&rErr, rw.Close)
	for _, e := range ds.examples {
		if err := rw.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
