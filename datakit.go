// Package datakit provides example-oriented access to tabular and text datasets:
// loading from file sources, disk caching of parsed results, out-of-core
// iteration over sources too large to hold in memory,
// and deterministic partitioning into train/validation/test groups.
//
// The package itself only holds the shared currency of the module: the Example
// record type and the Transform contract. The behaviour lives in the subpackages:
//
//   - port/source: the record source and persistence capabilities
//   - pkg/dataset: in-memory and streaming dataset representations
//   - pkg/dataload: loading with advisory snapshot caching
//   - pkg/split: train/validation/test splitting strategies
//   - pkg/transform: example -> example transformations
//   - pkg/generate: synthetic example generation
//   - adapter/...: concrete source formats and cache backends
package datakit

import (
	"fmt"
	"time"
)

// Example is one record of a dataset, modelled as a field-name-to-value mapping.
// The field set may vary between examples within the same dataset, no schema is enforced.
// Values are expected to be scalars, text, nested mappings or sequences.
type Example map[string]any

// Clone returns a copy of the example.
// The copy is shallow for nested mappings and sequences,
// replacing a field never affects the original example.
func (e Example) Clone() Example {
	if e == nil {
		return nil
	}
	out := make(Example, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// String looks up a field and reports its value as string.
// Non-string scalar values are formatted with the fmt package.
func (e Example) String(field string) (string, bool) {
	v, ok := e[field]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Int looks up a field holding an integer-like value.
func (e Example) Int(field string) (int64, bool) {
	switch v := e[field].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float looks up a field holding a numeric value.
func (e Example) Float(field string) (float64, bool) {
	switch v := e[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// DefaultTimeLayout is the layout Time falls back on for string timestamp fields.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Time looks up a field holding a point in time.
// It accepts time.Time values, strings parsed with the given layouts
// (DefaultTimeLayout and RFC3339 when none is given),
// and numeric values interpreted as unix seconds.
func (e Example) Time(field string, layouts ...string) (time.Time, bool) {
	switch v := e[field].(type) {
	case time.Time:
		return v, true
	case string:
		if len(layouts) == 0 {
			layouts = []string{DefaultTimeLayout, time.RFC3339}
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int64:
		return time.Unix(v, 0).UTC(), true
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	case float64:
		sec := int64(v)
		nsec := int64((v - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	default:
		return time.Time{}, false
	}
}

// Transform is the contract for an example -> example transformation.
// A Transform must be pure with respect to the core's state:
// it receives a copy of the input example,
// and only its return value is observed by the caller.
type Transform interface {
	Transform(Example) (Example, error)
}

// TransformFunc is a function adapter for the Transform interface.
type TransformFunc func(Example) (Example, error)

func (fn TransformFunc) Transform(e Example) (Example, error) { return fn(e) }

// BatchTransform is the contract for a batch -> batch transformation.
// Unlike Transform, a BatchTransform may change the number of examples.
type BatchTransform interface {
	TransformBatch([]Example) ([]Example, error)
}

// BatchTransformFunc is a function adapter for the BatchTransform interface.
type BatchTransformFunc func([]Example) ([]Example, error)

func (fn BatchTransformFunc) TransformBatch(es []Example) ([]Example, error) { return fn(es) }

// Pipeline chains transforms together into a single Transform,
// applying them in the given order.
func Pipeline(ts ...Transform) Transform {
	return TransformFunc(func(e Example) (Example, error) {
		var err error
		for _, t := range ts {
			e, err = t.Transform(e)
			if err != nil {
				return nil, err
			}
		}
		return e, nil
	})
}
