// Package split partitions a dataset's index domain into named groups,
// such as train/validation/test.
//
// Every strategy honours the same contract: the produced groups are pairwise
// disjoint, their union covers every example exactly once, and randomised
// strategies are fully reproducible from their seed.
//
// The strategy set is closed: Random, Stratified, Time, Group and Custom
// all satisfy the Splitter capability, and new strategies are added as new
// variants of it.
package split

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"go.llib.dev/frameless/pkg/errorkit"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/pkg/dataset"
)

const (
	// ErrInvalidProportions is returned when the declared proportions don't sum to one.
	ErrInvalidProportions errorkit.Error = "ErrInvalidProportions"
	// ErrIncompleteAssignment is returned when a Custom split leaves an example unassigned.
	ErrIncompleteAssignment errorkit.Error = "ErrIncompleteAssignment"
	// ErrInvalidField is returned when an example lacks the field a strategy partitions by.
	ErrInvalidField errorkit.Error = "ErrInvalidField"
)

// proportionTolerance is the absolute error the proportion sum may have.
const proportionTolerance = 1e-6

// Part declares one named split and its requested proportion of the dataset.
type Part struct {
	Name     string
	Fraction float64
}

// TrainValTest declares the conventional three way split.
func TrainValTest(train, val, test float64) []Part {
	return []Part{
		{Name: "train", Fraction: train},
		{Name: "val", Fraction: val},
		{Name: "test", Fraction: test},
	}
}

// Result maps each declared split name to its dataset.
type Result map[string]*dataset.Dataset

// Splitter is the capability shared by every splitting strategy.
type Splitter interface {
	Split(ds *dataset.Dataset) (Result, error)
}

// Random assigns examples to splits by a seeded random permutation.
//
// The seed is the sole source of randomness: the same seed over the same
// dataset reproduces the identical split membership across runs.
// The permutation is cut into contiguous runs of round(fraction*N) examples
// in declared part order, with any rounding remainder going to the last part,
// so the run sizes always sum to exactly N.
type Random struct {
	Parts []Part
	Seed  int64
}

func (s Random) Split(ds *dataset.Dataset) (Result, error) {
	n := ds.Len()
	if n == 0 {
		return emptyResult(s.Parts), nil
	}
	if err := validate(s.Parts); err != nil {
		return nil, err
	}
	perm := rand.New(rand.NewSource(s.Seed)).Perm(n)
	sizes := runSizes(s.Parts, n)
	res := make(Result, len(s.Parts))
	var off int
	for i, p := range s.Parts {
		res[p.Name] = ds.Select(perm[off : off+sizes[i]])
		off += sizes[i]
	}
	return res, nil
}

// Stratified splits the examples of every label value independently,
// so each split's per-label proportions approximate the requested global
// proportions within one example, even when the class balance is skewed.
//
// The Random algorithm is applied within each label group with the same seed.
type Stratified struct {
	Parts []Part
	Seed  int64
	// LabelField designates the field the examples are grouped by.
	LabelField string
}

func (s Stratified) Split(ds *dataset.Dataset) (Result, error) {
	n := ds.Len()
	if n == 0 {
		return emptyResult(s.Parts), nil
	}
	if err := validate(s.Parts); err != nil {
		return nil, err
	}
	byLabel := make(map[string][]int)
	var labels []string
	for i := 0; i < n; i++ {
		label, ok := ds.At(i).String(s.LabelField)
		if !ok {
			return nil, ErrInvalidField.F("stratified split: example %d has no %q field", i, s.LabelField)
		}
		if _, seen := byLabel[label]; !seen {
			labels = append(labels, label)
		}
		byLabel[label] = append(byLabel[label], i)
	}
	sort.Strings(labels)
	indices := make(map[string][]int, len(s.Parts))
	for _, label := range labels {
		group := byLabel[label]
		perm := rand.New(rand.NewSource(s.Seed)).Perm(len(group))
		sizes := runSizes(s.Parts, len(group))
		var off int
		for i, p := range s.Parts {
			for _, j := range perm[off : off+sizes[i]] {
				indices[p.Name] = append(indices[p.Name], group[j])
			}
			off += sizes[i]
		}
	}
	return selectAll(ds, s.Parts, indices), nil
}

// Time assigns examples to splits in chronological order:
// the earliest examples go to the first declared part, and so on.
// There is no randomness; timestamp ties keep their original index order.
type Time struct {
	Parts []Part
	// TimeField designates the timestamp field the examples are ordered by.
	TimeField string
	// Layouts are the accepted layouts for string timestamp values.
	//
	// Default: datakit.DefaultTimeLayout and time.RFC3339
	Layouts []string
}

func (s Time) Split(ds *dataset.Dataset) (Result, error) {
	n := ds.Len()
	if n == 0 {
		return emptyResult(s.Parts), nil
	}
	if err := validate(s.Parts); err != nil {
		return nil, err
	}
	stamps := make([]time.Time, n)
	for i := 0; i < n; i++ {
		t, ok := ds.At(i).Time(s.TimeField, s.Layouts...)
		if !ok {
			return nil, ErrInvalidField.F("time split: example %d has no usable %q field", i, s.TimeField)
		}
		stamps[i] = t
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return stamps[order[a]].Before(stamps[order[b]])
	})
	sizes := runSizes(s.Parts, n)
	res := make(Result, len(s.Parts))
	var off int
	for i, p := range s.Parts {
		res[p.Name] = ds.Select(order[off : off+sizes[i]])
		off += sizes[i]
	}
	return res, nil
}

// Group treats every set of examples sharing a group-key value as an atomic
// unit: the Random assignment runs over the distinct group keys, so all
// examples of a group land in the same split.
// Proportions are approximate at the group level,
// not guaranteed exact at the example level.
type Group struct {
	Parts []Part
	Seed  int64
	// GroupField designates the field whose value identifies an example's group.
	GroupField string
}

func (s Group) Split(ds *dataset.Dataset) (Result, error) {
	n := ds.Len()
	if n == 0 {
		return emptyResult(s.Parts), nil
	}
	if err := validate(s.Parts); err != nil {
		return nil, err
	}
	keys := make([]string, n)
	distinct := make([]string, 0)
	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		key, ok := ds.At(i).String(s.GroupField)
		if !ok {
			return nil, ErrInvalidField.F("group split: example %d has no %q field", i, s.GroupField)
		}
		keys[i] = key
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			distinct = append(distinct, key)
		}
	}
	sort.Strings(distinct)
	perm := rand.New(rand.NewSource(s.Seed)).Perm(len(distinct))
	sizes := runSizes(s.Parts, len(distinct))
	partOf := make(map[string]string, len(distinct))
	var off int
	for i, p := range s.Parts {
		for _, j := range perm[off : off+sizes[i]] {
			partOf[distinct[j]] = p.Name
		}
		off += sizes[i]
	}
	indices := make(map[string][]int, len(s.Parts))
	for i, key := range keys {
		name := partOf[key]
		indices[name] = append(indices[name], i)
	}
	return selectAll(ds, s.Parts, indices), nil
}

// Custom delegates the assignment entirely to a caller supplied function.
// The only obligation of the strategy is that the assignment is total:
// every example must receive a split name.
type Custom struct {
	// Assign names the split of the example at the given index.
	// Returning an empty name leaves the example unassigned,
	// which fails the split with ErrIncompleteAssignment.
	Assign func(i int, e datakit.Example) (string, error)
}

func (s Custom) Split(ds *dataset.Dataset) (Result, error) {
	if s.Assign == nil {
		return nil, ErrIncompleteAssignment.F("custom split: no assign function")
	}
	indices := make(map[string][]int)
	var names []string
	for i := 0; i < ds.Len(); i++ {
		name, err := s.Assign(i, ds.At(i))
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, ErrIncompleteAssignment.F("custom split: example %d left unassigned", i)
		}
		if _, seen := indices[name]; !seen {
			names = append(names, name)
		}
		indices[name] = append(indices[name], i)
	}
	res := make(Result, len(names))
	for _, name := range names {
		res[name] = ds.Select(indices[name])
	}
	return res, nil
}

func validate(parts []Part) error {
	if len(parts) == 0 {
		return ErrInvalidProportions.F("split: no parts declared")
	}
	var sum float64
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if p.Name == "" {
			return ErrInvalidProportions.F("split: part with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return ErrInvalidProportions.F("split: duplicate part name %q", p.Name)
		}
		if p.Fraction < 0 || 1 < p.Fraction {
			return ErrInvalidProportions.F("split: part %q has fraction %v, want within [0, 1]", p.Name, p.Fraction)
		}
		seen[p.Name] = struct{}{}
		sum += p.Fraction
	}
	if math.Abs(sum-1) > proportionTolerance {
		return ErrInvalidProportions.F("split: proportions sum to %v, want 1", sum)
	}
	return nil
}

// runSizes turns the declared proportions into run lengths that sum to exactly n.
// Every part but the last gets round(fraction*n), the last gets the remainder.
func runSizes(parts []Part, n int) []int {
	sizes := make([]int, len(parts))
	var total int
	for i, p := range parts[:len(parts)-1] {
		size := int(math.Round(p.Fraction * float64(n)))
		if remaining := n - total; size > remaining {
			size = remaining
		}
		sizes[i] = size
		total += size
	}
	sizes[len(parts)-1] = n - total
	return sizes
}

func emptyResult(parts []Part) Result {
	res := make(Result, len(parts))
	for _, p := range parts {
		res[p.Name] = dataset.New(nil)
	}
	return res
}

func selectAll(ds *dataset.Dataset, parts []Part, indices map[string][]int) Result {
	res := make(Result, len(parts))
	for _, p := range parts {
		res[p.Name] = ds.Select(indices[p.Name])
	}
	return res
}
