package holder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/rltable"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Holder keeps the per-interval distances of one comparison and summarises
// them. Statistics are computed on first read after a write and cached
// until the next write. A Holder is not safe for concurrent use.
type Holder struct {
	distances  rltable.Table[float64]
	cache      *summary
	recomputes int
}

type summary struct {
	mean    float64
	minimum float64
	maximum float64
	median  float64
	weight  int64
}

func New() *Holder {
	return &Holder{
		distances: rltable.NewComparable[float64](),
	}
}

func (r *Holder) Set(start, end int64, v float64) error {
	if err := r.distances.Set(start, end, v); err != nil {
		return err
	}
	r.cache = nil
	return nil
}

func (r *Holder) Get(point int64) (float64, error) {
	v, ok := r.distances.Get(point)
	if !ok {
		return 0, fmt.Errorf("%w: cannot access distance at time/frame %d", distance.ErrNotFound, point)
	}
	return v, nil
}

func (r *Holder) Stat(s distance.Statistic) (float64, error) {
	sum, err := r.refresh()
	if err != nil {
		return 0, err
	}
	switch s {
	case distance.Mean:
		return sum.mean, nil
	case distance.Minimum:
		return sum.minimum, nil
	case distance.Median:
		return sum.median, nil
	case distance.Maximum:
		return sum.maximum, nil
	}
	return 0, fmt.Errorf("%w: %s", distance.ErrNotFound, s)
}

func (r *Holder) Mean() (float64, error)    { return r.Stat(distance.Mean) }
func (r *Holder) Minimum() (float64, error) { return r.Stat(distance.Minimum) }
func (r *Holder) Median() (float64, error)  { return r.Stat(distance.Median) }
func (r *Holder) Maximum() (float64, error) { return r.Stat(distance.Maximum) }

// Len returns the total weight, i.e. the number of frames with a distance.
func (r *Holder) Len() int64 {
	var n int64
	iter := r.distances.Iterate()
	for iter.Next() {
		n += iter.Value().Interval().Len()
	}
	return n
}

func (r *Holder) IsEmpty() bool { return r.distances.Count() == 0 }

func (r *Holder) Iterate() *rltable.Iterator[float64] {
	return r.distances.Iterate()
}

// Recomputes returns how many times the statistics were derived from the
// stored distances.
func (r *Holder) Recomputes() int { return r.recomputes }

func (r *Holder) Clone() *Holder {
	c := &Holder{
		distances: r.distances.Clone(),
	}
	if r.cache != nil {
		sum := *r.cache
		c.cache = &sum
	}
	return c
}

// String lists the distance of every frame, separated by spaces.
func (r *Holder) String() string {
	var sb strings.Builder
	iter := r.distances.Iterate()
	for iter.Next() {
		e := iter.Value()
		v := strconv.FormatFloat(e.Data(), 'g', -1, 64)
		for i := e.Start(); i < e.End(); i++ {
			sb.WriteString(v)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func (r *Holder) refresh() (*summary, error) {
	if r.cache != nil {
		return r.cache, nil
	}
	if r.distances.Count() == 0 {
		return nil, fmt.Errorf("%w: no distances recorded", distance.ErrNotFound)
	}

	var values, weights []float64
	byValue := map[float64]int64{}
	var total int64
	iter := r.distances.Iterate()
	for iter.Next() {
		e := iter.Value()
		w := e.Interval().Len()
		values = append(values, e.Data())
		weights = append(weights, float64(w))
		byValue[e.Data()] += w
		total += w
	}

	r.cache = &summary{
		mean:    stat.Mean(values, weights),
		minimum: floats.Min(values),
		maximum: floats.Max(values),
		median:  weightedMedian(byValue, total),
		weight:  total,
	}
	r.recomputes++
	return r.cache, nil
}

// weightedMedian walks the distinct values in ascending order as if each
// value were repeated weight times; with an even total weight the two
// central elements are averaged.
func weightedMedian(byValue map[float64]int64, total int64) float64 {
	keys := make([]float64, 0, len(byValue))
	for v := range byValue {
		keys = append(keys, v)
	}
	sort.Float64s(keys)

	mid := total / 2
	even := total%2 == 0
	var median float64
	var seen int64
	for _, v := range keys {
		stop := seen + byValue[v]
		if even {
			switch {
			case seen < mid && mid < stop:
				return v
			case seen < mid:
				median = v * .5
			case mid < stop:
				return median + v*.5
			}
		} else if seen <= mid && mid < stop {
			return v
		}
		seen = stop
	}
	return median
}
