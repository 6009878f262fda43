package measure

import (
	"fmt"
	"math"
	"strconv"

	"github.com/henderiw/attreval/pkg/aligner"
	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/holder"
	"github.com/henderiw/attreval/pkg/span"
)

// Infinite is the tolerance from which a measure is rendered as unbounded.
const Infinite = math.MaxInt32

// Measure binds a metric to the tolerance a single frame must meet and to
// the statistic the whole comparison must meet. A Measure keeps the
// distances of its last comparison and is not safe for concurrent use; use
// Clone to give every worker its own copy.
type Measure struct {
	metric        distance.Metric
	tolerance     float64
	statistic     distance.Statistic
	statTolerance float64

	last *holder.Holder
}

type Stats struct {
	Mean    float64
	Minimum float64
	Median  float64
	Maximum float64
}

// New returns a measure with the statistic defaults of the default registry.
func New(metric distance.Metric, tolerance float64) *Measure {
	return newMeasure(distance.Default(), metric, tolerance)
}

func newMeasure(reg *distance.Registry, metric distance.Metric, tolerance float64) *Measure {
	return &Measure{
		metric:        metric,
		tolerance:     tolerance,
		statistic:     reg.DefaultStatistic(),
		statTolerance: reg.DefaultStatTolerance(),
	}
}

// NewDefault returns the registered default measure of the attribute type.
func NewDefault(reg *distance.Registry, attrType string) (*Measure, error) {
	m, err := reg.DefaultMeasureMetric(attrType)
	if err != nil {
		return nil, fmt.Errorf("default metric for %s: %w", attrType, err)
	}
	return newMeasure(reg, m, defaultTolerance(reg, attrType)), nil
}

func defaultTolerance(reg *distance.Registry, attrType string) float64 {
	tol := reg.DefaultTolerance(attrType)
	if math.IsNaN(tol) {
		return 0
	}
	return tol
}

// IsValidTolerance reports whether v is a finite, non-negative number.
func IsValidTolerance(v float64) bool {
	return v >= 0 && v <= math.MaxFloat64
}

func (r *Measure) Metric() distance.Metric { return r.metric }

func (r *Measure) SetMetric(m distance.Metric) error {
	if m == nil {
		return fmt.Errorf("%w: nil metric", distance.ErrImproperMetric)
	}
	r.metric = m
	return nil
}

func (r *Measure) Tolerance() float64 { return r.tolerance }

func (r *Measure) SetTolerance(tol float64) error {
	if !IsValidTolerance(tol) {
		return fmt.Errorf("%w: invalid tolerance %v", distance.ErrImproperMetric, tol)
	}
	r.tolerance = tol
	return nil
}

func (r *Measure) Statistic() distance.Statistic { return r.statistic }

func (r *Measure) SetStatistic(s distance.Statistic) { r.statistic = s }

func (r *Measure) StatTolerance() float64 { return r.statTolerance }

func (r *Measure) SetStatTolerance(tol float64) error {
	if !IsValidTolerance(tol) {
		return fmt.Errorf("%w: invalid statistic tolerance %v", distance.ErrImproperMetric, tol)
	}
	r.statTolerance = tol
	return nil
}

// Threshold reports whether v is good enough to count as localized. For
// distances a tolerance of exactly 1 only accepts values below 1. A measure
// without a metric accepts nothing.
func (r *Measure) Threshold(v float64) bool {
	return r.thresh(r.tolerance, v)
}

func (r *Measure) thresh(tol, v float64) bool {
	if r.metric == nil {
		return false
	}
	if !r.metric.IsDistance() {
		return tol <= v
	}
	if tol == 1.0 {
		return v < 1.0
	}
	return v <= tol
}

// DistanceAgainst scores a single difference.
func (r *Measure) DistanceAgainst(d distance.Difference) (float64, error) {
	if r.metric == nil {
		return 0, fmt.Errorf("%w: nil metric", distance.ErrImproperMetric)
	}
	return r.metric.Distance(d)
}

// Compare aligns the target and the candidate using the measure's metric
// and threshold, and keeps the resulting distances.
func (r *Measure) Compare(target aligner.Source, targetSpan span.Interval, candidate aligner.Source, candidateSpan span.Interval,
	fi distance.FileInfo, opts ...aligner.Option) (*aligner.Result, error) {
	if r.metric == nil || !r.metric.SupportsTimeline() {
		return nil, fmt.Errorf("%w: %v cannot compare timelines", distance.ErrUnsupportedMetric, r.metric)
	}
	res, err := aligner.Align(target, targetSpan, candidate, candidateSpan, r.metric, r.Threshold, fi, opts...)
	if err != nil {
		return nil, err
	}
	r.last = res.Distances
	return res, nil
}

// CompareTimelines returns the frames where the candidate localizes the
// target, together with the per-frame distances.
func (r *Measure) CompareTimelines(target aligner.Source, targetSpan span.Interval, candidate aligner.Source, candidateSpan span.Interval,
	fi distance.FileInfo, opts ...aligner.Option) (*span.Set, *holder.Holder, error) {
	res, err := r.Compare(target, targetSpan, candidate, candidateSpan, fi, opts...)
	if err != nil {
		return nil, nil, err
	}
	return res.Matched, res.Distances, nil
}

// DistanceAgainstTimelines compares the timelines and returns the mean
// distance.
func (r *Measure) DistanceAgainstTimelines(target aligner.Source, targetSpan span.Interval, candidate aligner.Source, candidateSpan span.Interval,
	fi distance.FileInfo, opts ...aligner.Option) (float64, error) {
	if _, _, err := r.CompareTimelines(target, targetSpan, candidate, candidateSpan, fi, opts...); err != nil {
		return 0, err
	}
	return r.last.Mean()
}

// Distances returns the distances of the last comparison, or nil.
func (r *Measure) Distances() *holder.Holder { return r.last }

func (r *Measure) Statistics() (Stats, error) {
	if r.last == nil {
		return Stats{}, fmt.Errorf("%w: no comparison has been made", distance.ErrNotFound)
	}
	var s Stats
	for _, x := range []struct {
		stat distance.Statistic
		v    *float64
	}{
		{distance.Mean, &s.Mean},
		{distance.Minimum, &s.Minimum},
		{distance.Median, &s.Median},
		{distance.Maximum, &s.Maximum},
	} {
		v, err := r.last.Stat(x.stat)
		if err != nil {
			return Stats{}, err
		}
		*x.v = v
	}
	return s, nil
}

// PassesStatistic applies the statistic tolerance to the configured
// statistic of the last comparison.
func (r *Measure) PassesStatistic() (bool, error) {
	if r.last == nil {
		return false, fmt.Errorf("%w: no comparison has been made", distance.ErrNotFound)
	}
	v, err := r.last.Stat(r.statistic)
	if err != nil {
		return false, err
	}
	return r.thresh(r.statTolerance, v), nil
}

// IsValidFor reports whether the measure's metric is registered for the
// attribute type and its tolerance is usable.
func (r *Measure) IsValidFor(reg *distance.Registry, attrType string) bool {
	if r.metric == nil || !IsValidTolerance(r.tolerance) {
		return false
	}
	ok, err := reg.Has(attrType, r.metric.Name())
	return err == nil && ok
}

// Clone returns a copy of the configuration without comparison state.
func (r *Measure) Clone() *Measure {
	return &Measure{
		metric:        r.metric,
		tolerance:     r.tolerance,
		statistic:     r.statistic,
		statTolerance: r.statTolerance,
	}
}

func (r *Measure) Equal(other *Measure) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	sameMetric := r.metric == other.metric || (r.metric != nil && r.metric.Equal(other.metric))
	return sameMetric &&
		r.tolerance == other.tolerance &&
		r.statistic == other.statistic &&
		r.statTolerance == other.statTolerance
}

func (r *Measure) String() string {
	if r.tolerance >= Infinite {
		return fmt.Sprintf("%v (INFINITY)", r.metric)
	}
	return fmt.Sprintf("%v %s", r.metric, formatFloat(r.tolerance))
}

// Format renders the measure in the bracket form accepted by Parse.
func (r *Measure) Format() string {
	return fmt.Sprintf("[ %v %s ]", r.metric, formatFloat(r.tolerance))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
