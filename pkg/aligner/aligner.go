package aligner

import (
	"errors"
	"fmt"

	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/holder"
	"github.com/henderiw/attreval/pkg/span"
	log "github.com/sirupsen/logrus"
)

// ThresholdFunc reports whether a distance is good enough for the segment
// to stay in the matched span.
type ThresholdFunc func(v float64) bool

// Segment is one reconciled sub-interval of the comparison.
type Segment struct {
	span.Interval
	Alpha    any
	Beta     any
	Distance float64
	Passed   bool
}

type Result struct {
	Distances *holder.Holder
	// Matched is the part of the intersection where the candidate passes.
	Matched  *span.Set
	Segments []Segment
	// Ignored lists the sub-intervals the metric declined to score.
	Ignored []span.Interval
}

// Sources are consumed in this order, so the first malformed one is the
// one reported.
const (
	targetSource = iota
	candidateSource
	blackoutSource
	ignoreSource
	numSources
)

var sourceNames = [numSources]string{"target", "candidate", "blackout", "ignore"}

// Align sweeps the target and candidate over the intersection of their
// outer spans. Every point of the intersection lands in exactly one
// reconciled sub-interval; each sub-interval is scored with the metric and
// removed from the matched span when pass rejects it. A nil pass accepts
// every distance.
func Align(target Source, targetSpan span.Interval, candidate Source, candidateSpan span.Interval,
	metric distance.Metric, pass ThresholdFunc, fi distance.FileInfo, opts ...Option) (*Result, error) {
	o := &options{
		observer: nopObserver{},
		logger:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if metric == nil {
		return nil, fmt.Errorf("%w: no metric", distance.ErrUnsupportedMetric)
	}

	res := &Result{
		Distances: holder.New(),
		Matched:   span.NewSet(),
	}
	bound, ok := targetSpan.Intersect(candidateSpan)
	if !ok {
		return res, nil
	}
	res.Matched.Add(bound)

	name := metric.Name()
	var cursors [numSources]*cursor
	for i, src := range [numSources]Source{target, candidate, o.blackout, o.ignore} {
		cur, err := newCursor(sourceNames[i], src, bound)
		if err != nil {
			return nil, err
		}
		cursors[i] = cur
	}
	o.observer.ObserveComparison(name)

	var values [numSources]any
	for now := bound.Start; now < bound.End; {
		next := bound.End
		for i, c := range cursors {
			v, end := c.at(now)
			values[i] = v
			next = min(next, end)
		}
		iv := span.Interval{Start: now, End: next}

		d, err := metric.Distance(distance.Difference{
			Alpha:    values[targetSource],
			Beta:     values[candidateSource],
			Blackout: values[blackoutSource],
			Ignore:   values[ignoreSource],
			FileInfo: fi,
		})
		switch {
		case errors.Is(err, distance.ErrIgnoredValue):
			o.logger.WithFields(log.Fields{
				"metric":   name,
				"interval": iv.String(),
			}).Debug("ignored segment")
			res.Ignored = append(res.Ignored, iv)
			o.observer.ObserveIgnored(name, iv)
		case err != nil:
			return nil, fmt.Errorf("metric %s on %s: %w", name, iv, err)
		default:
			if err := res.Distances.Set(iv.Start, iv.End, d); err != nil {
				return nil, err
			}
			passed := pass == nil || pass(d)
			if !passed {
				res.Matched.Remove(iv)
			}
			res.Segments = append(res.Segments, Segment{
				Interval: iv,
				Alpha:    values[targetSource],
				Beta:     values[candidateSource],
				Distance: d,
				Passed:   passed,
			})
			o.observer.ObserveSegment(name, iv, d, passed)
		}

		for _, c := range cursors {
			if err := c.consume(next); err != nil {
				return nil, err
			}
		}
		now = next
	}
	return res, nil
}

// cursor holds the current span of one source, clipped to the bound.
type cursor struct {
	name  string
	iter  Iterator
	bound span.Interval
	cur   ValueSpan
	ok    bool
	seen  bool
	last  int64
}

func newCursor(name string, src Source, bound span.Interval) (*cursor, error) {
	c := &cursor{name: name, bound: bound}
	if src != nil {
		c.iter = src.Values(bound)
	}
	return c, c.advance()
}

func (r *cursor) advance() error {
	r.ok = false
	if r.iter == nil {
		return nil
	}
	for r.iter.Next() {
		vs := r.iter.Value()
		if !vs.IsValid() {
			return fmt.Errorf("%s value %s: %w", r.name, vs.Interval, span.ErrInvalidInterval)
		}
		if r.seen && vs.Start < r.last {
			return fmt.Errorf("%s value %s overlaps or precedes previous value ending at %d: %w",
				r.name, vs.Interval, r.last, span.ErrInvalidInterval)
		}
		r.seen, r.last = true, vs.End

		iv, ok := vs.Intersect(r.bound)
		if !ok {
			continue
		}
		r.cur = ValueSpan{Interval: iv, Value: vs.Value}
		r.ok = true
		return nil
	}
	return nil
}

// at returns the value at now and the point where that may change.
func (r *cursor) at(now int64) (any, int64) {
	switch {
	case !r.ok:
		return nil, r.bound.End
	case r.cur.Start > now:
		return nil, r.cur.Start
	}
	return r.cur.Value, r.cur.End
}

func (r *cursor) consume(upto int64) error {
	if r.ok && r.cur.End <= upto {
		return r.advance()
	}
	return nil
}
