package aligner

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/rltable"
	"github.com/henderiw/attreval/pkg/span"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(start, end int64) span.Interval { return span.Interval{Start: start, End: end} }

func exact(v float64) bool { return v <= 0 }

func intervals(segs []Segment) []span.Interval {
	out := make([]span.Interval, 0, len(segs))
	for _, s := range segs {
		out = append(out, s.Interval)
	}
	return out
}

func scenario(t *testing.T) (Source, Source) {
	target, err := rltable.NewTable[any](distance.Equal, rltable.Entries[any]{
		rltable.NewEntry[any](iv(0, 10), "A"),
		rltable.NewEntry[any](iv(10, 20), "B"),
	})
	require.NoError(t, err)
	candidate, err := rltable.NewTable[any](distance.Equal, rltable.Entries[any]{
		rltable.NewEntry[any](iv(0, 15), "A"),
		rltable.NewEntry[any](iv(15, 20), "B"),
	})
	require.NoError(t, err)
	return FromTable(target), FromTable(candidate)
}

func TestAlign(t *testing.T) {
	cases := map[string]struct {
		target        Source
		targetSpan    span.Interval
		candidate     Source
		candidateSpan span.Interval
		segments      []span.Interval
		distances     []float64
		matched       string
	}{
		"Coverage": {
			target:        Static("x"),
			targetSpan:    iv(0, 10),
			candidate:     Static("x"),
			candidateSpan: iv(5, 15),
			segments:      []span.Interval{iv(5, 10)},
			distances:     []float64{0},
			matched:       "5-10",
		},
		"Disjoint": {
			target:        Static("x"),
			targetSpan:    iv(0, 10),
			candidate:     Static("x"),
			candidateSpan: iv(10, 15),
			segments:      []span.Interval{},
			distances:     []float64{},
			matched:       "",
		},
		"Staggered": {
			target:        Spans(ValueSpan{iv(2, 4), "a"}, ValueSpan{iv(6, 8), "b"}),
			targetSpan:    iv(0, 10),
			candidate:     Spans(ValueSpan{iv(3, 7), "a"}),
			candidateSpan: iv(0, 10),
			segments: []span.Interval{
				iv(0, 2), iv(2, 3), iv(3, 4), iv(4, 6), iv(6, 7), iv(7, 8), iv(8, 10),
			},
			distances: []float64{0, 1, 0, 1, 1, 1, 0},
			matched:   "0-2,3-4,8-10",
		},
		"ClippedToIntersection": {
			target:        Spans(ValueSpan{iv(-5, 3), "a"}, ValueSpan{iv(3, 30), "b"}),
			targetSpan:    iv(0, 10),
			candidate:     Spans(ValueSpan{iv(0, 100), "b"}),
			candidateSpan: iv(2, 50),
			segments:      []span.Interval{iv(2, 3), iv(3, 10)},
			distances:     []float64{1, 0},
			matched:       "3-10",
		},
		"NilCandidate": {
			target:        Static("x"),
			targetSpan:    iv(0, 4),
			candidate:     nil,
			candidateSpan: iv(0, 4),
			segments:      []span.Interval{iv(0, 4)},
			distances:     []float64{1},
			matched:       "",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Align(tc.target, tc.targetSpan, tc.candidate, tc.candidateSpan, distance.Equality(), exact, nil)
			require.NoError(t, err)

			got := intervals(res.Segments)
			if diff := cmp.Diff(tc.segments, got); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			distances := []float64{}
			for _, s := range res.Segments {
				distances = append(distances, s.Distance)
			}
			if diff := cmp.Diff(tc.distances, distances); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			assert.Equal(t, tc.matched, res.Matched.String())

			// segments tile the intersection
			var covered int64
			for _, s := range res.Segments {
				covered += s.Len()
			}
			want, ok := tc.targetSpan.Intersect(tc.candidateSpan)
			if ok {
				assert.Equal(t, want.Len(), covered)
				assert.Equal(t, want.Len(), res.Distances.Len())
			} else {
				assert.Zero(t, covered)
			}
		})
	}
}

func TestAlignScenario(t *testing.T) {
	target, candidate := scenario(t)
	res, err := Align(target, iv(0, 20), candidate, iv(0, 20), distance.Equality(), exact, nil)
	require.NoError(t, err)

	assert.Equal(t, []span.Interval{iv(0, 10), iv(10, 15), iv(15, 20)}, intervals(res.Segments))
	assert.Equal(t, "0-10,15-20", res.Matched.String())
	mean, err := res.Distances.Mean()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, mean, 1e-12)
	assert.Empty(t, res.Ignored)
}

type recorder struct {
	comparisons int
	passed      []span.Interval
	failed      []span.Interval
	ignored     []span.Interval
}

func (r *recorder) ObserveComparison(string) { r.comparisons++ }

func (r *recorder) ObserveSegment(_ string, iv span.Interval, _ float64, passed bool) {
	if passed {
		r.passed = append(r.passed, iv)
		return
	}
	r.failed = append(r.failed, iv)
}

func (r *recorder) ObserveIgnored(_ string, iv span.Interval) { r.ignored = append(r.ignored, iv) }

func TestAlignIgnored(t *testing.T) {
	metric, err := distance.NewAttrMetric(distance.ConstrainedFunc(
		func(alpha, beta, blackout, ignore any, fi distance.FileInfo) (float64, error) {
			if ignore != nil {
				return 0, distance.ErrIgnoredValue
			}
			if distance.Equal(alpha, beta) {
				return 0, nil
			}
			return 1, nil
		}), "ignoring")
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	obs := &recorder{}

	target, candidate := scenario(t)
	res, err := Align(target, iv(0, 20), candidate, iv(0, 20), metric, exact, nil,
		WithIgnore(Spans(ValueSpan{iv(10, 15), true})),
		WithObserver(obs),
		WithLogger(logger),
	)
	require.NoError(t, err)

	assert.Equal(t, []span.Interval{iv(10, 15)}, res.Ignored)
	assert.Equal(t, "0-20", res.Matched.String())
	assert.Equal(t, int64(15), res.Distances.Len())
	_, err = res.Distances.Get(12)
	assert.ErrorIs(t, err, distance.ErrNotFound)
	mean, err := res.Distances.Mean()
	require.NoError(t, err)
	assert.Equal(t, 0.0, mean)

	assert.Equal(t, 1, obs.comparisons)
	assert.Equal(t, []span.Interval{iv(10, 15)}, obs.ignored)
	assert.Equal(t, []span.Interval{iv(0, 10), iv(15, 20)}, obs.passed)
	assert.Empty(t, obs.failed)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, "10-15", hook.LastEntry().Data["interval"])
}

func TestAlignBlackout(t *testing.T) {
	target, candidate := scenario(t)
	res, err := Align(target, iv(0, 20), candidate, iv(0, 20), distance.Equality(), exact, nil,
		WithBlackout(Spans(ValueSpan{iv(2, 4), "dark"})),
	)
	require.NoError(t, err)

	assert.Equal(t, []span.Interval{iv(0, 2), iv(2, 4), iv(4, 10), iv(10, 15), iv(15, 20)}, intervals(res.Segments))
	assert.Equal(t, "0-2,4-10,15-20", res.Matched.String())
}

func TestAlignFileInfo(t *testing.T) {
	var seen []distance.FileInfo
	metric, err := distance.NewAttrMetric(distance.DifferenceFunc(func(d distance.Difference) (float64, error) {
		seen = append(seen, d.FileInfo)
		return 0, nil
	}), "fi")
	require.NoError(t, err)

	_, err = Align(Static(1), iv(0, 5), Static(1), iv(0, 5), metric, nil, "640x480")
	require.NoError(t, err)
	assert.Equal(t, []distance.FileInfo{"640x480"}, seen)
}

func TestAlignErrors(t *testing.T) {
	boom := errors.New("boom")
	failing, err := distance.NewAttrMetric(distance.DifferenceFunc(func(d distance.Difference) (float64, error) {
		return 0, boom
	}), "failing")
	require.NoError(t, err)

	cases := map[string]struct {
		target      Source
		metric      distance.Metric
		expectedErr error
	}{
		"MetricError": {
			target:      Static("x"),
			metric:      failing,
			expectedErr: boom,
		},
		"NoMetric": {
			target:      Static("x"),
			metric:      nil,
			expectedErr: distance.ErrUnsupportedMetric,
		},
		"Unordered": {
			target:      Spans(ValueSpan{iv(5, 8), "a"}, ValueSpan{iv(2, 6), "b"}),
			metric:      distance.Equality(),
			expectedErr: span.ErrInvalidInterval,
		},
		"Invalid": {
			target:      Spans(ValueSpan{iv(5, 5), "a"}),
			metric:      distance.Equality(),
			expectedErr: span.ErrInvalidInterval,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Align(tc.target, iv(0, 10), Static("x"), iv(0, 10), tc.metric, exact, nil)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestAlignErrorOrder(t *testing.T) {
	unordered := func() Source {
		return Spans(ValueSpan{iv(5, 8), "a"}, ValueSpan{iv(2, 6), "b"})
	}
	for i := 0; i < 20; i++ {
		_, err := Align(unordered(), iv(0, 10), unordered(), iv(0, 10), distance.Equality(), exact, nil,
			WithIgnore(unordered()))
		require.ErrorIs(t, err, span.ErrInvalidInterval)
		assert.True(t, strings.HasPrefix(err.Error(), "target value 2-6"), err.Error())
	}
}
