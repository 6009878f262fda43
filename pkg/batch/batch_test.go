package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/henderiw/attreval/pkg/aligner"
	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/measure"
	"github.com/henderiw/attreval/pkg/metrics"
	"github.com/henderiw/attreval/pkg/span"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"
)

func iv(start, end int64) span.Interval { return span.Interval{Start: start, End: end} }

func scenarioPair(name string, l labels.Set) Pair {
	return Pair{
		Name:   name,
		Labels: l,
		Target: aligner.Spans(
			aligner.ValueSpan{Interval: iv(0, 10), Value: "A"},
			aligner.ValueSpan{Interval: iv(10, 20), Value: "B"},
		),
		TargetSpan: iv(0, 20),
		Candidate: aligner.Spans(
			aligner.ValueSpan{Interval: iv(0, 15), Value: "A"},
			aligner.ValueSpan{Interval: iv(15, 20), Value: "B"},
		),
		CandidateSpan: iv(0, 20),
	}
}

func exactPair(name string, l labels.Set) Pair {
	return Pair{
		Name:          name,
		Labels:        l,
		Target:        aligner.Static("x"),
		TargetSpan:    iv(0, 8),
		Candidate:     aligner.Static("x"),
		CandidateSpan: iv(4, 12),
	}
}

func TestEvaluate(t *testing.T) {
	var pairs []Pair
	for i := 0; i < 20; i++ {
		l := labels.Set{"kind": "scenario", "idx": fmt.Sprint(i)}
		if i%2 == 0 {
			pairs = append(pairs, scenarioPair(fmt.Sprintf("scenario-%d", i), l))
			continue
		}
		l["kind"] = "exact"
		pairs = append(pairs, exactPair(fmt.Sprintf("exact-%d", i), l))
	}

	reg := prometheus.NewRegistry()
	obs, err := metrics.NewObserver(reg)
	require.NoError(t, err)

	m := measure.New(distance.Equality(), 0)
	report, err := Evaluate(context.Background(), m, pairs, Options{Workers: 4, Observer: obs})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, report.RunID)
	require.Len(t, report.Results, 20)
	// the shared measure is never used directly
	assert.Nil(t, m.Distances())

	for i, res := range report.Results {
		assert.Equal(t, pairs[i].Name, res.Name)
		assert.True(t, res.HasStats)
		if i%2 == 0 {
			assert.Equal(t, "0-10,15-20", res.Matched.String())
			assert.Equal(t, 0.25, res.Stats.Mean)
			assert.False(t, res.Passed)
			continue
		}
		assert.Equal(t, "4-8", res.Matched.String())
		assert.True(t, res.Passed)
	}

	sel, err := Selector(map[string]string{"kind": "exact"})
	require.NoError(t, err)
	assert.Len(t, report.Filter(sel), 10)
	assert.Len(t, report.Filter(labels.Everything()), 20)
	assert.Len(t, report.Passed(), 10)

	assert.Equal(t, Summary{Pairs: 20, Passed: 10, MatchedFrames: 10*15 + 10*4, ScoredFrames: 10*20 + 10*4}, report.Summary())
	expected := `
# HELP attreval_comparisons_total Total number of timeline comparisons
# TYPE attreval_comparisons_total counter
attreval_comparisons_total{metric="e"} 20
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "attreval_comparisons_total"))
}

func TestEvaluatePairMeasure(t *testing.T) {
	lenient := measure.New(distance.Equality(), 0)
	require.NoError(t, lenient.SetStatTolerance(0.5))

	p := scenarioPair("lenient", nil)
	p.Measure = lenient
	report, err := Evaluate(context.Background(), measure.New(distance.Equality(), 0),
		[]Pair{scenarioPair("strict", nil), p}, Options{})
	require.NoError(t, err)

	assert.False(t, report.Results[0].Passed)
	assert.True(t, report.Results[1].Passed)
	assert.Equal(t, "e 0", report.Results[1].Measure)
}

func TestEvaluateNoOverlap(t *testing.T) {
	p := exactPair("disjoint", nil)
	p.CandidateSpan = iv(8, 12)
	report, err := Evaluate(context.Background(), measure.New(distance.Equality(), 0), []Pair{p}, Options{})
	require.NoError(t, err)

	res := report.Results[0]
	assert.False(t, res.HasStats)
	assert.False(t, res.Passed)
	assert.True(t, res.Matched.IsEmpty())
}

func TestEvaluateIgnored(t *testing.T) {
	p := scenarioPair("ignored", nil)
	p.Ignore = aligner.Spans(aligner.ValueSpan{Interval: iv(10, 15), Value: true})
	m := measure.New(distance.SkipIgnored(distance.Equality()), 0)
	report, err := Evaluate(context.Background(), m, []Pair{p}, Options{})
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, "0-20", res.Matched.String())
	assert.Equal(t, []span.Interval{iv(10, 15)}, res.Ignored)
	assert.Equal(t, int64(15), res.Distances.Len())
	assert.True(t, res.Passed)
	assert.Equal(t, Summary{Pairs: 1, Passed: 1, MatchedFrames: 15, ScoredFrames: 15}, report.Summary())
	// Summary leaves the result untouched
	assert.Equal(t, "0-20", res.Matched.String())
}

func TestEvaluateErrors(t *testing.T) {
	boom := errors.New("boom")
	failing, err := distance.NewAttrMetric(distance.DifferenceFunc(func(d distance.Difference) (float64, error) {
		return 0, boom
	}), "failing")
	require.NoError(t, err)
	valueOnly, err := distance.NewValueMetric(distance.ValueFunc(func(alpha, beta any, fi distance.FileInfo) float64 {
		return 0
	}), "value")
	require.NoError(t, err)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := map[string]struct {
		ctx         context.Context
		m           *measure.Measure
		expectedErr error
	}{
		"MetricError": {
			ctx:         context.Background(),
			m:           measure.New(failing, 0),
			expectedErr: boom,
		},
		"Unsupported": {
			ctx:         context.Background(),
			m:           measure.New(valueOnly, 0),
			expectedErr: distance.ErrUnsupportedMetric,
		},
		"NoMeasure": {
			ctx:         context.Background(),
			m:           nil,
			expectedErr: distance.ErrImproperMetric,
		},
		"Cancelled": {
			ctx:         cancelled,
			m:           measure.New(distance.Equality(), 0),
			expectedErr: context.Canceled,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(tc.ctx, tc.m, []Pair{exactPair("a", nil), exactPair("b", nil)}, Options{Workers: 1})
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
