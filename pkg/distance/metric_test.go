package distance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapters(t *testing.T) {
	value := ValueFunc(func(alpha, beta any, fi FileInfo) float64 {
		if alpha == beta {
			return 0
		}
		return 1
	})
	constrained := ConstrainedFunc(func(alpha, beta, blackout, ignore any, fi FileInfo) (float64, error) {
		if ignore != nil {
			return 0, ErrIgnoredValue
		}
		if blackout != nil {
			return 1, nil
		}
		return 0.5, nil
	})
	diff := DifferenceFunc(func(d Difference) (float64, error) {
		return float64(d.FileInfo.(int)), nil
	})

	cases := map[string]struct {
		fn          any
		d           Difference
		expected    float64
		expectedErr error
	}{
		"ValueEqual": {
			fn:       value,
			d:        Difference{Alpha: "a", Beta: "a", Blackout: "x"},
			expected: 0,
		},
		"ValueDiffers": {
			fn:       value,
			d:        Difference{Alpha: "a", Beta: "b"},
			expected: 1,
		},
		"ConstrainedBlackout": {
			fn:       constrained,
			d:        Difference{Alpha: "a", Beta: "a", Blackout: true},
			expected: 1,
		},
		"ConstrainedIgnore": {
			fn:          constrained,
			d:           Difference{Alpha: "a", Beta: "a", Ignore: true},
			expectedErr: ErrIgnoredValue,
		},
		"ConstrainedPlain": {
			fn:       constrained,
			d:        Difference{Alpha: "a", Beta: "b"},
			expected: 0.5,
		},
		"DifferenceFileInfo": {
			fn:       diff,
			d:        Difference{FileInfo: 7},
			expected: 7,
		},
		"UnnamedFunc": {
			fn: func(alpha, beta any, fi FileInfo) float64 {
				return 3
			},
			expected: 3,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := NewAttrMetric(tc.fn, "test")
			require.NoError(t, err)
			v, err := m.Distance(tc.d)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestNewMetricUnsupported(t *testing.T) {
	_, err := NewAttrMetric(func(a int) int { return a }, "bad")
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}

func TestMetricProperties(t *testing.T) {
	fn := DifferenceFunc(func(d Difference) (float64, error) { return 0, nil })
	m, err := NewAttrMetric(fn, "iou", WithKind(OverallMean), WithExplanation("Intersection over union"), AsScore())
	require.NoError(t, err)

	assert.Equal(t, "iou", m.Name())
	assert.Equal(t, "iou", m.String())
	assert.Equal(t, "Intersection over union", m.Explanation())
	assert.Equal(t, OverallMean, m.Kind())
	assert.False(t, m.IsDistance())
	assert.True(t, m.SupportsTimeline())

	v, err := NewValueMetric(fn, "iou")
	require.NoError(t, err)
	assert.False(t, v.SupportsTimeline())
	assert.True(t, v.IsDistance())
}

func TestMetricEqual(t *testing.T) {
	fn := DifferenceFunc(func(d Difference) (float64, error) { return 0, nil })
	a, _ := NewAttrMetric(fn, "a")
	other, _ := NewAttrMetric(fn, "a")

	assert.True(t, a.Equal(a))
	// distinct construction means a distinct function object
	assert.False(t, a.Equal(other))
	assert.False(t, a.Equal(Equality()))
	assert.True(t, Equality().Equal(Equality()))
}

func TestEquality(t *testing.T) {
	cases := map[string]struct {
		d        Difference
		expected float64
	}{
		"BothAbsent":        {d: Difference{}, expected: 0},
		"TargetAbsent":      {d: Difference{Beta: "a"}, expected: 1},
		"CandidateAbsent":   {d: Difference{Alpha: "a"}, expected: 1},
		"Equal":             {d: Difference{Alpha: "a", Beta: "a"}, expected: 0},
		"NotEqual":          {d: Difference{Alpha: "a", Beta: "b"}, expected: 1},
		"EqualSlices":       {d: Difference{Alpha: []int{1, 2}, Beta: []int{1, 2}}, expected: 0},
		"DifferentSlices":   {d: Difference{Alpha: []int{1, 2}, Beta: []int{2, 1}}, expected: 1},
		"EqualArrays":       {d: Difference{Alpha: [2]float64{1, 2}, Beta: [2]float64{1, 2}}, expected: 0},
		"EqualBools":        {d: Difference{Alpha: []bool{true}, Beta: []bool{true}}, expected: 0},
		"EqualPoints":       {d: Difference{Alpha: Point{1, 2}, Beta: Point{1, 2}}, expected: 0},
		"BlackoutEqual":     {d: Difference{Alpha: "a", Beta: "a", Blackout: "dark"}, expected: 1},
		"BlackoutBothEmpty": {d: Difference{Blackout: "dark"}, expected: 1},
		"MixedTypes":        {d: Difference{Alpha: 1, Beta: int64(1)}, expected: 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := Equality().Distance(tc.d)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
	assert.Equal(t, "e", Equality().String())
	assert.Equal(t, Balanced, Equality().Kind())
}

func TestRangeMap(t *testing.T) {
	for _, d := range []float64{0, 0.5, 1, 10, 100} {
		c := InfiniteToClosed(d, 1)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.Less(t, c, 1.0)
		assert.InDelta(t, d, ClosedToInfinite(c, 1), 1e-9)
	}
	assert.True(t, math.IsInf(ClosedToInfinite(1, 1), 1))
}

func TestParseStatistic(t *testing.T) {
	cases := map[string]struct {
		s           string
		expected    Statistic
		expectedErr bool
	}{
		"Mean":    {s: "mean", expected: Mean},
		"Minimum": {s: "Minimum", expected: Minimum},
		"Median":  {s: "MEDIAN", expected: Median},
		"Maximum": {s: "maximum", expected: Maximum},
		"Short":   {s: "max", expected: Maximum},
		"Bad":     {s: "mode", expectedErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := ParseStatistic(tc.s)
			if tc.expectedErr {
				assert.ErrorIs(t, err, ErrImproperMetric)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, s)
		})
	}
}
