package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point is the value of a point attribute.
type Point struct {
	X int
	Y int
}

var builtinLoaders = map[string]Loader{
	"number": loadNumber,
	"fvalue": loadFvalue,
	"dvalue": loadDvalue,
	"svalue": loadSvalue,
	"point":  loadPoint,
	"bvalue": loadEqualityOnly,
	"lvalue": loadEqualityOnly,
}

func mustAttr(fn any, name string, opts ...Option) Metric {
	m, err := NewAttrMetric(fn, name, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

var (
	numberDifference = mustAttr(DifferenceFunc(intDifference), "difference",
		WithExplanation("Normalized Difference"))
	numberRelative = mustAttr(DifferenceFunc(relativeDifference), "rho",
		WithKind(CandVTargs), WithExplanation("Relative Difference"))
	floatDifference = mustAttr(DifferenceFunc(floatDiff), "difference",
		WithExplanation("Normalized difference"))
	stringHamming = mustAttr(DifferenceFunc(hamming), "h",
		WithExplanation("Normalized Hamming distance"))
	stringEdit = mustAttr(DifferenceFunc(levenshtein), "l",
		WithExplanation("Normalized edit distance"))
	pointEuclidean = mustAttr(DifferenceFunc(pointNorm(2)), "euclidean",
		WithExplanation("Normalized Euclidean distance"))
	pointManhattan = mustAttr(DifferenceFunc(pointNorm(1)), "manhattan",
		WithExplanation("Normalized Manhattan distance"))
)

func loadNumber(b *Builder) error {
	b.Register(numberDifference)
	b.Register(numberRelative)
	b.Register(Equality())
	b.SetDefaultTolerance(0)
	return b.SetDefaultMetric("difference")
}

func loadFvalue(b *Builder) error {
	if err := b.UseSame("number"); err != nil {
		return err
	}
	b.Register(floatDifference)
	b.SetDefaultTolerance(0)
	return b.SetDefaultMetric("difference")
}

func loadDvalue(b *Builder) error {
	if err := b.UseSame("number"); err != nil {
		return err
	}
	b.SetDefaultTolerance(0)
	return b.SetDefaultMetric("difference")
}

func loadSvalue(b *Builder) error {
	b.Register(stringHamming)
	b.Register(stringEdit)
	b.Register(Equality())
	b.SetDefaultTolerance(0)
	return b.SetDefaultMetric("l")
}

func loadPoint(b *Builder) error {
	b.Register(pointEuclidean)
	b.Register(pointManhattan)
	b.Register(Equality())
	b.SetDefaultTolerance(0)
	return b.SetDefaultMetric("euclidean")
}

func loadEqualityOnly(b *Builder) error {
	b.Register(Equality())
	b.SetDefaultTolerance(0)
	return b.SetDefaultMetric("e")
}

// absent handles comparisons where at least one side has no value: two
// absent values match, one absent value is a full miss.
func absent(a, b any) (float64, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil || b == nil:
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrUnsupportedMetric, v)
}

func numbers(d Difference) (float64, float64, error) {
	t, err := toFloat(d.Alpha)
	if err != nil {
		return 0, 0, err
	}
	c, err := toFloat(d.Beta)
	if err != nil {
		return 0, 0, err
	}
	return t, c, nil
}

func intDifference(d Difference) (float64, error) {
	if v, ok := absent(d.Alpha, d.Beta); ok {
		return v, nil
	}
	t, c, err := numbers(d)
	if err != nil {
		return 0, err
	}
	return InfiniteToClosed(math.Abs(math.Trunc(t)-math.Trunc(c)), 1), nil
}

func floatDiff(d Difference) (float64, error) {
	if v, ok := absent(d.Alpha, d.Beta); ok {
		return v, nil
	}
	t, c, err := numbers(d)
	if err != nil {
		return 0, err
	}
	return InfiniteToClosed(math.Abs(t-c), 1), nil
}

func relativeDifference(d Difference) (float64, error) {
	if v, ok := absent(d.Alpha, d.Beta); ok {
		return v, nil
	}
	t, c, err := numbers(d)
	if err != nil {
		return 0, err
	}
	if t == 0 {
		if c == 0 {
			return 0, nil
		}
		return 1, nil
	}
	return math.Min(math.Abs((t-c)/t), 1), nil
}

func stringPair(d Difference) (string, string, error) {
	t, ok := d.Alpha.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: %T is not a string", ErrUnsupportedMetric, d.Alpha)
	}
	c, ok := d.Beta.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: %T is not a string", ErrUnsupportedMetric, d.Beta)
	}
	return t, c, nil
}

func hamming(d Difference) (float64, error) {
	if v, ok := absent(d.Alpha, d.Beta); ok {
		return v, nil
	}
	t, c, err := stringPair(d)
	if err != nil {
		return 0, err
	}
	rt, rc := []rune(t), []rune(c)
	if len(rt) != len(rc) {
		return 1, nil
	}
	if len(rt) == 0 {
		return 0, nil
	}
	diff := 0
	for i := range rt {
		if rt[i] != rc[i] {
			diff++
		}
	}
	return float64(diff) / float64(len(rt)), nil
}

func levenshtein(d Difference) (float64, error) {
	var edits int
	switch {
	case d.Alpha == nil && d.Beta == nil:
		return 0, nil
	case d.Alpha == nil:
		c, ok := d.Beta.(string)
		if !ok {
			return 0, fmt.Errorf("%w: %T is not a string", ErrUnsupportedMetric, d.Beta)
		}
		edits = len([]rune(c))
	case d.Beta == nil:
		t, ok := d.Alpha.(string)
		if !ok {
			return 0, fmt.Errorf("%w: %T is not a string", ErrUnsupportedMetric, d.Alpha)
		}
		edits = len([]rune(t))
	default:
		t, c, err := stringPair(d)
		if err != nil {
			return 0, err
		}
		edits = editDistance([]rune(t), []rune(c))
	}
	return InfiniteToClosed(float64(edits), 1), nil
}

func editDistance(t, c []rune) int {
	prev := make([]int, len(t)+1)
	cur := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(c); i++ {
		cur[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if c[i-1] == t[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(t)]
}

func pointNorm(l float64) DifferenceFunc {
	return func(d Difference) (float64, error) {
		if v, ok := absent(d.Alpha, d.Beta); ok {
			return v, nil
		}
		t, ok := d.Alpha.(Point)
		if !ok {
			return 0, fmt.Errorf("%w: %T is not a point", ErrUnsupportedMetric, d.Alpha)
		}
		c, ok := d.Beta.(Point)
		if !ok {
			return 0, fmt.Errorf("%w: %T is not a point", ErrUnsupportedMetric, d.Beta)
		}
		dist := floats.Distance(
			[]float64{float64(t.X), float64(t.Y)},
			[]float64{float64(c.X), float64(c.Y)},
			l,
		)
		return InfiniteToClosed(dist, 1), nil
	}
}
