package distance

import "fmt"

// FileInfo identifies the source media of a comparison. It is passed through
// to leaf metrics untouched.
type FileInfo interface{}

// Difference carries everything a metric needs for one comparison. A nil
// value means "no measurement", not an empty measurement.
type Difference struct {
	Alpha    any
	Beta     any
	Blackout any
	Ignore   any
	FileInfo FileInfo
}

// ValueFunc compares a target and candidate value.
type ValueFunc func(alpha, beta any, fi FileInfo) float64

// ConstrainedFunc compares values with blackout and ignore constraints; it
// may return ErrIgnoredValue.
type ConstrainedFunc func(alpha, beta, blackout, ignore any, fi FileInfo) (float64, error)

// DifferenceFunc is the general metric shape the others are adapted to.
type DifferenceFunc func(d Difference) (float64, error)

// FromValue adapts a ValueFunc; blackout and ignore are dropped.
func FromValue(fn ValueFunc) DifferenceFunc {
	return func(d Difference) (float64, error) {
		return fn(d.Alpha, d.Beta, d.FileInfo), nil
	}
}

// FromConstrained adapts a ConstrainedFunc.
func FromConstrained(fn ConstrainedFunc) DifferenceFunc {
	return func(d Difference) (float64, error) {
		return fn(d.Alpha, d.Beta, d.Blackout, d.Ignore, d.FileInfo)
	}
}

type Metric interface {
	// Name is the canonical short name the metric is registered under.
	Name() string
	Explanation() string
	Kind() Kind
	// IsDistance is true when smaller values are better, false for scores.
	IsDistance() bool
	Distance(d Difference) (float64, error)
	// SupportsTimeline reports whether the metric can be driven over two
	// timelines (attribute-level), as opposed to single measurable values.
	SupportsTimeline() bool
	Equal(other Metric) bool
	String() string
}

type Option func(*metric)

func WithKind(k Kind) Option {
	return func(m *metric) { m.kind = k }
}

func WithExplanation(s string) Option {
	return func(m *metric) { m.explanation = s }
}

// AsScore marks the metric as bigger-is-better.
func AsScore() Option {
	return func(m *metric) { m.isDistance = false }
}

// impl gives the wrapped function an identity, since funcs are not
// comparable.
type impl struct {
	fn DifferenceFunc
}

type metric struct {
	impl        *impl
	name        string
	explanation string
	kind        Kind
	isDistance  bool
	timeline    bool
}

func newMetric(fn DifferenceFunc, name string, timeline bool, opts ...Option) Metric {
	m := &metric{
		impl:        &impl{fn: fn},
		name:        name,
		explanation: name,
		kind:        Balanced,
		isDistance:  true,
		timeline:    timeline,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewAttrMetric returns a timeline-capable metric. fn must be a ValueFunc,
// ConstrainedFunc or DifferenceFunc.
func NewAttrMetric(fn any, name string, opts ...Option) (Metric, error) {
	d, err := adapt(fn)
	if err != nil {
		return nil, err
	}
	return newMetric(d, name, true, opts...), nil
}

// NewValueMetric returns a metric usable only on single values.
func NewValueMetric(fn any, name string, opts ...Option) (Metric, error) {
	d, err := adapt(fn)
	if err != nil {
		return nil, err
	}
	return newMetric(d, name, false, opts...), nil
}

func adapt(fn any) (DifferenceFunc, error) {
	switch f := fn.(type) {
	case ValueFunc:
		return FromValue(f), nil
	case func(alpha, beta any, fi FileInfo) float64:
		return FromValue(f), nil
	case ConstrainedFunc:
		return FromConstrained(f), nil
	case func(alpha, beta, blackout, ignore any, fi FileInfo) (float64, error):
		return FromConstrained(f), nil
	case DifferenceFunc:
		return f, nil
	case func(d Difference) (float64, error):
		return f, nil
	}
	return nil, fmt.Errorf("%w: unsupported metric function %T", ErrUnsupportedMetric, fn)
}

func (r *metric) Name() string           { return r.name }
func (r *metric) Explanation() string    { return r.explanation }
func (r *metric) Kind() Kind             { return r.kind }
func (r *metric) IsDistance() bool       { return r.isDistance }
func (r *metric) SupportsTimeline() bool { return r.timeline }
func (r *metric) String() string         { return r.name }

func (r *metric) Distance(d Difference) (float64, error) {
	return r.impl.fn(d)
}

func (r *metric) Equal(other Metric) bool {
	o, ok := unwrap(other).(*metric)
	if !ok {
		return false
	}
	return r == o || (r.impl == o.impl && r.name == o.name)
}
