package distance

import "errors"

var (
	// ErrIgnoredValue is returned by a constrained metric when the ignore
	// region voids the comparison. Callers skip the value rather than fail.
	ErrIgnoredValue = errors.New("ignored value")
	// ErrUnknownMetric is returned when no metric of the requested name is
	// registered for an attribute type.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrImproperMetric is returned for malformed metric configuration.
	ErrImproperMetric = errors.New("improper metric")
	// ErrUnsupportedMetric is returned when a metric of the wrong shape is
	// used, e.g. a value-only metric for a timeline comparison.
	ErrUnsupportedMetric = errors.New("unsupported metric")
	// ErrNotFound is returned for a lookup on a point or statistic with no
	// covering entry.
	ErrNotFound = errors.New("not found")
)
