package distance

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// deepEqual compares slices and arrays element-wise and structs field by
// field, unexported fields included.
var deepEqual = cmp.Exporter(func(reflect.Type) bool { return true })

type equality struct{}

var equalitySingleton = &equality{}

// Equality returns the shared equality metric: 0 when both values are
// absent or equal, 1 otherwise, and always 1 inside a blackout.
func Equality() Metric { return equalitySingleton }

func (r *equality) Name() string           { return "e" }
func (r *equality) Explanation() string    { return "Equality measure" }
func (r *equality) Kind() Kind             { return Balanced }
func (r *equality) IsDistance() bool       { return true }
func (r *equality) SupportsTimeline() bool { return true }
func (r *equality) String() string         { return "e" }

func (r *equality) Equal(other Metric) bool {
	_, ok := unwrap(other).(*equality)
	return ok
}

func (r *equality) Distance(d Difference) (float64, error) {
	if d.Blackout != nil {
		return 1, nil
	}
	if Equal(d.Alpha, d.Beta) {
		return 0, nil
	}
	return 1, nil
}

// Equal reports whether two attribute values are the same; two absent
// values are equal, an absent and a present value are not.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cmp.Equal(a, b, deepEqual)
}
