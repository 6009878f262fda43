package span

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInterval is returned for an interval whose start is not strictly
// before its end.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a half-open range [Start, End) of frames or time units.
type Interval struct {
	Start int64
	End   int64
}

func New(start, end int64) (Interval, error) {
	if start >= end {
		return Interval{}, fmt.Errorf("%w: start %d not strictly less than end %d", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// FromClosed converts an inclusive frame range [first, last] into the
// equivalent half-open interval.
func FromClosed(first, last int64) (Interval, error) {
	return New(first, last+1)
}

func Parse(s string) (Interval, error) {
	h := strings.IndexByte(s, '-')
	if h <= 0 {
		return Interval{}, fmt.Errorf("no hyphen in interval %q", s)
	}
	from, to := strings.TrimSpace(s[:h]), strings.TrimSpace(s[h+1:])
	start, err := strconv.ParseInt(from, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid start %q in interval %q", from, s)
	}
	end, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid end %q in interval %q", to, s)
	}
	return New(start, end)
}

func (r Interval) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r Interval) IsValid() bool { return r.Start < r.End }

// Len returns the number of points covered by r.
func (r Interval) Len() int64 {
	if !r.IsValid() {
		return 0
	}
	return r.End - r.Start
}

func (r Interval) Contains(point int64) bool {
	return r.Start <= point && point < r.End
}

func (r Interval) Less(other Interval) bool {
	if r.Start != other.Start {
		return r.Start < other.Start
	}
	return r.End < other.End
}

// Adjacent returns whether other starts exactly where r ends.
func (r Interval) Adjacent(other Interval) bool {
	return r.End == other.Start
}

// EntirelyBefore returns whether r ends at or before the start of other.
func (r Interval) EntirelyBefore(other Interval) bool {
	return r.End <= other.Start
}

// CoveredBy returns whether r is entirely contained within other.
func (r Interval) CoveredBy(other Interval) bool {
	return other.Start <= r.Start && r.End <= other.End
}

// InMiddleOf returns whether r is inside other, but not touching the
// edges of other.
func (r Interval) InMiddleOf(other Interval) bool {
	return other.Start < r.Start && r.End < other.End
}

// OverlapsStartOf returns whether r overlaps the start of other, but not
// all of other.
func (r Interval) OverlapsStartOf(other Interval) bool {
	return r.Start <= other.Start && other.Start < r.End && r.End < other.End
}

// OverlapsEndOf returns whether r overlaps the end of other, but not all
// of other.
func (r Interval) OverlapsEndOf(other Interval) bool {
	return other.Start < r.Start && r.Start < other.End && other.End <= r.End
}

func (r Interval) Overlaps(other Interval) bool {
	return r.Start < other.End && other.Start < r.End
}

// Intersect returns the common part of r and other; ok is false when they do
// not overlap.
func (r Interval) Intersect(other Interval) (Interval, bool) {
	iv := Interval{Start: max(r.Start, other.Start), End: min(r.End, other.End)}
	if !iv.IsValid() {
		return Interval{}, false
	}
	return iv, true
}
