package span

import (
	"sort"
	"strings"
)

// Set is an ordered collection of disjoint, non-adjacent intervals.
type Set struct {
	ivs []Interval
}

func NewSet(ivs ...Interval) *Set {
	s := &Set{}
	for _, iv := range ivs {
		s.Add(iv)
	}
	return s
}

// Add merges iv into the set. Invalid intervals are ignored.
func (r *Set) Add(iv Interval) {
	if !iv.IsValid() {
		return
	}
	// first member that ends at or after iv.Start can touch iv
	i := sort.Search(len(r.ivs), func(i int) bool { return r.ivs[i].End >= iv.Start })
	j := i
	for j < len(r.ivs) && r.ivs[j].Start <= iv.End {
		iv.Start = min(iv.Start, r.ivs[j].Start)
		iv.End = max(iv.End, r.ivs[j].End)
		j++
	}
	r.ivs = append(r.ivs[:i], append([]Interval{iv}, r.ivs[j:]...)...)
}

// Remove clears every point of iv from the set, splitting members that are
// only partially covered.
func (r *Set) Remove(iv Interval) {
	if !iv.IsValid() {
		return
	}
	out := make([]Interval, 0, len(r.ivs)+1)
	for _, m := range r.ivs {
		if !m.Overlaps(iv) {
			out = append(out, m)
			continue
		}
		if m.Start < iv.Start {
			out = append(out, Interval{Start: m.Start, End: iv.Start})
		}
		if iv.End < m.End {
			out = append(out, Interval{Start: iv.End, End: m.End})
		}
	}
	r.ivs = out
}

func (r *Set) Contains(point int64) bool {
	i := sort.Search(len(r.ivs), func(i int) bool { return r.ivs[i].End > point })
	return i < len(r.ivs) && r.ivs[i].Contains(point)
}

// Size returns the total number of points covered.
func (r *Set) Size() int64 {
	var n int64
	for _, iv := range r.ivs {
		n += iv.Len()
	}
	return n
}

func (r *Set) IsEmpty() bool { return len(r.ivs) == 0 }

// Intervals returns a copy of the members in ascending order.
func (r *Set) Intervals() []Interval {
	out := make([]Interval, len(r.ivs))
	copy(out, r.ivs)
	return out
}

func (r *Set) Equal(other *Set) bool {
	if len(r.ivs) != len(other.ivs) {
		return false
	}
	for i := range r.ivs {
		if r.ivs[i] != other.ivs[i] {
			return false
		}
	}
	return true
}

func (r *Set) Clone() *Set {
	return &Set{ivs: r.Intervals()}
}

func (r *Set) String() string {
	parts := make([]string, 0, len(r.ivs))
	for _, iv := range r.ivs {
		parts = append(parts, iv.String())
	}
	return strings.Join(parts, ",")
}
