package rltable

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/henderiw/attreval/pkg/span"
)

// Table is a run-length encoded timeline: sorted, non-overlapping half-open
// intervals each holding one value. Adjacent intervals never hold equal
// values.
type Table[V any] interface {
	Get(point int64) (V, bool)
	Set(start, end int64, d V) error
	Clear(start, end int64) error

	Iterate() *Iterator[V]
	Entries() Entries[V]

	Count() int
	Bounds() (span.Interval, bool)

	Clone() Table[V]
	CloneWith(fn func(V) V) Table[V]
	String() string
}

// EqualFn reports whether two values may be coalesced into one entry.
type EqualFn[V any] func(a, b V) bool

func NewTable[V any](eq EqualFn[V], initEntries Entries[V]) (Table[V], error) {
	if eq == nil {
		return nil, errors.New("rltable: equality function is required")
	}
	r := &table[V]{
		m:       new(sync.RWMutex),
		entries: []entry[V]{},
		eq:      eq,
	}

	var errm error
	for _, e := range initEntries {
		if err := r.set(e.Start(), e.End(), e.Data()); err != nil {
			errm = errors.Join(errm, err)
		}
	}

	return r, errm
}

// NewComparable returns an empty table that coalesces values using ==.
func NewComparable[V comparable]() Table[V] {
	t, _ := NewTable[V](func(a, b V) bool { return a == b }, nil)
	return t
}

type table[V any] struct {
	m       *sync.RWMutex
	entries []entry[V]
	eq      EqualFn[V]
}

func (r *table[V]) Get(point int64) (V, bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	var d V
	i := r.indexOf(point)
	if i < 0 {
		return d, false
	}
	return r.entries[i].data, true
}

func (r *table[V]) Set(start, end int64, d V) error {
	r.m.Lock()
	defer r.m.Unlock()

	return r.set(start, end, d)
}

func (r *table[V]) Clear(start, end int64) error {
	r.m.Lock()
	defer r.m.Unlock()

	iv, err := span.New(start, end)
	if err != nil {
		return err
	}
	i, j := r.overlapping(iv)
	r.splice(i, j, r.remainders(i, j, iv, nil))
	return nil
}

func (r *table[V]) Iterate() *Iterator[V] {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.iterate()
}

func (r *table[V]) iterate() *Iterator[V] {
	entries := make([]entry[V], len(r.entries))
	copy(entries, r.entries)
	return &Iterator[V]{current: -1, entries: entries}
}

func (r *table[V]) Entries() Entries[V] {
	r.m.RLock()
	defer r.m.RUnlock()

	entries := make(Entries[V], 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	return entries
}

func (r *table[V]) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.entries)
}

// Bounds returns the interval from the first covered point to the end of
// the last entry.
func (r *table[V]) Bounds() (span.Interval, bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	if len(r.entries) == 0 {
		return span.Interval{}, false
	}
	return span.Interval{Start: r.entries[0].iv.Start, End: r.entries[len(r.entries)-1].iv.End}, true
}

func (r *table[V]) Clone() Table[V] {
	return r.CloneWith(nil)
}

// CloneWith copies the table, passing each value through fn when it is not
// nil so reference values are not shared between the copies.
func (r *table[V]) CloneWith(fn func(V) V) Table[V] {
	r.m.RLock()
	defer r.m.RUnlock()

	entries := make([]entry[V], len(r.entries))
	for i, e := range r.entries {
		if fn != nil {
			e.data = fn(e.data)
		}
		entries[i] = e
	}
	return &table[V]{
		m:       new(sync.RWMutex),
		entries: entries,
		eq:      r.eq,
	}
}

func (r *table[V]) String() string {
	r.m.RLock()
	defer r.m.RUnlock()

	parts := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (r *table[V]) indexOf(point int64) int {
	i := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].iv.End > point })
	if i < len(r.entries) && r.entries[i].iv.Contains(point) {
		return i
	}
	return -1
}

// overlapping returns the index range [i, j) of entries overlapping iv.
func (r *table[V]) overlapping(iv span.Interval) (int, int) {
	i := sort.Search(len(r.entries), func(k int) bool { return r.entries[k].iv.End > iv.Start })
	j := sort.Search(len(r.entries), func(k int) bool { return r.entries[k].iv.Start >= iv.End })
	return i, j
}

// remainders builds the replacement for entries [i, j): the uncovered left
// part of entries[i], the middle entry (if any) and the uncovered right part
// of entries[j-1].
func (r *table[V]) remainders(i, j int, iv span.Interval, middle *entry[V]) []entry[V] {
	repl := make([]entry[V], 0, 3)
	if i < j && r.entries[i].iv.Start < iv.Start {
		left := r.entries[i]
		left.iv = span.Interval{Start: left.iv.Start, End: iv.Start}
		repl = append(repl, left)
	}
	if middle != nil {
		repl = append(repl, *middle)
	}
	if i < j && r.entries[j-1].iv.End > iv.End {
		right := r.entries[j-1]
		right.iv = span.Interval{Start: iv.End, End: right.iv.End}
		repl = append(repl, right)
	}
	return repl
}

func (r *table[V]) splice(i, j int, repl []entry[V]) {
	entries := make([]entry[V], 0, len(r.entries)-(j-i)+len(repl))
	entries = append(entries, r.entries[:i]...)
	entries = append(entries, repl...)
	entries = append(entries, r.entries[j:]...)
	r.entries = entries
}

func (r *table[V]) set(start, end int64, d V) error {
	iv, err := span.New(start, end)
	if err != nil {
		return fmt.Errorf("cannot set %v: %w", d, err)
	}
	i, j := r.overlapping(iv)
	repl := r.remainders(i, j, iv, &entry[V]{iv: iv, data: d})
	r.splice(i, j, repl)
	r.coalesce(i-1, i+len(repl))
	return nil
}

// coalesce merges adjacent equal-valued entries within [lo, hi].
func (r *table[V]) coalesce(lo, hi int) {
	lo = max(lo, 0)
	for k := lo; k < hi && k+1 < len(r.entries); {
		cur, next := r.entries[k], r.entries[k+1]
		if cur.iv.Adjacent(next.iv) && r.eq(cur.data, next.data) {
			r.entries[k].iv.End = next.iv.End
			r.entries = append(r.entries[:k+1], r.entries[k+2:]...)
			hi--
			continue
		}
		k++
	}
}
