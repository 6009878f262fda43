package rltable

// Iterator walks a snapshot of the table entries in ascending order.
type Iterator[V any] struct {
	current int
	entries []entry[V]
}

func (r *Iterator[V]) Value() Entry[V] {
	return r.entries[r.current]
}

func (r *Iterator[V]) Next() bool {
	r.current++
	return r.current < len(r.entries)
}

// IsConsecutive returns whether the current entry starts where the previous
// one ended.
func (r *Iterator[V]) IsConsecutive() bool {
	if r.current < 1 {
		return false
	}
	return r.entries[r.current-1].iv.Adjacent(r.entries[r.current].iv)
}
