package aligner

import (
	"github.com/henderiw/attreval/pkg/rltable"
	"github.com/henderiw/attreval/pkg/span"
)

// ValueSpan is one run of an attribute value. A point not covered by any
// ValueSpan of a source has no value.
type ValueSpan struct {
	span.Interval
	Value any
}

// Iterator yields ValueSpans in ascending, non-overlapping order.
type Iterator interface {
	Next() bool
	Value() ValueSpan
}

// Source is a time-varying attribute.
type Source interface {
	Values(outer span.Interval) Iterator
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(outer span.Interval) Iterator

func (r SourceFunc) Values(outer span.Interval) Iterator { return r(outer) }

// FromTable exposes the entries of a timeline table as a Source.
func FromTable[V any](t rltable.Table[V]) Source {
	return SourceFunc(func(outer span.Interval) Iterator {
		return &tableIterator[V]{iter: t.Iterate()}
	})
}

type tableIterator[V any] struct {
	iter *rltable.Iterator[V]
}

func (r *tableIterator[V]) Next() bool { return r.iter.Next() }

func (r *tableIterator[V]) Value() ValueSpan {
	e := r.iter.Value()
	return ValueSpan{Interval: e.Interval(), Value: e.Data()}
}

// Static is a value that does not change over time: it covers the whole
// outer span it is asked for.
func Static(v any) Source {
	return SourceFunc(func(outer span.Interval) Iterator {
		return &sliceIterator{current: -1, spans: []ValueSpan{{Interval: outer, Value: v}}}
	})
}

// Spans builds a Source from an ordered list of ValueSpans.
func Spans(spans ...ValueSpan) Source {
	return SourceFunc(func(outer span.Interval) Iterator {
		return &sliceIterator{current: -1, spans: spans}
	})
}

type sliceIterator struct {
	current int
	spans   []ValueSpan
}

func (r *sliceIterator) Next() bool {
	r.current++
	return r.current < len(r.spans)
}

func (r *sliceIterator) Value() ValueSpan { return r.spans[r.current] }
