package rltable

import (
	"fmt"

	"github.com/henderiw/attreval/pkg/span"
)

type Entry[V any] interface {
	Interval() span.Interval
	Start() int64
	End() int64
	Data() V
	String() string
}

type entry[V any] struct {
	iv   span.Interval
	data V
}

type Entries[V any] []Entry[V]

func (r entry[V]) Interval() span.Interval { return r.iv }
func (r entry[V]) Start() int64            { return r.iv.Start }
func (r entry[V]) End() int64              { return r.iv.End }
func (r entry[V]) Data() V                 { return r.data }
func (r entry[V]) String() string          { return fmt.Sprintf("%s: %v", r.iv.String(), r.data) }

func NewEntry[V any](iv span.Interval, d V) Entry[V] {
	return entry[V]{
		iv:   iv,
		data: d,
	}
}
