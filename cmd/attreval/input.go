package main

import (
	"fmt"
	"os"

	"github.com/henderiw/attreval/pkg/aligner"
	"github.com/henderiw/attreval/pkg/batch"
	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/measure"
	"github.com/henderiw/attreval/pkg/rltable"
	"github.com/henderiw/attreval/pkg/span"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/labels"
)

// Input is the YAML document read by the compare command.
type Input struct {
	// Type is the attribute type of pairs that do not name one.
	Type  string      `yaml:"type,omitempty"`
	Pairs []InputPair `yaml:"pairs"`
}

type InputPair struct {
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type,omitempty"`
	Labels    map[string]string `yaml:"labels,omitempty"`
	Measure   string            `yaml:"measure,omitempty"`
	FileInfo  string            `yaml:"fileInfo,omitempty"`
	Target    Timeline          `yaml:"target"`
	Candidate Timeline          `yaml:"candidate"`
	Blackout  []InputValue      `yaml:"blackout,omitempty"`
	Ignore    []InputValue      `yaml:"ignore,omitempty"`
}

// Timeline is an attribute over an outer span. Spans are written as
// "start-end" with an exclusive end.
type Timeline struct {
	Span   string       `yaml:"span"`
	Values []InputValue `yaml:"values,omitempty"`
}

type InputValue struct {
	Span  string `yaml:"span"`
	Value any    `yaml:"value"`
}

func readInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	in := &Input{}
	if err := yaml.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("failed to parse input YAML: %w", err)
	}
	return in, nil
}

// pairs converts the input into batch pairs. A pair without its own
// measure uses named, or the registered default of its type.
func (in *Input) pairs(reg *distance.Registry, named *measure.Measure) ([]batch.Pair, error) {
	out := make([]batch.Pair, 0, len(in.Pairs))
	for i, p := range in.Pairs {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("pair-%d", i)
		}
		bp, err := p.pair(reg, in.Type, named)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", name, err)
		}
		bp.Name = name
		out = append(out, bp)
	}
	return out, nil
}

func (p InputPair) pair(reg *distance.Registry, defaultType string, named *measure.Measure) (batch.Pair, error) {
	attrType := p.Type
	if attrType == "" {
		attrType = defaultType
	}
	if attrType == "" {
		return batch.Pair{}, fmt.Errorf("no attribute type")
	}

	var err error
	m := named
	switch {
	case p.Measure != "":
		m, err = measure.Parse(reg, attrType, p.Measure)
	case m == nil:
		m, err = measure.NewDefault(reg, attrType)
	}
	if err != nil {
		return batch.Pair{}, err
	}

	bp := batch.Pair{
		Labels:  labels.Set(p.Labels),
		Measure: m,
	}
	if p.FileInfo != "" {
		bp.FileInfo = p.FileInfo
	}
	if bp.Target, bp.TargetSpan, err = p.Target.source(attrType); err != nil {
		return batch.Pair{}, fmt.Errorf("target: %w", err)
	}
	if bp.Candidate, bp.CandidateSpan, err = p.Candidate.source(attrType); err != nil {
		return batch.Pair{}, fmt.Errorf("candidate: %w", err)
	}
	if len(p.Blackout) > 0 {
		if bp.Blackout, err = regions(p.Blackout); err != nil {
			return batch.Pair{}, fmt.Errorf("blackout: %w", err)
		}
	}
	if len(p.Ignore) > 0 {
		if bp.Ignore, err = regions(p.Ignore); err != nil {
			return batch.Pair{}, fmt.Errorf("ignore: %w", err)
		}
		// the built-in metrics score every frame; ignore regions are
		// dropped from the statistics by the wrapper
		bp.Measure = m.Clone()
		if err := bp.Measure.SetMetric(distance.SkipIgnored(m.Metric())); err != nil {
			return batch.Pair{}, err
		}
	}
	return bp, nil
}

// regions loads blackout or ignore regions. A region without a value is
// still present.
func regions(vals []InputValue) (aligner.Source, error) {
	entries := rltable.Entries[any]{}
	for _, v := range vals {
		iv, err := span.Parse(v.Span)
		if err != nil {
			return nil, err
		}
		val := v.Value
		if val == nil {
			val = true
		}
		entries = append(entries, rltable.NewEntry(iv, val))
	}
	t, err := rltable.NewTable[any](distance.Equal, entries)
	if err != nil {
		return nil, err
	}
	return aligner.FromTable(t), nil
}

func (t Timeline) source(attrType string) (aligner.Source, span.Interval, error) {
	outer, err := span.Parse(t.Span)
	if err != nil {
		return nil, span.Interval{}, err
	}
	src, err := values(attrType, t.Values)
	if err != nil {
		return nil, span.Interval{}, err
	}
	return src, outer, nil
}

// values loads the values into a timeline table; later values overwrite
// earlier ones where they overlap.
func values(attrType string, vals []InputValue) (aligner.Source, error) {
	entries := rltable.Entries[any]{}
	for _, v := range vals {
		iv, err := span.Parse(v.Span)
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(attrType, v.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Span, err)
		}
		entries = append(entries, rltable.NewEntry(iv, val))
	}
	t, err := rltable.NewTable[any](distance.Equal, entries)
	if err != nil {
		return nil, err
	}
	return aligner.FromTable(t), nil
}

// decodeValue converts a YAML scalar or list into the value type the
// built-in metrics of attrType expect.
func decodeValue(attrType string, v any) (any, error) {
	switch attrType {
	case "point":
		l, ok := v.([]any)
		if !ok || len(l) != 2 {
			return nil, fmt.Errorf("point must be a list of two integers, got %v", v)
		}
		x, okx := l[0].(int)
		y, oky := l[1].(int)
		if !okx || !oky {
			return nil, fmt.Errorf("point must be a list of two integers, got %v", v)
		}
		return distance.Point{X: x, Y: y}, nil
	case "fvalue", "dvalue":
		if i, ok := v.(int); ok {
			return float64(i), nil
		}
	case "svalue":
		if v == nil {
			return nil, nil
		}
		if _, ok := v.(string); !ok {
			return fmt.Sprint(v), nil
		}
	}
	return v, nil
}
