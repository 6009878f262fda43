package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/henderiw/attreval/pkg/aligner"
	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/holder"
	"github.com/henderiw/attreval/pkg/measure"
	"github.com/henderiw/attreval/pkg/span"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/labels"
)

// Pair is one target/candidate comparison of a batch.
type Pair struct {
	Name   string
	Labels labels.Set
	// Measure overrides the batch measure for this pair.
	Measure *measure.Measure

	Target        aligner.Source
	TargetSpan    span.Interval
	Candidate     aligner.Source
	CandidateSpan span.Interval
	Blackout      aligner.Source
	Ignore        aligner.Source
	FileInfo      distance.FileInfo
}

type PairResult struct {
	Name      string
	Labels    labels.Set
	Measure   string
	Matched   *span.Set
	Distances *holder.Holder
	Ignored   []span.Interval
	// Stats is only meaningful when HasStats is set: a comparison without
	// any scored frame has no statistics.
	Stats    measure.Stats
	HasStats bool
	Passed   bool
}

type Report struct {
	RunID   uuid.UUID
	Results []PairResult
}

type Options struct {
	// Workers bounds the number of concurrent comparisons; zero means
	// GOMAXPROCS.
	Workers  int
	Observer aligner.Observer
	Logger   log.FieldLogger
}

// Evaluate compares every pair concurrently. Each comparison runs on its own
// copy of the measure. The first failing pair cancels the batch.
func Evaluate(ctx context.Context, m *measure.Measure, pairs []Pair, opts Options) (*Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	report := &Report{
		RunID:   uuid.New(),
		Results: make([]PairResult, len(pairs)),
	}
	logger = logger.WithField("run", report.RunID.String())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base := m
			if p.Measure != nil {
				base = p.Measure
			}
			if base == nil {
				return fmt.Errorf("pair %s: %w: no measure", p.Name, distance.ErrImproperMetric)
			}
			res, err := compare(base.Clone(), p, opts.Observer, logger)
			if err != nil {
				return fmt.Errorf("pair %s: %w", p.Name, err)
			}
			report.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func compare(m *measure.Measure, p Pair, obs aligner.Observer, logger log.FieldLogger) (PairResult, error) {
	logger = logger.WithField("pair", p.Name)
	alignOpts := []aligner.Option{aligner.WithLogger(logger)}
	if obs != nil {
		alignOpts = append(alignOpts, aligner.WithObserver(obs))
	}
	if p.Blackout != nil {
		alignOpts = append(alignOpts, aligner.WithBlackout(p.Blackout))
	}
	if p.Ignore != nil {
		alignOpts = append(alignOpts, aligner.WithIgnore(p.Ignore))
	}

	res, err := m.Compare(p.Target, p.TargetSpan, p.Candidate, p.CandidateSpan, p.FileInfo, alignOpts...)
	if err != nil {
		return PairResult{}, err
	}
	out := PairResult{
		Name:      p.Name,
		Labels:    p.Labels,
		Measure:   m.String(),
		Matched:   res.Matched,
		Distances: res.Distances,
		Ignored:   res.Ignored,
	}
	stats, err := m.Statistics()
	switch {
	case errors.Is(err, distance.ErrNotFound):
	case err != nil:
		return PairResult{}, err
	default:
		out.Stats, out.HasStats = stats, true
		if out.Passed, err = m.PassesStatistic(); err != nil {
			return PairResult{}, err
		}
	}
	logger.WithFields(log.Fields{
		"matched": res.Matched.String(),
		"passed":  out.Passed,
	}).Debug("compared")
	return out, nil
}

// Filter returns the results whose labels match the selector.
func (r *Report) Filter(selector labels.Selector) []PairResult {
	out := []PairResult{}
	for _, res := range r.Results {
		if selector.Matches(res.Labels) {
			out = append(out, res)
		}
	}
	return out
}

// Passed returns the results whose statistic meets the statistic tolerance.
func (r *Report) Passed() []PairResult {
	out := []PairResult{}
	for _, res := range r.Results {
		if res.Passed {
			out = append(out, res)
		}
	}
	return out
}

type Summary struct {
	Pairs         int
	Passed        int
	MatchedFrames int64
	ScoredFrames  int64
}

func (r *Report) Summary() Summary {
	s := Summary{Pairs: len(r.Results)}
	for _, res := range r.Results {
		if res.Passed {
			s.Passed++
		}
		if res.Matched != nil {
			// ignored frames stay in the matched span but are not scored
			matched := res.Matched.Clone()
			for _, iv := range res.Ignored {
				matched.Remove(iv)
			}
			s.MatchedFrames += matched.Size()
		}
		if res.Distances != nil {
			s.ScoredFrames += res.Distances.Len()
		}
	}
	return s
}

// Selector builds an equality selector from a label map.
func Selector(l map[string]string) (labels.Selector, error) {
	return labels.ValidatedSelectorFromSet(l)
}
