// Package metrics exports comparison outcomes as prometheus metrics.
package metrics

import (
	"github.com/henderiw/attreval/pkg/span"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "attreval"

// Observer counts compared segments per metric. It is safe for concurrent
// use and can be shared by every worker of a batch.
type Observer struct {
	segmentsTotal    *prometheus.CounterVec
	framesTotal      *prometheus.CounterVec
	ignoredTotal     *prometheus.CounterVec
	comparisonsTotal *prometheus.CounterVec
	distance         *prometheus.HistogramVec
}

// NewObserver creates the collectors and registers them with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	r := &Observer{
		segmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_total",
				Help:      "Total number of reconciled sub-intervals scored",
			},
			[]string{"metric", "result"}, // result: pass, fail
		),
		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Total number of frames scored",
			},
			[]string{"metric", "result"},
		),
		ignoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ignored_segments_total",
				Help:      "Total number of sub-intervals the metric declined to score",
			},
			[]string{"metric"},
		),
		comparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparisons_total",
				Help:      "Total number of timeline comparisons",
			},
			[]string{"metric"},
		),
		distance: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "distance",
				Help:      "Distribution of segment distances",
				Buckets:   []float64{0, .1, .25, .5, .75, .9, 1},
			},
			[]string{"metric"},
		),
	}
	for _, c := range []prometheus.Collector{
		r.segmentsTotal, r.framesTotal, r.ignoredTotal, r.comparisonsTotal, r.distance,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Observer) ObserveComparison(metric string) {
	r.comparisonsTotal.WithLabelValues(metric).Inc()
}

func (r *Observer) ObserveSegment(metric string, iv span.Interval, distance float64, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	r.segmentsTotal.WithLabelValues(metric, result).Inc()
	r.framesTotal.WithLabelValues(metric, result).Add(float64(iv.Len()))
	r.distance.WithLabelValues(metric).Observe(distance)
}

func (r *Observer) ObserveIgnored(metric string, iv span.Interval) {
	r.ignoredTotal.WithLabelValues(metric).Inc()
}
