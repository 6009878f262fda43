package aligner

import (
	"github.com/henderiw/attreval/pkg/span"
	log "github.com/sirupsen/logrus"
)

// Observer receives the outcome of every compared segment.
type Observer interface {
	ObserveComparison(metric string)
	ObserveSegment(metric string, iv span.Interval, distance float64, passed bool)
	ObserveIgnored(metric string, iv span.Interval)
}

type Option func(*options)

type options struct {
	blackout Source
	ignore   Source
	observer Observer
	logger   log.FieldLogger
}

// WithBlackout supplies the regions that are known to be unscorable.
func WithBlackout(s Source) Option {
	return func(o *options) { o.blackout = s }
}

// WithIgnore supplies the don't-care regions.
func WithIgnore(s Source) Option {
	return func(o *options) { o.ignore = s }
}

func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithLogger(l log.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

type nopObserver struct{}

func (nopObserver) ObserveComparison(string)                            {}
func (nopObserver) ObserveSegment(string, span.Interval, float64, bool) {}
func (nopObserver) ObserveIgnored(string, span.Interval)                {}
