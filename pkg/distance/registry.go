package distance

import (
	"fmt"
	"maps"
	"math"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultMetricName is used for attribute types without a configured
// default metric.
const DefaultMetricName = "e"

// Loader registers the built-in metrics and defaults of one attribute type.
// It runs once, on first use of the type, with the registry lock held, so
// it must use the Loader-facing methods of Builder only.
type Loader func(b *Builder) error

type defaults struct {
	metric    string
	tolerance float64
	hasTol    bool
}

// Registry maps attribute type -> metric name -> metric. Names are matched
// case-insensitively. Writes are expected during startup; lookups are safe
// for concurrent use.
type Registry struct {
	m        *sync.RWMutex
	metrics  map[string]map[string]Metric
	defaults map[string]*defaults
	loaders  map[string]Loader
	loaded   sets.Set[string]
	loading  sets.Set[string]

	statistic     Statistic
	statTolerance float64
}

// NewEmptyRegistry returns a registry without built-in metrics.
func NewEmptyRegistry() *Registry {
	return &Registry{
		m:        new(sync.RWMutex),
		metrics:  map[string]map[string]Metric{},
		defaults: map[string]*defaults{},
		loaders:  map[string]Loader{},
		loaded:   sets.New[string](),
		loading:  sets.New[string](),
	}
}

// NewRegistry returns a registry that lazily loads the built-in attribute
// types on first use.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for attrType, l := range builtinLoaders {
		r.loaders[attrType] = l
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// AddLoader installs a lazy loader for attrType, replacing any previous one.
func (r *Registry) AddLoader(attrType string, l Loader) {
	r.m.Lock()
	defer r.m.Unlock()
	r.loaders[attrType] = l
	r.loaded.Delete(attrType)
}

// Register adds d to attrType, loading the built-ins of attrType first.
func (r *Registry) Register(attrType string, d Metric) error {
	r.m.Lock()
	defer r.m.Unlock()
	if err := r.ensure(attrType); err != nil {
		return err
	}
	r.register(attrType, d)
	return nil
}

func (r *Registry) Lookup(attrType, name string) (Metric, error) {
	if err := r.check(attrType); err != nil {
		return nil, err
	}
	r.m.RLock()
	defer r.m.RUnlock()
	return r.lookup(attrType, name)
}

// Has reports whether name is a metric for attrType. An unknown attribute
// type is an error.
func (r *Registry) Has(attrType, name string) (bool, error) {
	if err := r.check(attrType); err != nil {
		return false, err
	}
	r.m.RLock()
	defer r.m.RUnlock()
	ms, ok := r.metrics[attrType]
	if !ok {
		return false, fmt.Errorf("%w: attribute type not found: %s", ErrUnknownMetric, attrType)
	}
	_, ok = ms[strings.ToLower(name)]
	return ok, nil
}

// Names returns the sorted metric names of attrType.
func (r *Registry) Names(attrType string) ([]string, error) {
	if err := r.check(attrType); err != nil {
		return nil, err
	}
	r.m.RLock()
	defer r.m.RUnlock()
	return sets.List(sets.KeySet(r.metrics[attrType])), nil
}

// Types returns all attribute types with registered metrics or loaders.
func (r *Registry) Types() []string {
	r.m.RLock()
	defer r.m.RUnlock()
	return sets.List(sets.KeySet(r.metrics).Union(sets.KeySet(r.loaders)))
}

// UseSame copies every metric of from into to.
func (r *Registry) UseSame(to, from string) error {
	r.m.Lock()
	defer r.m.Unlock()
	if err := r.ensure(from); err != nil {
		return err
	}
	if err := r.ensure(to); err != nil {
		return err
	}
	r.useSame(to, from)
	return nil
}

func (r *Registry) SetDefaultMetric(attrType, name string) error {
	r.m.Lock()
	defer r.m.Unlock()
	if err := r.ensure(attrType); err != nil {
		return err
	}
	return r.setDefaultMetric(attrType, name)
}

// DefaultMetric returns the default metric name for attrType, or "e".
func (r *Registry) DefaultMetric(attrType string) string {
	r.checkAndLog(attrType)
	r.m.RLock()
	defer r.m.RUnlock()
	if d, ok := r.defaults[attrType]; ok && d.metric != "" {
		return d.metric
	}
	return DefaultMetricName
}

func (r *Registry) SetDefaultTolerance(attrType string, tol float64) error {
	r.m.Lock()
	defer r.m.Unlock()
	if err := r.ensure(attrType); err != nil {
		return err
	}
	r.setDefaultTolerance(attrType, tol)
	return nil
}

// DefaultTolerance returns the default tolerance for attrType, or NaN when
// none is configured.
func (r *Registry) DefaultTolerance(attrType string) float64 {
	r.checkAndLog(attrType)
	r.m.RLock()
	defer r.m.RUnlock()
	if d, ok := r.defaults[attrType]; ok && d.hasTol {
		return d.tolerance
	}
	return math.NaN()
}

// DefaultMeasureMetric resolves the default metric of attrType.
func (r *Registry) DefaultMeasureMetric(attrType string) (Metric, error) {
	return r.Lookup(attrType, r.DefaultMetric(attrType))
}

func (r *Registry) SetDefaultStatistic(s Statistic) {
	r.m.Lock()
	defer r.m.Unlock()
	r.statistic = s
}

func (r *Registry) DefaultStatistic() Statistic {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.statistic
}

func (r *Registry) SetDefaultStatTolerance(tol float64) {
	r.m.Lock()
	defer r.m.Unlock()
	r.statTolerance = tol
}

func (r *Registry) DefaultStatTolerance() float64 {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.statTolerance
}

// check loads the built-ins of attrType if that has not happened yet.
func (r *Registry) check(attrType string) error {
	r.m.RLock()
	done := r.loaded.Has(attrType)
	_, hasLoader := r.loaders[attrType]
	r.m.RUnlock()
	if done || !hasLoader {
		return nil
	}
	r.m.Lock()
	defer r.m.Unlock()
	return r.ensure(attrType)
}

// checkAndLog is check for getters that fall back to a default value; the
// failure is reported again by the next call that returns an error.
func (r *Registry) checkAndLog(attrType string) {
	if err := r.check(attrType); err != nil {
		log.WithField("type", attrType).WithError(err).Warn("using fallback default")
	}
}

// ensure runs the loader of attrType; the caller holds the write lock. A
// failed loader leaves the type as it was and runs again on the next use.
func (r *Registry) ensure(attrType string) error {
	if r.loaded.Has(attrType) {
		return nil
	}
	l, ok := r.loaders[attrType]
	if !ok {
		return nil
	}
	if r.loading.Has(attrType) {
		return fmt.Errorf("%w: loader of %s depends on itself", ErrImproperMetric, attrType)
	}
	r.loading.Insert(attrType)
	defer r.loading.Delete(attrType)

	metrics, hasMetrics := r.metrics[attrType]
	saved := maps.Clone(metrics)
	var savedDefaults *defaults
	if d, ok := r.defaults[attrType]; ok {
		cp := *d
		savedDefaults = &cp
	}
	if err := l(&Builder{r: r, attrType: attrType}); err != nil {
		if hasMetrics {
			r.metrics[attrType] = saved
		} else {
			delete(r.metrics, attrType)
		}
		if savedDefaults != nil {
			r.defaults[attrType] = savedDefaults
		} else {
			delete(r.defaults, attrType)
		}
		return fmt.Errorf("loading metrics for %s: %w", attrType, err)
	}
	r.loaded.Insert(attrType)
	return nil
}

func (r *Registry) register(attrType string, d Metric) {
	ms, ok := r.metrics[attrType]
	if !ok {
		ms = map[string]Metric{}
		r.metrics[attrType] = ms
	}
	ms[strings.ToLower(d.Name())] = d
}

func (r *Registry) lookup(attrType, name string) (Metric, error) {
	ms, ok := r.metrics[attrType]
	if !ok {
		return nil, fmt.Errorf("%w: attribute type not found: %s", ErrUnknownMetric, attrType)
	}
	d, ok := ms[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s for attribute type %s", ErrUnknownMetric, name, attrType)
	}
	return d, nil
}

func (r *Registry) useSame(to, from string) {
	for _, d := range r.metrics[from] {
		r.register(to, d)
	}
}

func (r *Registry) setDefaultMetric(attrType, name string) error {
	if _, err := r.lookup(attrType, name); err != nil {
		return fmt.Errorf("%w: %s is not a valid metric for %s attributes", ErrImproperMetric, name, attrType)
	}
	r.defaultsFor(attrType).metric = strings.ToLower(name)
	return nil
}

func (r *Registry) setDefaultTolerance(attrType string, tol float64) {
	d := r.defaultsFor(attrType)
	d.tolerance = tol
	d.hasTol = true
}

func (r *Registry) defaultsFor(attrType string) *defaults {
	d, ok := r.defaults[attrType]
	if !ok {
		d = &defaults{}
		r.defaults[attrType] = d
	}
	return d
}

// Builder is handed to a Loader to populate one attribute type.
type Builder struct {
	r        *Registry
	attrType string
}

func (b *Builder) Register(d Metric) { b.r.register(b.attrType, d) }

// UseSame copies the metrics of another type, loading it first.
func (b *Builder) UseSame(from string) error {
	if err := b.r.ensure(from); err != nil {
		return err
	}
	b.r.useSame(b.attrType, from)
	return nil
}

func (b *Builder) SetDefaultMetric(name string) error {
	return b.r.setDefaultMetric(b.attrType, name)
}

func (b *Builder) SetDefaultTolerance(tol float64) {
	b.r.setDefaultTolerance(b.attrType, tol)
}
