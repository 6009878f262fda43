package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/henderiw/attreval/pkg/distance"
	"github.com/henderiw/attreval/pkg/measure"
	"gopkg.in/yaml.v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config holds the evaluation defaults. Fields omitted from the file keep
// the registry defaults.
type Config struct {
	// Statistic applied to the per-frame distances: mean, minimum, median
	// or maximum.
	Statistic     *string                 `yaml:"statistic,omitempty"`
	StatTolerance *float64                `yaml:"statTolerance,omitempty"`
	Types         map[string]TypeConfig   `yaml:"types,omitempty"`
	Measures      map[string]NamedMeasure `yaml:"measures,omitempty"`
}

// TypeConfig overrides the defaults of one attribute type.
type TypeConfig struct {
	// UseSame copies the metrics of another attribute type first.
	UseSame   *string  `yaml:"useSame,omitempty"`
	Metric    *string  `yaml:"metric,omitempty"`
	Tolerance *float64 `yaml:"tolerance,omitempty"`
}

// NamedMeasure is a measure in bracket form for one attribute type.
type NamedMeasure struct {
	Type    string `yaml:"type"`
	Measure string `yaml:"measure"`
}

func Empty() *Config {
	return &Config{}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}
	fi, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML config. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Empty()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that do not depend on a registry. All
// problems are reported at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Statistic != nil {
		if _, err := distance.ParseStatistic(*c.Statistic); err != nil {
			errs = append(errs, fmt.Errorf("statistic: %w", err))
		}
	}
	if c.StatTolerance != nil && !measure.IsValidTolerance(*c.StatTolerance) {
		errs = append(errs, fmt.Errorf("statTolerance must be a non-negative number, got %v", *c.StatTolerance))
	}
	for _, attrType := range sortedKeys(c.Types) {
		tc := c.Types[attrType]
		if tc.Tolerance != nil && !measure.IsValidTolerance(*tc.Tolerance) {
			errs = append(errs, fmt.Errorf("types.%s.tolerance must be a non-negative number, got %v", attrType, *tc.Tolerance))
		}
		if tc.UseSame != nil && *tc.UseSame == attrType {
			errs = append(errs, fmt.Errorf("types.%s.useSame refers to itself", attrType))
		}
		if tc.Metric != nil && *tc.Metric == "" {
			errs = append(errs, fmt.Errorf("types.%s.metric is empty", attrType))
		}
	}
	for _, name := range sortedKeys(c.Measures) {
		if c.Measures[name].Type == "" {
			errs = append(errs, fmt.Errorf("measures.%s.type is required", name))
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (c *Config) GetStatistic() distance.Statistic {
	if c.Statistic == nil {
		return distance.Mean
	}
	s, err := distance.ParseStatistic(*c.Statistic)
	if err != nil {
		return distance.Mean
	}
	return s
}

func (c *Config) GetStatTolerance() float64 {
	if c.StatTolerance == nil {
		return 0
	}
	return *c.StatTolerance
}

// Apply installs the configured defaults into the registry. Attribute
// types are applied in name order; useSame runs before the metric and
// tolerance of the same type are set.
func (c *Config) Apply(reg *distance.Registry) error {
	var errs []error
	for _, attrType := range sortedKeys(c.Types) {
		tc := c.Types[attrType]
		if tc.UseSame != nil {
			names, err := reg.Names(*tc.UseSame)
			if err != nil {
				errs = append(errs, fmt.Errorf("types.%s.useSame: %w", attrType, err))
				continue
			}
			if len(names) == 0 {
				errs = append(errs, fmt.Errorf("types.%s.useSame: %w: attribute type not found: %s",
					attrType, distance.ErrUnknownMetric, *tc.UseSame))
				continue
			}
			if err := reg.UseSame(attrType, *tc.UseSame); err != nil {
				errs = append(errs, fmt.Errorf("types.%s.useSame: %w", attrType, err))
				continue
			}
		}
		if tc.Metric != nil {
			if err := reg.SetDefaultMetric(attrType, *tc.Metric); err != nil {
				errs = append(errs, fmt.Errorf("types.%s.metric: %w", attrType, err))
			}
		}
		if tc.Tolerance != nil {
			if err := reg.SetDefaultTolerance(attrType, *tc.Tolerance); err != nil {
				errs = append(errs, fmt.Errorf("types.%s.tolerance: %w", attrType, err))
			}
		}
	}
	if c.Statistic != nil {
		reg.SetDefaultStatistic(c.GetStatistic())
	}
	if c.StatTolerance != nil {
		reg.SetDefaultStatTolerance(c.GetStatTolerance())
	}
	return utilerrors.NewAggregate(errs)
}

// Measure parses the named measure against the registry.
func (c *Config) Measure(reg *distance.Registry, name string) (*measure.Measure, error) {
	nm, ok := c.Measures[name]
	if !ok {
		return nil, fmt.Errorf("%w: measure %s", distance.ErrNotFound, name)
	}
	m, err := measure.Parse(reg, nm.Type, nm.Measure)
	if err != nil {
		return nil, fmt.Errorf("measures.%s: %w", name, err)
	}
	return m, nil
}

// AllMeasures parses every named measure, reporting all failures at once.
func (c *Config) AllMeasures(reg *distance.Registry) (map[string]*measure.Measure, error) {
	out := map[string]*measure.Measure{}
	var errs []error
	for _, name := range sortedKeys(c.Measures) {
		m, err := c.Measure(reg, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = m
	}
	return out, utilerrors.NewAggregate(errs)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
