package distance

// SkipIgnored returns m with ignore regions honoured: a difference that
// carries an ignore value is skipped with ErrIgnoredValue, anything else is
// scored by m.
func SkipIgnored(m Metric) Metric {
	if m == nil {
		return nil
	}
	if _, ok := m.(*skipIgnored); ok {
		return m
	}
	return &skipIgnored{Metric: m}
}

type skipIgnored struct {
	Metric
}

func (r *skipIgnored) Distance(d Difference) (float64, error) {
	if d.Ignore != nil {
		return 0, ErrIgnoredValue
	}
	return r.Metric.Distance(d)
}

func (r *skipIgnored) Equal(other Metric) bool {
	return r.Metric.Equal(unwrap(other))
}

func unwrap(m Metric) Metric {
	if s, ok := m.(*skipIgnored); ok {
		return s.Metric
	}
	return m
}
