package distance

import (
	"fmt"
	"strings"
)

// Kind describes how per-object distances are composed.
type Kind int

const (
	OverallSum  Kind = 0
	OverallMean Kind = 1
	CandVTargs  Kind = 3
	TargVCands  Kind = 4
	Balanced    Kind = 5
)

func (r Kind) String() string {
	switch r {
	case OverallSum:
		return "overall-sum"
	case OverallMean:
		return "overall-mean"
	case CandVTargs:
		return "cand-v-targs"
	case TargVCands:
		return "targ-v-cands"
	case Balanced:
		return "balanced"
	default:
		return fmt.Sprintf("kind(%d)", int(r))
	}
}

// Statistic selects the summary taken over a distance timeline.
type Statistic int

const (
	Mean Statistic = iota
	Minimum
	Median
	Maximum
)

func (r Statistic) String() string {
	switch r {
	case Mean:
		return "mean"
	case Minimum:
		return "minimum"
	case Median:
		return "median"
	case Maximum:
		return "maximum"
	default:
		return fmt.Sprintf("statistic(%d)", int(r))
	}
}

func ParseStatistic(s string) (Statistic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return Mean, nil
	case "minimum", "min":
		return Minimum, nil
	case "median":
		return Median, nil
	case "maximum", "max":
		return Maximum, nil
	}
	return Mean, fmt.Errorf("%w: not an acceptable distance statistic: %q", ErrImproperMetric, s)
}
