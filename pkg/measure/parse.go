package measure

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/henderiw/attreval/pkg/distance"
)

// Parse reads a measure in bracket form, e.g. "[ e 0.25 ]", "[ - - ]" or
// "[ iou - ]". A "-" or an omitted token falls back to the registered
// default of the attribute type. A stray leading ":" token is skipped.
func Parse(reg *distance.Registry, attrType, text string) (*Measure, error) {
	tokens, err := bracketTokens(text)
	if err != nil {
		return nil, err
	}

	var metricTok, tolTok string
	switch len(tokens) {
	case 0:
	case 1:
		if looksNumeric(tokens[0]) {
			tolTok = tokens[0]
		} else {
			metricTok = tokens[0]
		}
	case 2:
		metricTok, tolTok = tokens[0], tokens[1]
	default:
		return nil, fmt.Errorf("%w: unexpected %q in %q", distance.ErrImproperMetric, tokens[2], text)
	}

	var m distance.Metric
	if metricTok == "" || metricTok == "-" {
		m, err = reg.DefaultMeasureMetric(attrType)
	} else {
		m, err = reg.Lookup(attrType, metricTok)
	}
	if err != nil {
		return nil, err
	}

	tol := defaultTolerance(reg, attrType)
	if tolTok != "" && tolTok != "-" {
		tol, err = strconv.ParseFloat(tolTok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: tolerance %q: %v", distance.ErrImproperMetric, tolTok, err)
		}
	}

	r := newMeasure(reg, m, 0)
	if err := r.SetTolerance(tol); err != nil {
		return nil, err
	}
	return r, nil
}

// bracketTokens strips the brackets and returns the tokens between them.
func bracketTokens(text string) ([]string, error) {
	tokens := strings.Fields(text)
	if len(tokens) > 0 && tokens[0] == ":" {
		tokens = tokens[1:]
	}
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "[") {
		return nil, fmt.Errorf("%w: looking for '[' in %q", distance.ErrImproperMetric, text)
	}
	tokens[0] = tokens[0][1:]
	last := len(tokens) - 1
	if !strings.HasSuffix(tokens[last], "]") {
		return nil, fmt.Errorf("%w: looking for ']' at the end of %q", distance.ErrImproperMetric, text)
	}
	tokens[last] = strings.TrimSuffix(tokens[last], "]")

	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if strings.ContainsAny(t, "[]") {
			return nil, fmt.Errorf("%w: unbalanced brackets in %q", distance.ErrImproperMetric, text)
		}
		out = append(out, t)
	}
	return out, nil
}

func looksNumeric(s string) bool {
	r := []rune(s)
	switch {
	case len(r) == 0:
		return false
	case unicode.IsDigit(r[0]):
		return true
	case len(r) > 1 && r[0] == '.' && unicode.IsDigit(r[1]):
		return true
	}
	return false
}
