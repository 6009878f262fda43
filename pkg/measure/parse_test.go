package measure

import (
	"testing"

	"github.com/henderiw/attreval/pkg/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	reg := distance.NewRegistry()
	require.NoError(t, reg.SetDefaultTolerance("svalue", 0.1))

	cases := map[string]struct {
		text        string
		expected    string
		expectedErr error
	}{
		"Full":             {text: "[ h 0.25 ]", expected: "h 0.25"},
		"Tight":            {text: "[h 0.25]", expected: "h 0.25"},
		"Single":           {text: "[e]", expected: "e 0.1"},
		"SingleSpaced":     {text: "[ e ]", expected: "e 0.1"},
		"AllDefaults":      {text: "[ - - ]", expected: "l 0.1"},
		"Empty":            {text: "[]", expected: "l 0.1"},
		"DefaultTolerance": {text: "[ h - ]", expected: "h 0.1"},
		"DefaultMetric":    {text: "[ - 0.5 ]", expected: "l 0.5"},
		"ToleranceOnly":    {text: "[ 0.75 ]", expected: "l 0.75"},
		"LeadingDot":       {text: "[.5]", expected: "l 0.5"},
		"LeadingColon":     {text: ": [ e 0 ]", expected: "e 0"},
		"CaseInsensitive":  {text: "[ H 1 ]", expected: "h 1"},
		"MissingOpen":      {text: "e 0 ]", expectedErr: distance.ErrImproperMetric},
		"MissingClose":     {text: "[ e 0", expectedErr: distance.ErrImproperMetric},
		"Blank":            {text: "  ", expectedErr: distance.ErrImproperMetric},
		"TooMany":          {text: "[ e 0 1 ]", expectedErr: distance.ErrImproperMetric},
		"Nested":           {text: "[ [e] 0 ]", expectedErr: distance.ErrImproperMetric},
		"BadTolerance":     {text: "[ e zero ]", expectedErr: distance.ErrImproperMetric},
		"NegativeTol":      {text: "[ e -1 ]", expectedErr: distance.ErrImproperMetric},
		"UnknownMetric":    {text: "[ dice 0 ]", expectedErr: distance.ErrUnknownMetric},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := Parse(reg, "svalue", tc.text)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, m.String())
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	reg := distance.NewRegistry()
	m, err := Parse(reg, "point", "[ manhattan 2.5 ]")
	require.NoError(t, err)

	again, err := Parse(reg, "point", m.Format())
	require.NoError(t, err)
	assert.True(t, m.Equal(again))
}
