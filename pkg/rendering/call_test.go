package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCall(t *testing.T) {
	tests := []struct {
		name          string
		call          string
		params        map[string]any
		expected      string
		expectedError error
	}{
		{
			name:     "reserved placeholders are kept",
			call:     `basefunctions::FilterFlag({df}, "{output}", {input})`,
			expected: `basefunctions::FilterFlag({df}, "{output}", {input})`,
		},
		{
			name: "strings are inserted verbatim",
			call: `physicsobject::muon::CutPt({df}, {input}, "{output}", {min_muon_pt}, "{muon_id}")`,
			params: map[string]any{
				"min_muon_pt": 23.0,
				"muon_id":     "Muon_mediumId",
			},
			expected: `physicsobject::muon::CutPt({df}, {input}, "{output}", 23.0, "Muon_mediumId")`,
		},
		{
			name:     "every occurrence is replaced",
			call:     "f({k}, {k})",
			params:   map[string]any{"k": 2},
			expected: "f(2, 2)",
		},
		{
			name:     "lists quote their strings",
			call:     "triggers({df}, {output}, {paths})",
			params:   map[string]any{"paths": []any{"HLT_IsoMu24", "HLT_IsoMu27"}},
			expected: `triggers({df}, {output}, {"HLT_IsoMu24", "HLT_IsoMu27"})`,
		},
		{
			name:     "booleans and integers",
			call:     "f({flag}, {n})",
			params:   map[string]any{"flag": false, "n": 0},
			expected: "f(false, 0)",
		},
		{
			name: "typed go values",
			call: "f({pts}, {n})",
			params: map[string]any{
				"pts": []float64{20, 25.5},
				"n":   int32(3),
			},
			expected: "f({20.0, 25.5}, 3)",
		},
		{
			name:          "unbound placeholder",
			call:          "f({missing})",
			expectedError: ErrUnboundPlaceholder,
		},
		{
			name:          "nil value",
			call:          "f({k})",
			params:        map[string]any{"k": nil},
			expectedError: ErrUnsupportedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered, err := RenderCall(tt.call, tt.params)
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, rendered)
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "float keeps decimal point", value: 1.0, expected: "1.0"},
		{name: "fraction", value: 0.25, expected: "0.25"},
		{name: "exponent", value: 1e-7, expected: "1e-07"},
		{name: "int64", value: int64(-3), expected: "-3"},
		{name: "string slice", value: []string{"a"}, expected: `{"a"}`},
		{name: "nested list", value: []any{[]any{1, 2}, []any{3}}, expected: "{{1, 2}, {3}}"},
		{name: "map sorted by key", value: map[string]any{"b": 2, "a": "x"}, expected: `{{"a", "x"}, {"b", 2}}`},
		{name: "empty list", value: []any{}, expected: "{}"},
		{name: "float slice", value: []float64{20, 25.5}, expected: "{20.0, 25.5}"},
		{name: "int slice", value: []int{1, 2}, expected: "{1, 2}"},
		{name: "array", value: [2]uint{3, 4}, expected: "{3, 4}"},
		{name: "int32", value: int32(3), expected: "3"},
		{name: "uint", value: uint(7), expected: "7"},
		{name: "float32", value: float32(0.5), expected: "0.5"},
		{name: "typed map sorted by key", value: map[string]float64{"b": 2, "a": 0.5}, expected: `{{"a", 0.5}, {"b", 2.0}}`},
		{name: "map of string slices", value: map[string][]string{"mt": {"HLT_IsoMu24"}}, expected: `{{"mt", {"HLT_IsoMu24"}}}`},
		{name: "nil slice", value: []int(nil), expected: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatValue_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "nil", value: nil},
		{name: "non-string map keys", value: map[int]string{1: "a"}},
		{name: "struct", value: struct{ A int }{A: 1}},
		{name: "nil inside list", value: []any{1, nil}},
		{name: "channel", value: make(chan int)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatValue(tt.value)
			require.ErrorIs(t, err, ErrUnsupportedValue)
		})
	}
}
