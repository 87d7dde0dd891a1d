package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethpandaops/shiftgraph/internal/testutil"
	"github.com/ethpandaops/shiftgraph/pkg/configuration"
	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const muonsYAML = `module: muons
external: [Muon_pt, Muon_eta]
producers:
  - name: MuonPtCut
    call: 'CutPt({df}, {input}, "{output}", {min_pt})'
    input: [Muon_pt]
    output: [muon_pt_mask]
    scopes: [mt, et]
  - name: MuonEtaCut
    call: 'CutEta({df}, {input}, "{output}", {max_eta})'
    input: [Muon_eta]
    output: [muon_eta_mask]
    scopes: [mt, et]
  - name: GoodMuons
    call: 'Combine({df}, "{output}", {input})'
    output: [good_muons]
    scopes: [mt, et]
    subproducers: [MuonPtCut, MuonEtaCut]
producers_by_scope:
  - scopes: [mt]
    producers: [GoodMuons, taus.TauPt]
parameters:
  - scopes: [mt, et]
    values:
      min_pt:
        by_era:
          "2016preVFP, 2016postVFP": 20.5
          "2018": 23.5
        default: 25.5
      max_eta: 2.4
outputs:
  - scopes: [mt]
    quantities: [good_muons, tau_pt]
`

const tausYAML = `module: taus
external: [Tau_pt, Tau_pt_up]
producers:
  - name: TauPt
    call: 'Rename({df}, "{output}", {input}, {tau_es})'
    input: [Tau_pt]
    output: [tau_pt]
    scopes: [mt]
parameters:
  - scopes: [mt]
    values:
      tau_es:
        by_sample:
          data: 1.0
        default: 0.98
shifts:
  - name: tauEsUp
    exclude_samples: [data]
    scopes:
      mt:
        parameters:
          tau_es: 1.02
        quantity_changes:
          Tau_pt: Tau_pt_up
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func newConfiguration() *configuration.Configuration {
	return configuration.New(configuration.Options{Scopes: []string{"mt", "et"}}, testutil.Logger())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "module: b\n")
	writeFile(t, dir, "nested/a.yml", "module: a\n")
	writeFile(t, dir, "a.yaml", "module: a\n")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := Discover(dir, filepath.Join(dir, "missing"), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "a.yml"),
	}, files)
}

func TestParse_ConditionalValues(t *testing.T) {
	f, err := Parse([]byte(`module: m
parameters:
  - scopes: [mt]
    values:
      plain: 3
      list: [a, b]
      table: {x: 1}
      era:
        by_era:
          "2016preVFP, 2016postVFP": low
          ? [2017, 2018]
          : high
      sample:
        by_sample:
          data: false
        default: true
      nested:
        by_era:
          "2018":
            by_sample:
              data: d
            default: mc
`), "params.yaml")
	require.NoError(t, err)
	require.Len(t, f.Parameters, 1)

	values := f.Parameters[0].Values
	assert.Equal(t, 3, values["plain"])
	assert.Equal(t, []any{"a", "b"}, values["list"])
	assert.Equal(t, map[string]any{"x": 1}, values["table"])
	assert.Equal(t, 3, f.Parameters[0].Line)

	era, ok := values["era"].(models.Binding)
	require.True(t, ok)
	assert.Equal(t, models.BindingByEra, era.Kind())
	assert.Equal(t, []string{"2016postVFP", "2016preVFP", "2017", "2018"}, era.Keys())

	tests := []struct {
		name     string
		key      string
		era      string
		sample   string
		expected any
	}{
		{name: "composite string key", key: "era", era: "2016postVFP", sample: "mc", expected: "low"},
		{name: "sequence key", key: "era", era: "2017", sample: "mc", expected: "high"},
		{name: "sample match", key: "sample", era: "2018", sample: "data", expected: false},
		{name: "sample default", key: "sample", era: "2018", sample: "dy", expected: true},
		{name: "nested conditional", key: "nested", era: "2018", sample: "data", expected: "d"},
		{name: "nested default", key: "nested", era: "2018", sample: "dy", expected: "mc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.ResolveValue(values[tt.key], tt.era, tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedError error
	}{
		{
			name:          "module required",
			content:       "producers: []\n",
			expectedError: ErrModuleRequired,
		},
		{
			name:          "both axes",
			content:       "module: m\nparameters:\n  - values:\n      k: {by_era: {\"2018\": 1}, by_sample: {data: 2}}\n",
			expectedError: ErrInvalidConditional,
		},
		{
			name:          "unexpected key beside axis",
			content:       "module: m\nparameters:\n  - values:\n      k: {by_era: {\"2018\": 1}, fallback: 2}\n",
			expectedError: ErrInvalidConditional,
		},
		{
			name:          "axis table must be a mapping",
			content:       "module: m\nparameters:\n  - values:\n      k: {by_era: [2018]}\n",
			expectedError: ErrInvalidConditional,
		},
		{
			name:          "values must be a mapping",
			content:       "module: m\nparameters:\n  - values: [1, 2]\n",
			expectedError: ErrInvalidValues,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "broken.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestLoader_LoadInto(t *testing.T) {
	dir := t.TempDir()
	muons := writeFile(t, dir, "muons.yaml", muonsYAML)
	writeFile(t, dir, "taus/taus.yaml", tausYAML)

	c := newConfiguration()
	require.NoError(t, New(testutil.Logger(), dir).LoadInto(c))

	def, err := c.Freeze()
	require.NoError(t, err)

	assert.True(t, def.IsExternal("Tau_pt_up"))
	assert.Equal(t, []string{"tauEsUp"}, def.ShiftNames())

	_, err = def.ResolveParameter("et", "min_pt", "2019", "dy", nil)
	require.NoError(t, err)

	res, err := resolver.New(def, resolver.Target{Era: "2018", Sample: "dy", Scopes: []string{"mt"}},
		resolver.Options{}, testutil.Logger())
	require.NoError(t, err)
	require.NoError(t, res.Validate(context.Background()))

	plan, err := res.Expand()
	require.NoError(t, err)

	nominal, ok := plan.Lookup("mt", models.Nominal)
	require.True(t, ok)

	producers := make([]string, 0, len(nominal.Steps))
	for _, s := range nominal.Steps {
		producers = append(producers, s.Producer)
	}
	assert.Equal(t, []string{"muons.MuonPtCut", "muons.MuonEtaCut", "muons.GoodMuons", "taus.TauPt"}, producers)
	assert.Equal(t, `CutPt({df}, {input}, "{output}", 23.5)`, nominal.Steps[0].Call)
	assert.Equal(t, `Rename({df}, "{output}", {input}, 0.98)`, nominal.Steps[3].Call)
	assert.Equal(t, []string{"muon_pt_mask", "muon_eta_mask"}, nominal.Steps[2].Inputs)

	shifted, ok := plan.Lookup("mt", "tauEsUp")
	require.True(t, ok)
	require.Len(t, shifted.Steps, 4)
	assert.Equal(t, `Rename({df}, "{output}", {input}, 1.02)`, shifted.Steps[3].Call)
	assert.Equal(t, []string{"Tau_pt_up"}, shifted.Steps[3].Inputs)

	t.Run("parameter source names the file", func(t *testing.T) {
		_, err := def.ResolveParameter("mt", "tau_es", "2018", "dy", nil)
		require.NoError(t, err)

		broken := configuration.New(configuration.Options{Scopes: []string{"mt"}}, testutil.Logger())
		f, err := Parse([]byte("module: m\nparameters:\n  - scopes: [mt]\n    values:\n      k: {by_era: {\"2018\": 1}}\n"), muons)
		require.NoError(t, err)
		require.NoError(t, Apply(broken, f))

		brokenDef, err := broken.Freeze()
		require.NoError(t, err)

		_, err = brokenDef.ResolveParameter("mt", "k", "2017", "dy", nil)
		require.ErrorIs(t, err, models.ErrUnresolvedParameter)
		assert.Contains(t, err.Error(), muons+":3")
	})
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedError error
		errorContains string
	}{
		{
			name:          "unknown reference",
			files:         []string{"module: m\nproducers_by_scope:\n  - scopes: [mt]\n    producers: [Missing]\n"},
			expectedError: ErrUnknownProducer,
			errorContains: "m.Missing",
		},
		{
			name: "duplicate producer across files",
			files: []string{
				"module: m\nproducers:\n  - {name: A, call: 'a()', scopes: [mt]}\n",
				"module: m\nproducers:\n  - {name: A, call: 'b()', scopes: [mt]}\n",
			},
			expectedError: ErrDuplicateProducer,
			errorContains: "m.A",
		},
		{
			name: "group containing itself",
			files: []string{
				"module: m\nproducers:\n  - {name: G, scopes: [mt], subproducers: [H]}\n  - {name: H, scopes: [mt], subproducers: [G]}\n",
			},
			expectedError: ErrGroupCycle,
		},
		{
			name: "delta with two operations",
			files: []string{
				"module: m\nproducers:\n  - {name: A, call: 'a()', scopes: [mt]}\nrules:\n  - scopes: [mt]\n    deltas:\n      - {append: A, remove: A}\n",
			},
			expectedError: ErrInvalidDeltaDecl,
		},
		{
			name: "replace without replacement",
			files: []string{
				"module: m\nproducers:\n  - {name: A, call: 'a()', scopes: [mt]}\nshifts:\n  - name: s\n    scopes:\n      mt:\n        deltas:\n          - {replace: A}\n",
			},
			expectedError: ErrInvalidDeltaDecl,
			errorContains: "shift s",
		},
		{
			name:          "invalid producer declaration",
			files:         []string{"module: m\nproducers:\n  - {name: A, scopes: [mt]}\n"},
			expectedError: models.ErrCallRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make([]*File, 0, len(tt.files))
			for i, content := range tt.files {
				f, err := Parse([]byte(content), filepath.Join("decl", string(rune('a'+i))+".yaml"))
				require.NoError(t, err)
				files = append(files, f)
			}

			err := Apply(newConfiguration(), files...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedError)
			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			}
		})
	}
}

func TestApply_ModificationRulesAndCrossModuleRefs(t *testing.T) {
	a, err := Parse([]byte(`module: jets
external: [Jet_pt]
producers:
  - {name: JetPt, call: 'JetPt({df}, "{output}", {input})', input: [Jet_pt], output: [jet_pt], scopes: [mt]}
  - {name: GenMatch, call: 'GenMatch({df}, "{output}")', output: [gen_match], scopes: [mt]}
producers_by_scope:
  - scopes: [mt]
    producers: [JetPt, GenMatch]
rules:
  - scopes: [mt]
    samples: [data]
    deltas:
      - remove: GenMatch
`), "jets.yaml")
	require.NoError(t, err)

	c := newConfiguration()
	require.NoError(t, Apply(c, a))

	def, err := c.Freeze()
	require.NoError(t, err)

	for _, tt := range []struct {
		sample   string
		expected int
	}{
		{sample: "data", expected: 1},
		{sample: "dy", expected: 2},
	} {
		t.Run(tt.sample, func(t *testing.T) {
			res, err := resolver.New(def, resolver.Target{Era: "2018", Sample: tt.sample, Scopes: []string{"mt"}},
				resolver.Options{}, testutil.Logger())
			require.NoError(t, err)
			require.NoError(t, res.Validate(context.Background()))

			plan, err := res.Expand()
			require.NoError(t, err)

			nominal, ok := plan.Lookup("mt", models.Nominal)
			require.True(t, ok)
			assert.Len(t, nominal.Steps, tt.expected)
		})
	}
}
