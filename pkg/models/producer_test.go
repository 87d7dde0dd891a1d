package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	tests := []struct {
		name          string
		config        ProducerConfig
		expectedError error
		validate      func(t *testing.T, p *Producer)
	}{
		{
			name: "params derived from call template",
			config: ProducerConfig{
				Module: "muons",
				Name:   "GoodMuons",
				Call:   `object_selection::muon({df}, {output}, {input}, "{tight_muon_id}", {tight_muon_min_pt}, {tight_muon_min_pt})`,
				Input:  Quantities("Muon_pt", "Muon_eta"),
				Output: Quantities("good_muons_mask"),
				Scopes: []string{"mt", "mm"},
			},
			validate: func(t *testing.T, p *Producer) {
				assert.Equal(t, "muons.GoodMuons", p.ID())
				assert.Equal(t, []string{"tight_muon_id", "tight_muon_min_pt"}, p.Params())
				assert.True(t, p.AppliesTo("mm"))
				assert.False(t, p.AppliesTo("tt"))
			},
		},
		{
			name: "explicit params win",
			config: ProducerConfig{
				Name:   "Count",
				Call:   "Count({df}, {output}, {input})",
				Scopes: []string{"mt"},
				Params: []string{"extra"},
			},
			validate: func(t *testing.T, p *Producer) {
				assert.Equal(t, "Count", p.ID())
				assert.Equal(t, []string{"extra"}, p.Params())
			},
		},
		{
			name:          "missing name",
			config:        ProducerConfig{Call: "x", Scopes: []string{"mt"}},
			expectedError: ErrProducerNameRequired,
		},
		{
			name:          "missing scopes",
			config:        ProducerConfig{Name: "x", Call: "x"},
			expectedError: ErrScopesRequired,
		},
		{
			name:          "missing call",
			config:        ProducerConfig{Name: "x", Scopes: []string{"mt"}},
			expectedError: ErrCallRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.config)
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			tt.validate(t, p)
		})
	}
}

func TestProducer_IsImmutable(t *testing.T) {
	input := Quantities("a")
	p := MustProducer(ProducerConfig{Name: "P", Call: "p()", Input: input, Scopes: []string{"mt"}})

	input[0] = "changed"
	got := p.Input()
	got[0] = "changed again"

	assert.Equal(t, Quantities("a"), p.Input())
}

func TestGroup_FlattenAndDerivedQuantities(t *testing.T) {
	a := leaf("A", []string{"raw"}, []string{"x"})
	b := leaf("B", []string{"x", "other"}, []string{"y"})
	c := leaf("C", []string{"raw"}, []string{"z"})

	inner := MustGroup(GroupConfig{Module: "test", Name: "Inner", Scopes: []string{"mt", "et"}, Subproducers: []Node{b}})
	outer := MustGroup(GroupConfig{
		Module:       "test",
		Name:         "Outer",
		Scopes:       []string{"mt", "et"},
		Subproducers: []Node{a, inner},
		ScopedSubproducers: map[string][]Node{
			"et": {c},
		},
	})

	flat := outer.Flatten("mt")
	require.Len(t, flat, 2)
	assert.Equal(t, "test.A", flat[0].ID())
	assert.Equal(t, "test.B", flat[1].ID())

	assert.Equal(t, Quantities("x", "y"), outer.Outputs("mt"))
	assert.Equal(t, Quantities("raw", "other"), outer.Inputs("mt"))

	etFlat := outer.Flatten("et")
	require.Len(t, etFlat, 1)
	assert.Equal(t, "test.C", etFlat[0].ID())

	assert.Empty(t, outer.Flatten("tt"))
}

func TestGroup_Combiner(t *testing.T) {
	e := leaf("DiElectronVeto", []string{"electrons"}, []string{"dielectron_veto"})
	m := leaf("DiMuonVeto", []string{"muons"}, []string{"dimuon_veto"})

	g := MustGroup(GroupConfig{
		Module:       "event",
		Name:         "DiLeptonVeto",
		Call:         `CombineFlags({df}, {output}, {input}, "{mode}")`,
		Output:       Quantities("dilepton_veto"),
		Scopes:       []string{"mt"},
		Subproducers: []Node{e, m},
	})

	flat := g.Flatten("mt")
	require.Len(t, flat, 3)
	combiner := flat[2]
	assert.Equal(t, "event.DiLeptonVeto", combiner.ID())
	assert.Equal(t, Quantities("dielectron_veto", "dimuon_veto"), combiner.Input())
	assert.Equal(t, Quantities("dilepton_veto"), combiner.Output())
	assert.Equal(t, []string{"mode"}, combiner.Params())

	assert.Equal(t, Quantities("dielectron_veto", "dimuon_veto", "dilepton_veto"), g.Outputs("mt"))
	assert.Equal(t, Quantities("electrons", "muons"), g.Inputs("mt"))
}

func TestNewGroup_Errors(t *testing.T) {
	_, err := NewGroup(GroupConfig{Name: "G", Scopes: []string{"mt"}})
	require.ErrorIs(t, err, ErrEmptyGroup)

	_, err = NewGroup(GroupConfig{Name: "G", Subproducers: []Node{leaf("A", nil, nil)}})
	require.ErrorIs(t, err, ErrScopesRequired)
}

func TestCallParameters_Placeholders(t *testing.T) {
	call := `f({df}, {output}, {input}, {output_vec}, "{b}", {a}, {a}, {not-a-key})`
	assert.Equal(t, []string{"a", "b"}, CallParameters(call))
}

func TestProducer_RenameInputs(t *testing.T) {
	p := MustProducer(ProducerConfig{
		Module: "met",
		Name:   "PropagateJets",
		Call:   "propagate({df}, {output}, {input})",
		Input:  Quantities("met_p4", "Jet_pt"),
		Output: Quantities("met_p4_jetcorrected"),
		Scopes: []string{"mt"},
	})

	renamed := p.RenameInputs(map[Quantity]Quantity{"Jet_pt": "Jet_pt_jesUp"})
	assert.Equal(t, p.ID(), renamed.ID())
	assert.Equal(t, Quantities("met_p4", "Jet_pt_jesUp"), renamed.Input())
	assert.Equal(t, Quantities("met_p4", "Jet_pt"), p.Input())

	assert.Same(t, p, p.RenameInputs(map[Quantity]Quantity{"Tau_pt": "Tau_pt_up"}))
}
