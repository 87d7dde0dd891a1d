package producerid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "muons.GoodMuons", Format("muons", "GoodMuons"))
	assert.Equal(t, "GoodMuons", Format("", "GoodMuons"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantModule string
		wantName   string
		wantErr    bool
	}{
		{name: "valid", id: "taus.TauEnergyCorrection", wantModule: "taus", wantName: "TauEnergyCorrection"},
		{name: "bare name", id: "TauEnergyCorrection", wantErr: true},
		{name: "too many parts", id: "a.b.c", wantErr: true},
		{name: "empty module", id: ".name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			module, name, err := Parse(tt.id)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidProducerID)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantModule, module)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "jets.GoodJets", Qualify("jets", "GoodJets"))
	assert.Equal(t, "event.PUweights", Qualify("jets", "event.PUweights"))
}
