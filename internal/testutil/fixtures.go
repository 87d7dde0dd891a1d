package testutil

import (
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/models"
)

// TestProducerConfig holds configuration for creating test producers.
type TestProducerConfig struct {
	Module string
	Call   string
	Input  []string
	Output []string
	Scopes []string
	Params []string
}

// TestProducerOption is a functional option for customizing test producers.
type TestProducerOption func(*TestProducerConfig)

// WithInputs sets the input quantities.
func WithInputs(names ...string) TestProducerOption {
	return func(cfg *TestProducerConfig) {
		cfg.Input = names
	}
}

// WithOutputs sets the output quantities.
func WithOutputs(names ...string) TestProducerOption {
	return func(cfg *TestProducerConfig) {
		cfg.Output = names
	}
}

// WithScopes sets the applicable scopes.
func WithScopes(scopes ...string) TestProducerOption {
	return func(cfg *TestProducerConfig) {
		cfg.Scopes = scopes
	}
}

// WithParams appends `{key}` placeholders for each key to the default call.
func WithParams(keys ...string) TestProducerOption {
	return func(cfg *TestProducerConfig) {
		cfg.Params = keys
	}
}

// NewTestProducer creates a producer in module "test" applying to scopes mt, et and tt.
// The default call is `name({df}, {output}, {input}, {param}...)`.
func NewTestProducer(name string, opts ...TestProducerOption) *models.Producer {
	cfg := &TestProducerConfig{
		Module: "test",
		Scopes: []string{"mt", "et", "tt"},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Call == "" {
		args := []string{"{df}", "{output}", "{input}"}
		for _, key := range cfg.Params {
			args = append(args, "{"+key+"}")
		}
		cfg.Call = name + "(" + strings.Join(args, ", ") + ")"
	}

	return models.MustProducer(models.ProducerConfig{
		Module: cfg.Module,
		Name:   name,
		Call:   cfg.Call,
		Input:  models.Quantities(cfg.Input...),
		Output: models.Quantities(cfg.Output...),
		Scopes: cfg.Scopes,
	})
}

// IDs returns the IDs of producers in order.
func IDs(producers []*models.Producer) []string {
	ids := make([]string, 0, len(producers))
	for _, p := range producers {
		ids = append(ids, p.ID())
	}

	return ids
}
