package validation

import "github.com/ethpandaops/shiftgraph/pkg/models"

// ParameterFunc resolves a parameter key for the variant being validated
type ParameterFunc func(key string) (any, error)

// Variant is an ordered producer list ready for the Validated state
type Variant struct {
	Scope string
	Shift string
	// Producers in execution order
	Producers []*models.Producer
	// Available holds quantities that need no producer: external inputs and, outside the
	// global scope, the outputs of the global scope
	Available models.QuantitySet
	// Requested lists quantities that must be available once every producer ran
	Requested []models.Quantity
	// Parameters resolves keys with shift overrides applied
	Parameters ParameterFunc
}

// Result contains the result of validating one variant
type Result struct {
	// Bindings maps producer ID to its bound parameter values
	Bindings map[string]map[string]any
	// Produced holds every quantity defined by the variant's producers
	Produced models.QuantitySet
	// Errors found, each wrapped in a *VariantError
	Errors []error
}

// Valid reports whether no error was found
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}
