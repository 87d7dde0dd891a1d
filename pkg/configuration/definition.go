package configuration

import (
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/parameters"
)

// Definition is a frozen configuration. It is read-only and may be resolved
// concurrently and repeatedly for different eras and samples.
type Definition struct {
	scopes      []string
	globalScope string
	external    models.QuantitySet
	params      *parameters.Store
	producers   map[string][]models.Node
	rules       map[string][]models.Rule
	outputs     map[string][]models.Quantity
	shifts      map[string]*models.Shift
	shiftNames  []string
}

// Scopes returns every declared scope, the global scope first when configured
func (d *Definition) Scopes() []string {
	return append([]string(nil), d.scopes...)
}

// GlobalScope returns the global scope name, or "" when none is configured
func (d *Definition) GlobalScope() string {
	return d.globalScope
}

// HasScope reports whether scope is declared
func (d *Definition) HasScope(scope string) bool {
	for _, s := range d.scopes {
		if s == scope {
			return true
		}
	}

	return false
}

// IsExternal reports whether q is available without a producer
func (d *Definition) IsExternal(q models.Quantity) bool {
	return d.external.Has(q)
}

// ExternalInputs returns the external quantities ordered by name
func (d *Definition) ExternalInputs() []models.Quantity {
	return d.external.Sorted()
}

// Producers returns the base producer list of scope
func (d *Definition) Producers(scope string) []models.Node {
	return append([]models.Node(nil), d.producers[scope]...)
}

// Rules returns the modification rules of scope in declaration order
func (d *Definition) Rules(scope string) []models.Rule {
	return append([]models.Rule(nil), d.rules[scope]...)
}

// Outputs returns the requested outputs of scope
func (d *Definition) Outputs(scope string) []models.Quantity {
	return append([]models.Quantity(nil), d.outputs[scope]...)
}

// ShiftNames returns the registered shift names in sorted order
func (d *Definition) ShiftNames() []string {
	return append([]string(nil), d.shiftNames...)
}

// Shift returns a copy of the named shift; names match case-insensitively
func (d *Definition) Shift(name string) (*models.Shift, bool) {
	shift, ok := d.shifts[strings.ToLower(name)]
	if !ok {
		return nil, false
	}

	return shift.Clone(), true
}

// ParameterKeys returns the keys bound in scope
func (d *Definition) ParameterKeys(scope string) []string {
	return d.params.Keys(scope)
}

// Parameter returns the stored binding of key in scope
func (d *Definition) Parameter(scope, key string) (parameters.Parameter, bool) {
	return d.params.Get(scope, key)
}

// ResolveParameter resolves key in scope for era and sample, with overrides taking precedence
func (d *Definition) ResolveParameter(scope, key, era, sample string, overrides map[string]any) (any, error) {
	return d.params.ResolveWith(scope, key, era, sample, overrides)
}
