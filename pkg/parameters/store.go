// Package parameters holds per-scope parameter bindings and resolves them for an era and sample
package parameters

import (
	"fmt"
	"sort"

	"github.com/ethpandaops/shiftgraph/pkg/models"
)

// Parameter is a stored binding together with where it was declared
type Parameter struct {
	Key    string
	Value  any
	Source string
}

// Store maps scope -> key -> parameter
type Store struct {
	scopes map[string]map[string]Parameter
}

// NewStore creates an empty parameter store
func NewStore() *Store {
	return &Store{scopes: make(map[string]map[string]Parameter)}
}

// Set binds key in scope, replacing any earlier binding. The replaced parameter is returned.
func (s *Store) Set(scope, key string, value any, source string) (Parameter, bool) {
	params, ok := s.scopes[scope]
	if !ok {
		params = make(map[string]Parameter)
		s.scopes[scope] = params
	}

	previous, replaced := params[key]
	params[key] = Parameter{Key: key, Value: value, Source: source}

	return previous, replaced
}

// Get returns the binding for key in scope
func (s *Store) Get(scope, key string) (Parameter, bool) {
	p, ok := s.scopes[scope][key]
	return p, ok
}

// Keys returns the bound keys of scope in sorted order
func (s *Store) Keys(scope string) []string {
	keys := make([]string, 0, len(s.scopes[scope]))
	for key := range s.scopes[scope] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Clone returns an independent copy of the store
func (s *Store) Clone() *Store {
	out := NewStore()
	for scope, params := range s.scopes {
		copied := make(map[string]Parameter, len(params))
		for key, p := range params {
			copied[key] = p
		}
		out.scopes[scope] = copied
	}

	return out
}

// Resolve returns the value of key in scope for era and sample
func (s *Store) Resolve(scope, key, era, sample string) (any, error) {
	return s.ResolveWith(scope, key, era, sample, nil)
}

// ResolveWith resolves key like Resolve, except that a key present in overrides takes
// the override's value instead. The override replaces the resolved base value; it never
// patches a conditional base mapping.
func (s *Store) ResolveWith(scope, key, era, sample string, overrides map[string]any) (any, error) {
	if override, ok := overrides[key]; ok {
		value, err := models.ResolveValue(override, era, sample)
		if err != nil {
			return nil, fmt.Errorf("shift override %q in scope %s: %w", key, scope, err)
		}
		return value, nil
	}

	p, ok := s.Get(scope, key)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not set in scope %s", models.ErrUnresolvedParameter, key, scope)
	}

	value, err := models.ResolveValue(p.Value, era, sample)
	if err != nil {
		return nil, fmt.Errorf("parameter %q in scope %s (set at %s): %w", key, scope, p.Source, err)
	}

	return value, nil
}
