package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Nominal is the name of the implicit un-shifted variant
const Nominal = "nominal"

// ShiftScope holds what a shift changes in one scope
type ShiftScope struct {
	// Parameters replace base parameter values; values may be Bindings
	Parameters map[string]any
	// Deltas edit the scope's producer list
	Deltas []Delta
	// QuantityChanges rewrites producer inputs, e.g. to read a shifted raw column
	QuantityChanges map[Quantity]Quantity
	// ExcludedSamples disables the shift for this scope only
	ExcludedSamples []string
}

// Shift is a named systematic variation of the nominal graph
type Shift struct {
	Name            string
	Scopes          map[string]ShiftScope
	ExcludedSamples []string
}

// Validate checks the shift declaration
func (s *Shift) Validate() error {
	if s.Name == "" {
		return ErrShiftNameRequired
	}

	if strings.EqualFold(s.Name, Nominal) {
		return fmt.Errorf("%w: %s", ErrReservedShiftName, s.Name)
	}

	for _, scope := range s.ScopeNames() {
		for _, d := range s.Scopes[scope].Deltas {
			if err := d.Validate(); err != nil {
				return fmt.Errorf("shift %s scope %s: %w", s.Name, scope, err)
			}
		}
	}

	return nil
}

// ScopeNames returns the scopes the shift touches in sorted order
func (s *Shift) ScopeNames() []string {
	names := lo.Keys(s.Scopes)
	sort.Strings(names)

	return names
}

// For returns the shift's changes for scope
func (s *Shift) For(scope string) (ShiftScope, bool) {
	sc, ok := s.Scopes[scope]
	return sc, ok
}

// ExcludedFor reports whether the shift is disabled for sample in scope
func (s *Shift) ExcludedFor(scope, sample string) bool {
	if lo.Contains(s.ExcludedSamples, sample) {
		return true
	}

	sc, ok := s.Scopes[scope]

	return ok && lo.Contains(sc.ExcludedSamples, sample)
}

// Clone returns a deep copy of the shift's containers
func (s *Shift) Clone() *Shift {
	out := &Shift{
		Name:            s.Name,
		Scopes:          make(map[string]ShiftScope, len(s.Scopes)),
		ExcludedSamples: append([]string(nil), s.ExcludedSamples...),
	}

	for scope, sc := range s.Scopes {
		out.Scopes[scope] = sc.clone()
	}

	return out
}

func (sc ShiftScope) clone() ShiftScope {
	out := ShiftScope{
		Parameters:      make(map[string]any, len(sc.Parameters)),
		Deltas:          append([]Delta(nil), sc.Deltas...),
		QuantityChanges: make(map[Quantity]Quantity, len(sc.QuantityChanges)),
		ExcludedSamples: append([]string(nil), sc.ExcludedSamples...),
	}

	for k, v := range sc.Parameters {
		out.Parameters[k] = v
	}

	for k, v := range sc.QuantityChanges {
		out.QuantityChanges[k] = v
	}

	return out
}

// Merge combines two declarations of the same shift that target disjoint scopes.
// Shift-level sample exclusions are pushed down into each declaration's scopes so they
// keep applying only where they were declared.
func (s *Shift) Merge(other *Shift) (*Shift, error) {
	overlap := lo.Intersect(s.ScopeNames(), other.ScopeNames())
	if len(overlap) > 0 {
		return nil, fmt.Errorf("%w: %s redeclared for scopes %s", ErrDuplicateShiftName, s.Name, strings.Join(overlap, ","))
	}

	merged := &Shift{Name: s.Name, Scopes: make(map[string]ShiftScope, len(s.Scopes)+len(other.Scopes))}

	for _, src := range []*Shift{s, other} {
		for scope, sc := range src.Scopes {
			sc = sc.clone()
			sc.ExcludedSamples = lo.Uniq(append(sc.ExcludedSamples, src.ExcludedSamples...))
			merged.Scopes[scope] = sc
		}
	}

	return merged, nil
}

// Rule is a sample-conditional edit of a scope's base producer list. Rules apply
// before shifts and therefore affect the nominal graph and every shift.
type Rule struct {
	Deltas []Delta
	// Samples restricts the rule to these samples when non-empty
	Samples []string
	// ExcludeSamples disables the rule for these samples
	ExcludeSamples []string
}

// AppliesTo reports whether the rule is active for sample
func (r Rule) AppliesTo(sample string) bool {
	if len(r.Samples) > 0 && !lo.Contains(r.Samples, sample) {
		return false
	}

	return !lo.Contains(r.ExcludeSamples, sample)
}

// Validate checks every delta of the rule
func (r Rule) Validate() error {
	for _, d := range r.Deltas {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	return nil
}
