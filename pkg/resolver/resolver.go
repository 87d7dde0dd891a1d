// Package resolver resolves a frozen configuration for one era and sample into a validated,
// deduplicated plan with one ordered producer list per (scope, shift) variant
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/ethpandaops/shiftgraph/pkg/configuration"
	"github.com/ethpandaops/shiftgraph/pkg/dependencies"
	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/observability"
	"github.com/ethpandaops/shiftgraph/pkg/validation"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	// AllShifts selects every declared shift
	AllShifts = "all"
	// NoShifts selects only the nominal variant
	NoShifts = "none"
)

// Target selects what to resolve
type Target struct {
	Era    string
	Sample string
	// Scopes to resolve; empty means every scope. The global scope is always resolved.
	Scopes []string
	// Shifts is an allowlist of shift names matched case-insensitively, or AllShifts or
	// NoShifts. Empty means AllShifts.
	Shifts []string
}

// Options tunes a resolution
type Options struct {
	// Workers bounds the number of variants resolved concurrently
	Workers int `yaml:"workers" default:"4"`
	// Validator replaces the default variant validator
	Validator validation.Validator `yaml:"-"`
}

// Resolution resolves a Definition for one era and sample. The Definition is only read, so
// any number of resolutions may share it.
type Resolution struct {
	log    logrus.FieldLogger
	def    *configuration.Definition
	target Target
	opts   Options

	validator validation.Validator
	scopes    []string
	shifts    map[string]*models.Shift
	keys      []variantKey
	warnings  []error

	mutex     sync.RWMutex
	states    map[variantKey]*variantState
	validated bool
	optimized bool
}

// New prepares a resolution of def for target
func New(def *configuration.Definition, target Target, opts Options, log logrus.FieldLogger) (*Resolution, error) {
	if target.Era == "" || target.Sample == "" {
		return nil, ErrTargetIncomplete
	}

	if err := defaults.Set(&opts); err != nil {
		return nil, fmt.Errorf("failed to set resolver defaults: %w", err)
	}

	r := &Resolution{
		log: log.WithFields(logrus.Fields{
			"component": "resolver",
			"era":       target.Era,
			"sample":    target.Sample,
		}),
		def:       def,
		target:    target,
		opts:      opts,
		validator: opts.Validator,
		shifts:    make(map[string]*models.Shift),
		states:    make(map[variantKey]*variantState),
	}

	if r.validator == nil {
		r.validator = validation.NewValidator(log)
	}

	scopes, err := r.selectScopes(target.Scopes)
	if err != nil {
		return nil, err
	}
	r.scopes = scopes

	shiftNames := r.selectShifts(target.Shifts)
	for _, name := range shiftNames {
		shift, _ := def.Shift(name)
		r.shifts[shift.Name] = shift
	}

	for _, scope := range r.scopes {
		r.keys = append(r.keys, variantKey{scope: scope, shift: models.Nominal})
		for _, name := range shiftNames {
			r.keys = append(r.keys, variantKey{scope: scope, shift: name})
		}
	}

	return r, nil
}

// selectScopes returns the requested scopes in declaration order with the global scope first
func (r *Resolution) selectScopes(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return r.def.Scopes(), nil
	}

	var errs error
	for _, scope := range requested {
		if !r.def.HasScope(scope) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s", configuration.ErrUnknownScope, scope))
		}
	}
	if errs != nil {
		return nil, errs
	}

	global := r.def.GlobalScope()

	return lo.Filter(r.def.Scopes(), func(scope string, _ int) bool {
		return scope == global || lo.Contains(requested, scope)
	}), nil
}

// selectShifts resolves the allowlist into declared shift names, sorted. Unknown names are
// recorded as warnings.
func (r *Resolution) selectShifts(allowlist []string) []string {
	if len(allowlist) == 0 {
		return r.def.ShiftNames()
	}

	var names []string
	for _, entry := range allowlist {
		switch strings.ToLower(strings.TrimSpace(entry)) {
		case AllShifts:
			return r.def.ShiftNames()
		case NoShifts, "":
			continue
		}

		shift, ok := r.def.Shift(entry)
		if !ok {
			r.warnings = append(r.warnings, fmt.Errorf("%w: %s", ErrUnknownShift, entry))
			continue
		}

		names = append(names, shift.Name)
	}

	names = lo.Uniq(names)

	return lo.Filter(r.def.ShiftNames(), func(name string, _ int) bool { return lo.Contains(names, name) })
}

// Validate resolves every selected (scope, shift) variant, the nominal variant included,
// and returns every error found across all of them. Variants of the global scope are
// resolved first because every other scope reads their outputs.
func (r *Resolution) Validate(ctx context.Context) error {
	start := time.Now()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.validated = false
	r.optimized = false
	r.states = make(map[variantKey]*variantState, len(r.keys))

	global := r.def.GlobalScope()
	globalKeys := lo.Filter(r.keys, func(k variantKey, _ int) bool { return k.scope == global })
	scopeKeys := lo.Filter(r.keys, func(k variantKey, _ int) bool { return k.scope != global })

	if err := r.resolvePhase(ctx, globalKeys); err != nil {
		return err
	}

	if err := r.resolvePhase(ctx, scopeKeys); err != nil {
		return err
	}

	var errs []error
	valid := 0
	for _, key := range r.keys {
		state := r.states[key]
		if len(state.errs) == 0 {
			valid++
		}

		for _, err := range state.errs {
			observability.RecordValidationError(validation.Kind(err))
		}
		errs = append(errs, state.errs...)
	}

	for _, w := range r.collectWarnings() {
		observability.RecordWarning(validation.Kind(w))
		r.log.WithError(w).Warn("Fallback applied")
	}

	observability.RecordResolution(time.Since(start).Seconds())

	r.log.WithFields(logrus.Fields{
		"variants": len(r.keys),
		"valid":    valid,
		"errors":   len(errs),
		"duration": time.Since(start),
	}).Info("Validated configuration")

	if len(errs) > 0 {
		return multierr.Combine(errs...)
	}

	r.validated = true

	return nil
}

// resolvePhase resolves keys concurrently. Each goroutine writes only its own result slot;
// variant failures are stored on the state so one failure never cancels the others.
func (r *Resolution) resolvePhase(ctx context.Context, keys []variantKey) error {
	results := make([]*variantState, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, key := range keys {
		up := r.upstreamFor(key)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = r.resolveVariant(key, up)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("resolution aborted: %w", err)
	}

	for i, key := range keys {
		r.states[key] = results[i]
	}

	return nil
}

// upstreamFor returns the global scope variant of the same shift, if there is one
func (r *Resolution) upstreamFor(key variantKey) upstream {
	global := r.def.GlobalScope()
	if global == "" || key.scope == global {
		return upstream{}
	}

	state, ok := r.states[variantKey{scope: global, shift: key.shift}]
	if !ok {
		return upstream{}
	}

	return upstream{
		scope:       global,
		failed:      len(state.errs) > 0,
		produced:    state.produced,
		fingerprint: state.fingerprint,
	}
}

// Warnings returns the non-fatal fallbacks of the last Validate: unknown shift names and
// remove or replace deltas whose target was absent
func (r *Resolution) Warnings() []error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.collectWarnings()
}

func (r *Resolution) collectWarnings() []error {
	all := append([]error(nil), r.warnings...)
	for _, key := range r.keys {
		if state, ok := r.states[key]; ok {
			all = append(all, state.warnings...)
		}
	}

	return lo.UniqBy(all, func(err error) string { return err.Error() })
}

// Graph returns the dependency graph of a resolved variant
func (r *Resolution) Graph(scope, shift string) (*dependencies.DependencyGraph, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	state, err := r.lookup(scope, shift)
	if err != nil {
		return nil, err
	}

	if state.graph == nil {
		return nil, fmt.Errorf("%w: %s/%s has not been resolved", ErrUnknownVariant, scope, shift)
	}

	return state.graph, nil
}

func (r *Resolution) lookup(scope, shift string) (*variantState, error) {
	if !strings.EqualFold(shift, models.Nominal) {
		if s, ok := r.def.Shift(shift); ok {
			shift = s.Name
		}
	} else {
		shift = models.Nominal
	}

	state, ok := r.states[variantKey{scope: scope, shift: shift}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownVariant, scope, shift)
	}

	return state, nil
}

// Expand returns the plan: every variant in scope order, nominal first and shifts by name,
// with parameters bound and calls rendered. It fails unless Validate passed.
func (r *Resolution) Expand() (*Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.validated {
		return nil, ErrNotValidated
	}

	plan := &Plan{
		Era:      r.target.Era,
		Sample:   r.target.Sample,
		Variants: make([]Variant, 0, len(r.keys)),
	}

	for _, key := range r.keys {
		state := r.states[key]

		v := Variant{
			Scope:       key.scope,
			Shift:       key.shift,
			ExecutionID: state.fingerprint,
			AliasOf:     state.aliasOf,
			Excluded:    state.excluded,
		}

		if state.aliasOf == "" {
			v.Steps = make([]Step, 0, len(state.steps))
			for _, s := range state.steps {
				v.Steps = append(v.Steps, s.clone())
			}
		}

		plan.Variants = append(plan.Variants, v)
	}

	return plan, nil
}
