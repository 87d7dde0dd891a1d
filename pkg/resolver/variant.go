package resolver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethpandaops/shiftgraph/pkg/dependencies"
	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/observability"
	"github.com/ethpandaops/shiftgraph/pkg/rendering"
	"github.com/ethpandaops/shiftgraph/pkg/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//nolint:gochecknoglobals // Fixed namespace for execution fingerprints
var executionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ethpandaops/shiftgraph/execution"))

// variantKey identifies a variant within a resolution
type variantKey struct {
	scope string
	shift string
}

// variantState is the transient resolved form of one (scope, shift) pair
type variantState struct {
	key      variantKey
	excluded bool
	graph    *dependencies.DependencyGraph
	steps    []Step
	produced models.QuantitySet

	fingerprint string
	aliasOf     string

	errs     []error
	warnings []error
}

// upstream carries what a scope variant sees from the global scope for the same shift
type upstream struct {
	scope       string
	failed      bool
	produced    models.QuantitySet
	fingerprint string
}

// resolveVariant drives one variant through Collected, Flattened, Ordered and Validated.
// It never returns early with a bare error: failures are recorded on the state.
func (r *Resolution) resolveVariant(key variantKey, up upstream) *variantState {
	start := time.Now()
	state := &variantState{key: key}

	log := r.log.WithFields(logrus.Fields{"scope": key.scope, "shift": key.shift})

	defer func() {
		observability.RecordVariant(key.scope, len(state.errs) == 0, time.Since(start).Seconds())
	}()

	// Collected
	nodes, overrides, changes := r.collect(state)
	log.WithField("nodes", len(nodes)).Debug("Collected producers")

	// Flattened
	leaves := flatten(key.scope, nodes, changes)

	// OrderedOrRejected
	state.graph = dependencies.NewDependencyGraph()
	if err := state.graph.BuildGraph(leaves); err != nil {
		state.errs = append(state.errs, r.variantError(key, err))
		return state
	}

	ordered, err := state.graph.TopologicalOrder()
	if err != nil {
		state.errs = append(state.errs, r.variantError(key, err))
		return state
	}

	// the global outputs are unknown, so every input check would be noise
	if up.failed {
		state.errs = append(state.errs, r.variantError(key, fmt.Errorf("%w: scope %s", ErrUpstreamFailed, up.scope)))
		return state
	}

	// Validated
	available := models.NewQuantitySet(r.def.ExternalInputs()...)
	for q := range up.produced {
		available.Add(q)
	}

	result := r.validator.Validate(validation.Variant{
		Scope:     key.scope,
		Shift:     key.shift,
		Producers: ordered,
		Available: available,
		Requested: r.def.Outputs(key.scope),
		Parameters: func(param string) (any, error) {
			return r.def.ResolveParameter(key.scope, param, r.target.Era, r.target.Sample, overrides)
		},
	})

	state.produced = result.Produced
	state.errs = append(state.errs, result.Errors...)

	if len(state.errs) > 0 {
		return state
	}

	steps, err := buildSteps(ordered, result.Bindings)
	if err != nil {
		state.errs = append(state.errs, r.variantError(key, err))
		return state
	}

	fingerprint, err := fingerprintSteps(up.fingerprint, steps)
	if err != nil {
		state.errs = append(state.errs, r.variantError(key, err))
		return state
	}

	state.steps = steps
	state.fingerprint = fingerprint

	log.WithFields(logrus.Fields{
		"steps":        len(steps),
		"execution_id": fingerprint,
		"excluded":     state.excluded,
	}).Debug("Resolved variant")

	return state
}

// collect applies the sample's modification rules and then the shift's deltas to the base
// producer list. It returns the shift's parameter overrides and quantity changes, which
// are empty for the nominal variant and when the shift is excluded for the sample.
func (r *Resolution) collect(state *variantState) ([]models.Node, map[string]any, map[models.Quantity]models.Quantity) {
	key := state.key
	nodes := r.def.Producers(key.scope)

	for _, rule := range r.def.Rules(key.scope) {
		if !rule.AppliesTo(r.target.Sample) {
			continue
		}

		var warnings []error
		nodes, warnings = models.ApplyDeltas(nodes, rule.Deltas)
		for _, w := range warnings {
			state.warnings = append(state.warnings, fmt.Errorf("scope %s, modification rule: %w", key.scope, w))
		}
	}

	if key.shift == models.Nominal {
		return nodes, nil, nil
	}

	shift := r.shifts[key.shift]

	sc, touches := shift.For(key.scope)
	if !touches {
		return nodes, nil, nil
	}

	if shift.ExcludedFor(key.scope, r.target.Sample) {
		state.excluded = true
		return nodes, nil, nil
	}

	nodes, warnings := models.ApplyDeltas(nodes, sc.Deltas)
	for _, w := range warnings {
		state.warnings = append(state.warnings, &validation.VariantError{Scope: key.scope, Shift: key.shift, Err: w})
	}

	return nodes, sc.Parameters, sc.QuantityChanges
}

// flatten expands nodes depth-first into leaves for scope. A leaf already emitted keeps its
// first position. Quantity changes are applied to every leaf's inputs.
func flatten(scope string, nodes []models.Node, changes map[models.Quantity]models.Quantity) []*models.Producer {
	seen := make(map[string]struct{})

	var leaves []*models.Producer
	for _, node := range nodes {
		for _, leaf := range node.Flatten(scope) {
			if _, dup := seen[leaf.ID()]; dup {
				continue
			}
			seen[leaf.ID()] = struct{}{}

			if len(changes) > 0 {
				leaf = leaf.RenameInputs(changes)
			}
			leaves = append(leaves, leaf)
		}
	}

	return leaves
}

// buildSteps renders each producer's call with its bound parameters
func buildSteps(ordered []*models.Producer, bindings map[string]map[string]any) ([]Step, error) {
	steps := make([]Step, 0, len(ordered))
	for _, p := range ordered {
		params := bindings[p.ID()]

		call, err := rendering.RenderCall(p.Call(), params)
		if err != nil {
			return nil, fmt.Errorf("producer %s: %w", p.ID(), err)
		}

		step := Step{
			Producer: p.ID(),
			Name:     p.Name(),
			Call:     call,
			Inputs:   models.QuantityNames(p.Input()),
			Outputs:  models.QuantityNames(p.Output()),
		}
		if len(params) > 0 {
			step.Parameters = params
		}

		steps = append(steps, step)
	}

	return steps, nil
}

// fingerprintSteps derives a deterministic execution ID from the ordered steps and the
// fingerprint of the global scope variant they read from
func fingerprintSteps(upstreamFingerprint string, steps []Step) (string, error) {
	canonical, err := json.Marshal(struct {
		Upstream string `json:"upstream"`
		Steps    []Step `json:"steps"`
	}{
		Upstream: upstreamFingerprint,
		Steps:    steps,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode steps: %w", err)
	}

	return uuid.NewSHA1(executionNamespace, canonical).String(), nil
}

func (r *Resolution) variantError(key variantKey, err error) error {
	return &validation.VariantError{Scope: key.scope, Shift: key.shift, Err: err}
}
