// Package configuration accumulates producers, parameters and shifts per scope and freezes
// them into an immutable Definition that can be resolved for any era and sample.
package configuration

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/parameters"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Options fixes the scopes and boundary quantities of a configuration
type Options struct {
	// Scopes lists every scope that may be used
	Scopes []string `yaml:"scopes"`
	// GlobalScope names the scope resolved first; its outputs are available to every other scope
	GlobalScope string `yaml:"global_scope"`
	// ExternalInputs are quantities that are always available without a producer
	ExternalInputs []string `yaml:"external_inputs"`
}

// Configuration is the mutable builder. It is safe for concurrent declaration.
type Configuration struct {
	log   logrus.FieldLogger
	mutex sync.Mutex

	scopes      []string
	globalScope string
	external    models.QuantitySet
	params      *parameters.Store
	producers   map[string][]models.Node
	rules       map[string][]models.Rule
	outputs     map[string][]models.Quantity
	shifts      map[string]*models.Shift

	errs   error
	frozen bool
}

// New creates an empty configuration for the scopes in opts
func New(opts Options, log logrus.FieldLogger) *Configuration {
	scopes := lo.Uniq(opts.Scopes)
	if opts.GlobalScope != "" && !lo.Contains(scopes, opts.GlobalScope) {
		scopes = append([]string{opts.GlobalScope}, scopes...)
	}

	c := &Configuration{
		log:         log.WithField("component", "configuration"),
		scopes:      scopes,
		globalScope: opts.GlobalScope,
		external:    models.NewQuantitySet(models.Quantities(opts.ExternalInputs...)...),
		params:      parameters.NewStore(),
		producers:   make(map[string][]models.Node),
		rules:       make(map[string][]models.Rule),
		outputs:     make(map[string][]models.Quantity),
		shifts:      make(map[string]*models.Shift),
	}

	if len(scopes) == 0 {
		c.errs = ErrNoScopes
	}

	return c
}

// AddParameters merges params into every named scope. Later calls win per key; the
// caller's file and line are recorded as the parameter source.
func (c *Configuration) AddParameters(scopes []string, params map[string]any) {
	source := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		source = fmt.Sprintf("%s:%d", file, line)
	}

	c.AddParametersFrom(source, scopes, params)
}

// AddParametersFrom is AddParameters with an explicit source description
func (c *Configuration) AddParametersFrom(source string, scopes []string, params map[string]any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.mutable() {
		return
	}

	keys := lo.Keys(params)
	sort.Strings(keys)

	for _, scope := range scopes {
		if !c.checkScope(scope) {
			continue
		}

		for _, key := range keys {
			previous, replaced := c.params.Set(scope, key, params[key], source)
			if replaced {
				c.log.WithFields(logrus.Fields{
					"scope":           scope,
					"key":             key,
					"source":          source,
					"previous_source": previous.Source,
				}).Debug("Parameter overridden")
			}
		}
	}
}

// AddProducers appends nodes to the base producer list of every named scope
func (c *Configuration) AddProducers(scopes []string, nodes ...models.Node) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.mutable() {
		return
	}

	for _, scope := range scopes {
		if !c.checkScope(scope) {
			continue
		}

		for _, node := range nodes {
			if !c.checkApplicable(scope, node) {
				continue
			}
			c.producers[scope] = append(c.producers[scope], node)
		}
	}
}

// AddModificationRule registers a sample-conditional edit of the base lists of scopes
func (c *Configuration) AddModificationRule(scopes []string, rule models.Rule) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.mutable() {
		return
	}

	if err := rule.Validate(); err != nil {
		c.errs = multierr.Append(c.errs, fmt.Errorf("modification rule: %w", err))
		return
	}

	for _, scope := range scopes {
		if !c.checkScope(scope) {
			continue
		}

		applicable := true
		for _, d := range rule.Deltas {
			if d.Producer != nil && !c.checkApplicable(scope, d.Producer) {
				applicable = false
			}
		}

		if !applicable {
			continue
		}

		c.rules[scope] = append(c.rules[scope], rule)
	}
}

// AddOutputs requests quantities that every variant of the scopes must provide
func (c *Configuration) AddOutputs(scopes []string, quantities ...models.Quantity) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.mutable() {
		return
	}

	for _, scope := range scopes {
		if !c.checkScope(scope) {
			continue
		}
		c.outputs[scope] = lo.Uniq(append(c.outputs[scope], quantities...))
	}
}

// AddExternalInputs declares quantities that are always available
func (c *Configuration) AddExternalInputs(quantities ...models.Quantity) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.mutable() {
		return
	}

	c.external.Add(quantities...)
}

// AddShift registers a named shift. A shift whose name is already registered is merged
// into the existing one when the two target disjoint scopes; overlapping scopes are an
// ErrDuplicateShiftName error.
func (c *Configuration) AddShift(shift *models.Shift) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.frozen {
		return ErrFrozen
	}

	if err := c.addShift(shift); err != nil {
		c.errs = multierr.Append(c.errs, err)
		return err
	}

	return nil
}

func (c *Configuration) addShift(shift *models.Shift) error {
	if shift == nil {
		return models.ErrShiftNameRequired
	}

	if err := shift.Validate(); err != nil {
		return err
	}

	for _, scope := range shift.ScopeNames() {
		if !lo.Contains(c.scopes, scope) {
			return fmt.Errorf("shift %s: %w: %s", shift.Name, ErrUnknownScope, scope)
		}

		for _, d := range shift.Scopes[scope].Deltas {
			if d.Producer != nil && !d.Producer.AppliesTo(scope) {
				return fmt.Errorf("shift %s: %w: %s in %s", shift.Name, ErrScopeNotApplicable, d.Producer.ID(), scope)
			}
		}
	}

	key := strings.ToLower(shift.Name)
	existing, ok := c.shifts[key]
	if !ok {
		c.shifts[key] = shift.Clone()
		return nil
	}

	merged, err := existing.Merge(shift)
	if err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"shift":  shift.Name,
		"scopes": merged.ScopeNames(),
	}).Debug("Merged shift declared for disjoint scopes")

	c.shifts[key] = merged

	return nil
}

// Freeze validates the accumulated declarations and returns the immutable Definition.
// Every build error recorded so far is returned together. The builder accepts no
// further declarations afterwards.
func (c *Configuration) Freeze() (*Definition, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.frozen {
		return nil, ErrFrozen
	}

	if c.errs != nil {
		return nil, c.errs
	}

	c.frozen = true

	def := &Definition{
		scopes:      append([]string(nil), c.scopes...),
		globalScope: c.globalScope,
		external:    models.NewQuantitySet(c.external.Sorted()...),
		params:      c.params.Clone(),
		producers:   make(map[string][]models.Node, len(c.producers)),
		rules:       make(map[string][]models.Rule, len(c.rules)),
		outputs:     make(map[string][]models.Quantity, len(c.outputs)),
		shifts:      make(map[string]*models.Shift, len(c.shifts)),
	}

	for scope, nodes := range c.producers {
		def.producers[scope] = append([]models.Node(nil), nodes...)
	}
	for scope, rules := range c.rules {
		def.rules[scope] = append([]models.Rule(nil), rules...)
	}
	for scope, qs := range c.outputs {
		def.outputs[scope] = append([]models.Quantity(nil), qs...)
	}
	for key, shift := range c.shifts {
		def.shifts[key] = shift.Clone()
		def.shiftNames = append(def.shiftNames, shift.Name)
	}
	sort.Strings(def.shiftNames)

	c.log.WithFields(logrus.Fields{
		"scopes": len(def.scopes),
		"shifts": len(def.shiftNames),
	}).Info("Configuration frozen")

	return def, nil
}

func (c *Configuration) mutable() bool {
	if c.frozen {
		c.log.Warn("Declaration ignored: configuration is frozen")
		return false
	}

	return true
}

func (c *Configuration) checkScope(scope string) bool {
	if lo.Contains(c.scopes, scope) {
		return true
	}

	c.errs = multierr.Append(c.errs, fmt.Errorf("%w: %s", ErrUnknownScope, scope))

	return false
}

func (c *Configuration) checkApplicable(scope string, node models.Node) bool {
	if node.AppliesTo(scope) {
		return true
	}

	c.errs = multierr.Append(c.errs, fmt.Errorf("%w: %s in %s", ErrScopeNotApplicable, node.ID(), scope))

	return false
}
