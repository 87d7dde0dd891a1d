package models

import (
	"fmt"

	"github.com/ethpandaops/shiftgraph/pkg/models/producerid"
	"github.com/samber/lo"
)

// Node is a graph node: either a leaf Producer or a Group of nodes
type Node interface {
	// ID returns the namespaced identifier (module.name)
	ID() string

	// Name returns the human readable producer name
	Name() string

	// Scopes returns the scopes this node may be used in
	Scopes() []string

	// AppliesTo reports whether scope is one of the node's scopes
	AppliesTo(scope string) bool

	// Inputs returns the quantities the node consumes from outside itself
	Inputs(scope string) []Quantity

	// Outputs returns the quantities the node defines
	Outputs(scope string) []Quantity

	// Flatten expands the node depth-first into leaf producers for scope
	Flatten(scope string) []*Producer
}

// ProducerConfig declares a leaf producer
type ProducerConfig struct {
	Module string
	Name   string
	Call   string
	Input  []Quantity
	Output []Quantity
	Scopes []string
	// Params lists parameter keys used by Call. When nil they are read from the `{key}` placeholders.
	Params []string
}

// Producer is a single computation step. It is immutable once created.
type Producer struct {
	id     string
	module string
	name   string
	call   string
	input  []Quantity
	output []Quantity
	scopes []string
	params []string
}

// NewProducer validates cfg and creates a producer
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if cfg.Name == "" {
		return nil, ErrProducerNameRequired
	}

	id := producerid.Format(cfg.Module, cfg.Name)

	if len(cfg.Scopes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrScopesRequired, id)
	}

	if cfg.Call == "" {
		return nil, fmt.Errorf("%w: %s", ErrCallRequired, id)
	}

	params := cfg.Params
	if params == nil {
		params = CallParameters(cfg.Call)
	}

	return &Producer{
		id:     id,
		module: cfg.Module,
		name:   cfg.Name,
		call:   cfg.Call,
		input:  append([]Quantity(nil), cfg.Input...),
		output: lo.Uniq(cfg.Output),
		scopes: lo.Uniq(cfg.Scopes),
		params: lo.Uniq(params),
	}, nil
}

// MustProducer is NewProducer for static declarations; it panics on an invalid declaration
func MustProducer(cfg ProducerConfig) *Producer {
	p, err := NewProducer(cfg)
	if err != nil {
		panic(err)
	}

	return p
}

// ID returns the namespaced producer identifier
func (p *Producer) ID() string { return p.id }

// Module returns the declaring module namespace
func (p *Producer) Module() string { return p.module }

// Name returns the producer name
func (p *Producer) Name() string { return p.name }

// Call returns the call template
func (p *Producer) Call() string { return p.call }

// Scopes returns the applicable scopes
func (p *Producer) Scopes() []string { return append([]string(nil), p.scopes...) }

// Params returns the referenced parameter keys
func (p *Producer) Params() []string { return append([]string(nil), p.params...) }

// Input returns the ordered input quantities
func (p *Producer) Input() []Quantity { return append([]Quantity(nil), p.input...) }

// Output returns the output quantities
func (p *Producer) Output() []Quantity { return append([]Quantity(nil), p.output...) }

// AppliesTo reports whether the producer is a candidate for scope
func (p *Producer) AppliesTo(scope string) bool {
	return lo.Contains(p.scopes, scope)
}

// Inputs returns the ordered input quantities
func (p *Producer) Inputs(_ string) []Quantity { return p.Input() }

// Outputs returns the output quantities
func (p *Producer) Outputs(_ string) []Quantity { return p.Output() }

// RenameInputs returns a copy of p reading the replacement quantity wherever changes names one
// of its inputs. The copy keeps p's identifier. p itself is returned when nothing changes.
func (p *Producer) RenameInputs(changes map[Quantity]Quantity) *Producer {
	renamed := false
	input := make([]Quantity, len(p.input))
	for i, q := range p.input {
		input[i] = q
		if to, ok := changes[q]; ok && to != q {
			input[i] = to
			renamed = true
		}
	}

	if !renamed {
		return p
	}

	out := *p
	out.input = input

	return &out
}

// Flatten returns the producer itself when it applies to scope
func (p *Producer) Flatten(scope string) []*Producer {
	if !p.AppliesTo(scope) {
		return nil
	}

	return []*Producer{p}
}

// GroupConfig declares a composite producer
type GroupConfig struct {
	Module string
	Name   string
	// Call is optional. When set, the group emits a combiner step after its subproducers
	// which consumes their outputs plus Input and defines Output.
	Call   string
	Input  []Quantity
	Output []Quantity
	Scopes []string
	Params []string

	Subproducers []Node
	// ScopedSubproducers replaces Subproducers for the scopes it names
	ScopedSubproducers map[string][]Node
}

// Group is a composite producer whose inputs and outputs derive from its children
type Group struct {
	id       string
	module   string
	name     string
	scopes   []string
	children []Node
	scoped   map[string][]Node
	combiner map[string]*Producer
}

// NewGroup validates cfg and creates a group
func NewGroup(cfg GroupConfig) (*Group, error) {
	if cfg.Name == "" {
		return nil, ErrProducerNameRequired
	}

	id := producerid.Format(cfg.Module, cfg.Name)

	if len(cfg.Scopes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrScopesRequired, id)
	}

	if len(cfg.Subproducers) == 0 && len(cfg.ScopedSubproducers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGroup, id)
	}

	g := &Group{
		id:       id,
		module:   cfg.Module,
		name:     cfg.Name,
		scopes:   lo.Uniq(cfg.Scopes),
		children: append([]Node(nil), cfg.Subproducers...),
		scoped:   make(map[string][]Node, len(cfg.ScopedSubproducers)),
		combiner: map[string]*Producer{},
	}

	for scope, nodes := range cfg.ScopedSubproducers {
		g.scoped[scope] = append([]Node(nil), nodes...)
	}

	if cfg.Call == "" {
		return g, nil
	}

	for _, scope := range g.scopes {
		input := append([]Quantity(nil), cfg.Input...)
		for _, leaf := range g.flattenChildren(scope) {
			input = append(input, leaf.output...)
		}

		combiner, err := NewProducer(ProducerConfig{
			Module: cfg.Module,
			Name:   cfg.Name,
			Call:   cfg.Call,
			Input:  lo.Uniq(input),
			Output: cfg.Output,
			Scopes: []string{scope},
			Params: cfg.Params,
		})
		if err != nil {
			return nil, err
		}

		g.combiner[scope] = combiner
	}

	return g, nil
}

// MustGroup is NewGroup for static declarations; it panics on an invalid declaration
func MustGroup(cfg GroupConfig) *Group {
	g, err := NewGroup(cfg)
	if err != nil {
		panic(err)
	}

	return g
}

// ID returns the namespaced group identifier
func (g *Group) ID() string { return g.id }

// Name returns the group name
func (g *Group) Name() string { return g.name }

// Scopes returns the applicable scopes
func (g *Group) Scopes() []string { return append([]string(nil), g.scopes...) }

// AppliesTo reports whether the group is a candidate for scope
func (g *Group) AppliesTo(scope string) bool {
	return lo.Contains(g.scopes, scope)
}

// Subproducers returns the direct children used for scope
func (g *Group) Subproducers(scope string) []Node {
	if nodes, ok := g.scoped[scope]; ok {
		return append([]Node(nil), nodes...)
	}

	return append([]Node(nil), g.children...)
}

// Flatten expands the group depth-first in declaration order
func (g *Group) Flatten(scope string) []*Producer {
	if !g.AppliesTo(scope) {
		return nil
	}

	leaves := g.flattenChildren(scope)
	if combiner, ok := g.combiner[scope]; ok {
		leaves = append(leaves, combiner)
	}

	return leaves
}

func (g *Group) flattenChildren(scope string) []*Producer {
	var leaves []*Producer
	for _, child := range g.Subproducers(scope) {
		leaves = append(leaves, child.Flatten(scope)...)
	}

	return leaves
}

// Outputs returns the union of all descendant outputs
func (g *Group) Outputs(scope string) []Quantity {
	var out []Quantity
	for _, leaf := range g.Flatten(scope) {
		out = append(out, leaf.output...)
	}

	return lo.Uniq(out)
}

// Inputs returns descendant inputs that are not defined inside the group
func (g *Group) Inputs(scope string) []Quantity {
	internal := NewQuantitySet(g.Outputs(scope)...)

	var in []Quantity
	for _, leaf := range g.Flatten(scope) {
		for _, q := range leaf.input {
			if !internal.Has(q) {
				in = append(in, q)
			}
		}
	}

	return lo.Uniq(in)
}

var (
	_ Node = (*Producer)(nil)
	_ Node = (*Group)(nil)
)
