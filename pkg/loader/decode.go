package loader

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	keyByEra    = "by_era"
	keyBySample = "by_sample"
	keyDefault  = "default"
)

// File is one decoded declaration file
type File struct {
	Path             string           `yaml:"-"`
	Module           string           `yaml:"module"`
	External         []string         `yaml:"external"`
	Producers        []ProducerDecl   `yaml:"producers"`
	ProducersByScope []ScopedRefs     `yaml:"producers_by_scope"`
	Parameters       []ParameterBlock `yaml:"parameters"`
	Rules            []RuleDecl       `yaml:"rules"`
	Outputs          []OutputDecl     `yaml:"outputs"`
	Shifts           []ShiftDecl      `yaml:"shifts"`
}

// ProducerDecl declares a leaf producer, or a group when subproducers are set
type ProducerDecl struct {
	Name   string   `yaml:"name"`
	Call   string   `yaml:"call"`
	Input  []string `yaml:"input"`
	Output []string `yaml:"output"`
	Scopes []string `yaml:"scopes"`
	Params []string `yaml:"params"`

	Subproducers        []string            `yaml:"subproducers"`
	SubproducersByScope map[string][]string `yaml:"subproducers_by_scope"`
}

// IsGroup reports whether the declaration is a composite producer
func (p ProducerDecl) IsGroup() bool {
	return len(p.Subproducers) > 0 || len(p.SubproducersByScope) > 0
}

// ScopedRefs adds producers to the base lists of scopes
type ScopedRefs struct {
	Scopes    []string `yaml:"scopes"`
	Producers []string `yaml:"producers"`
}

// ParameterBlock sets parameter values for scopes
type ParameterBlock struct {
	Scopes []string `yaml:"scopes"`
	Values Values   `yaml:"values"`
	Line   int      `yaml:"-"`
}

// UnmarshalYAML records the block's line for parameter provenance
func (b *ParameterBlock) UnmarshalYAML(node *yaml.Node) error {
	type plain ParameterBlock

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*b = ParameterBlock(p)
	b.Line = node.Line

	return nil
}

// RuleDecl is a sample-conditional edit of base producer lists
type RuleDecl struct {
	Scopes         []string    `yaml:"scopes"`
	Samples        []string    `yaml:"samples"`
	ExcludeSamples []string    `yaml:"exclude_samples"`
	Deltas         []DeltaDecl `yaml:"deltas"`
}

// DeltaDecl is one producer list edit. Exactly one of Append, Remove or Replace is set;
// With is the replacement for Replace.
type DeltaDecl struct {
	Append  string `yaml:"append"`
	Remove  string `yaml:"remove"`
	Replace string `yaml:"replace"`
	With    string `yaml:"with"`
}

// OutputDecl requests quantities for scopes
type OutputDecl struct {
	Scopes     []string `yaml:"scopes"`
	Quantities []string `yaml:"quantities"`
}

// ShiftDecl declares a named shift
type ShiftDecl struct {
	Name           string                    `yaml:"name"`
	ExcludeSamples []string                  `yaml:"exclude_samples"`
	Scopes         map[string]ShiftScopeDecl `yaml:"scopes"`
}

// ShiftScopeDecl is what a shift changes in one scope
type ShiftScopeDecl struct {
	Parameters      Values            `yaml:"parameters"`
	Deltas          []DeltaDecl       `yaml:"deltas"`
	QuantityChanges map[string]string `yaml:"quantity_changes"`
	ExcludeSamples  []string          `yaml:"exclude_samples"`
}

// Values is a parameter mapping whose values may be conditional
type Values map[string]any

// UnmarshalYAML decodes every value, turning by_era and by_sample mappings into bindings
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d", ErrInvalidValues, node.Line)
	}

	values := make(Values, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		decoded, err := decodeValue(val)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", key.Value, err)
		}
		values[key.Value] = decoded
	}

	*v = values

	return nil
}

// decodeValue converts a YAML node into a parameter value
func decodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.ScalarNode:
		var out any
		if err := node.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			decoded, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, decoded)
		}
		return out, nil
	case yaml.MappingNode:
		if isConditional(node) {
			return decodeBinding(node)
		}

		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			decoded, err := decodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[node.Content[i].Value] = decoded
		}
		return out, nil
	case yaml.DocumentNode:
		return nil, fmt.Errorf("%w: unexpected document at line %d", ErrInvalidConditional, node.Line)
	default:
		return nil, fmt.Errorf("%w: unexpected node kind %v", ErrInvalidConditional, node.Kind)
	}
}

func isConditional(node *yaml.Node) bool {
	for i := 0; i < len(node.Content); i += 2 {
		if k := node.Content[i].Value; k == keyByEra || k == keyBySample {
			return true
		}
	}

	return false
}

// decodeBinding decodes {by_era: {...}, default: v} or {by_sample: {...}}
func decodeBinding(node *yaml.Node) (any, error) {
	var (
		binding    models.Binding
		axis       string
		def        any
		hasDefault bool
	)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		switch key.Value {
		case keyByEra, keyBySample:
			if axis != "" {
				return nil, fmt.Errorf("%w: line %d sets both %s and %s", ErrInvalidConditional, key.Line, axis, key.Value)
			}
			axis = key.Value

			entries, err := decodeEntries(val)
			if err != nil {
				return nil, err
			}

			if axis == keyByEra {
				binding = models.ByEra(entries...)
			} else {
				binding = models.BySample(entries...)
			}
		case keyDefault:
			decoded, err := decodeValue(val)
			if err != nil {
				return nil, err
			}
			def, hasDefault = decoded, true
		default:
			return nil, fmt.Errorf("%w: unexpected key %q at line %d", ErrInvalidConditional, key.Value, key.Line)
		}
	}

	if hasDefault {
		binding = binding.WithDefault(def)
	}

	return binding, nil
}

// decodeEntries reads the axis table. Keys are a comma-separated string or a sequence.
func decodeEntries(node *yaml.Node) ([]models.Entry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d must be a mapping", ErrInvalidConditional, node.Line)
	}

	entries := make([]models.Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys, err := decodeKeys(node.Content[i])
		if err != nil {
			return nil, err
		}

		value, err := decodeValue(node.Content[i+1])
		if err != nil {
			return nil, err
		}

		entries = append(entries, models.Case(value, keys...))
	}

	return entries, nil
}

func decodeKeys(node *yaml.Node) ([]string, error) {
	var raw []string

	switch node.Kind {
	case yaml.ScalarNode:
		raw = strings.Split(node.Value, ",")
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: composite key at line %d must hold scalars", ErrInvalidConditional, item.Line)
			}
			raw = append(raw, item.Value)
		}
	case yaml.DocumentNode, yaml.MappingNode, yaml.AliasNode:
		return nil, fmt.Errorf("%w: unsupported key at line %d", ErrInvalidConditional, node.Line)
	default:
		return nil, fmt.Errorf("%w: unsupported key at line %d", ErrInvalidConditional, node.Line)
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: empty key at line %d", ErrInvalidConditional, node.Line)
	}

	return keys, nil
}

// Parse decodes one declaration file
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if f.Module == "" {
		return nil, fmt.Errorf("%w: %s", ErrModuleRequired, path)
	}

	f.Path = path

	return &f, nil
}
