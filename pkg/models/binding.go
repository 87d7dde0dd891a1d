package models

import (
	"fmt"
	"sort"
)

// BindingKind identifies the variant of a Binding
type BindingKind int

const (
	// BindingLiteral is a plain value
	BindingLiteral BindingKind = iota
	// BindingByEra selects a value by data-taking era
	BindingByEra
	// BindingBySample selects a value by sample
	BindingBySample
)

// String returns the kind name
func (k BindingKind) String() string {
	switch k {
	case BindingLiteral:
		return "literal"
	case BindingByEra:
		return "era"
	case BindingBySample:
		return "sample"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry maps one or more axis keys to a shared value
type Entry struct {
	Keys  []string
	Value any
}

// Case builds an entry sharing value between keys
func Case(value any, keys ...string) Entry {
	return Entry{Keys: keys, Value: value}
}

// Binding is a parameter value that is either a literal or conditional on era or sample.
// The zero value is a nil literal.
type Binding struct {
	kind       BindingKind
	literal    any
	entries    []Entry
	def        any
	hasDefault bool
}

// Literal binds a fixed value
func Literal(v any) Binding {
	return Binding{kind: BindingLiteral, literal: v}
}

// ByEra binds a value selected by era
func ByEra(entries ...Entry) Binding {
	return Binding{kind: BindingByEra, entries: append([]Entry(nil), entries...)}
}

// BySample binds a value selected by sample
func BySample(entries ...Entry) Binding {
	return Binding{kind: BindingBySample, entries: append([]Entry(nil), entries...)}
}

// WithDefault returns a copy of b that falls back to v when no key matches.
// Zero values such as false or 0 are valid defaults.
func (b Binding) WithDefault(v any) Binding {
	b.entries = append([]Entry(nil), b.entries...)
	b.def = v
	b.hasDefault = true

	return b
}

// Kind returns the binding variant
func (b Binding) Kind() BindingKind { return b.kind }

// Default returns the default value and whether one is declared
func (b Binding) Default() (any, bool) { return b.def, b.hasDefault }

// Entries returns the declared entries
func (b Binding) Entries() []Entry { return append([]Entry(nil), b.entries...) }

// Table flattens composite keys into a single key to value table
func (b Binding) Table() (map[string]any, error) {
	table := make(map[string]any)
	for _, entry := range b.entries {
		if len(entry.Keys) == 0 {
			return nil, fmt.Errorf("%w: %s entry without keys", ErrInvalidBinding, b.kind)
		}

		for _, key := range entry.Keys {
			if _, exists := table[key]; exists {
				return nil, fmt.Errorf("%w: %s %q", ErrDuplicateKey, b.kind, key)
			}
			table[key] = entry.Value
		}
	}

	return table, nil
}

// Keys returns the flattened axis keys in sorted order
func (b Binding) Keys() []string {
	var keys []string
	for _, entry := range b.entries {
		keys = append(keys, entry.Keys...)
	}
	sort.Strings(keys)

	return keys
}

// Resolve selects the value for era and sample. Nested bindings inside the selected
// value are not resolved; use ResolveValue for that.
func (b Binding) Resolve(era, sample string) (any, error) {
	switch b.kind {
	case BindingLiteral:
		return b.literal, nil
	case BindingByEra:
		return b.lookup(era)
	case BindingBySample:
		return b.lookup(sample)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidBinding, b.kind)
	}
}

func (b Binding) lookup(axisValue string) (any, error) {
	table, err := b.Table()
	if err != nil {
		return nil, err
	}

	if v, ok := table[axisValue]; ok {
		return v, nil
	}

	if b.hasDefault {
		return b.def, nil
	}

	return nil, fmt.Errorf("%w: no value for %s %q and no default", ErrUnresolvedParameter, b.kind, axisValue)
}

// ResolveValue resolves v for era and sample, descending into lists and maps so that
// bindings nested anywhere in the value are replaced by their selected values.
func ResolveValue(v any, era, sample string) (any, error) {
	switch val := v.(type) {
	case Binding:
		selected, err := val.Resolve(era, sample)
		if err != nil {
			return nil, err
		}
		return ResolveValue(selected, era, sample)
	case *Binding:
		if val == nil {
			return nil, nil
		}
		return ResolveValue(*val, era, sample)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := ResolveValue(item, era, sample)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			resolved, err := ResolveValue(item, era, sample)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}
