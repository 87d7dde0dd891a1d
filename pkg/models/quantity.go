package models

import "sort"

// Quantity is a named value slot flowing between producers
type Quantity string

// Name returns the quantity name
func (q Quantity) Name() string {
	return string(q)
}

// Quantities converts names to quantities
func Quantities(names ...string) []Quantity {
	out := make([]Quantity, 0, len(names))
	for _, name := range names {
		out = append(out, Quantity(name))
	}

	return out
}

// QuantityNames returns the names of qs in their given order
func QuantityNames(qs []Quantity) []string {
	names := make([]string, 0, len(qs))
	for _, q := range qs {
		names = append(names, string(q))
	}

	return names
}

// QuantitySet is an unordered set of quantities
type QuantitySet map[Quantity]struct{}

// NewQuantitySet builds a set from qs
func NewQuantitySet(qs ...Quantity) QuantitySet {
	set := make(QuantitySet, len(qs))
	set.Add(qs...)

	return set
}

// Add inserts qs into the set
func (s QuantitySet) Add(qs ...Quantity) {
	for _, q := range qs {
		s[q] = struct{}{}
	}
}

// Has reports whether q is in the set
func (s QuantitySet) Has(q Quantity) bool {
	_, ok := s[q]
	return ok
}

// Sorted returns the members ordered by name
func (s QuantitySet) Sorted() []Quantity {
	out := make([]Quantity, 0, len(s))
	for q := range s {
		out = append(out, q)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
