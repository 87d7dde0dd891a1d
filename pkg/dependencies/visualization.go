package dependencies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/models"
)

// DAGInfo contains DAG visualization information
type DAGInfo struct {
	Levels         map[int][]string
	MaxLevel       int
	RootNodes      []string
	TotalProducers int
	Dependents     map[string][]string
	// Boundary lists consumed quantities no producer in the graph defines
	Boundary []models.Quantity
}

// GetDAGInfo returns DAG visualization information
func (d *DependencyGraph) GetDAGInfo() *DAGInfo {
	levels := d.calculateLevels()

	levelGroups := make(map[int][]string)
	maxLevel := 0
	for _, id := range d.GetProducerIDs() {
		level := levels[id]
		if level > maxLevel {
			maxLevel = level
		}
		levelGroups[level] = append(levelGroups[level], id)
	}

	dependents := make(map[string][]string)
	roots := []string{}
	for _, id := range d.GetProducerIDs() {
		dependents[id] = d.GetDependents(id)
		if len(d.GetDependencies(id)) == 0 {
			roots = append(roots, id)
		}
	}

	return &DAGInfo{
		Levels:         levelGroups,
		MaxLevel:       maxLevel,
		RootNodes:      roots,
		TotalProducers: len(dependents),
		Dependents:     dependents,
		Boundary:       d.boundary(),
	}
}

// calculateLevels assigns each producer one level more than its deepest dependency
func (d *DependencyGraph) calculateLevels() map[string]int {
	levels := make(map[string]int)

	ordered, err := d.TopologicalOrder()
	if err != nil {
		return levels
	}

	for _, p := range ordered {
		level := 0
		for _, dep := range d.GetDependencies(p.ID()) {
			if levels[dep]+1 > level {
				level = levels[dep] + 1
			}
		}
		levels[p.ID()] = level
	}

	return levels
}

// boundary returns the consumed quantities that no producer in the graph defines, sorted
func (d *DependencyGraph) boundary() []models.Quantity {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	defined := models.NewQuantitySet()
	consumed := models.NewQuantitySet()
	for _, p := range d.producers {
		defined.Add(p.Output()...)
		consumed.Add(p.Input()...)
	}

	var out []models.Quantity
	for _, q := range consumed.Sorted() {
		if !defined.Has(q) {
			out = append(out, q)
		}
	}

	return out
}

// GenerateDOTFormat generates a DOT format representation of the graph. When only is
// non-empty the output is restricted to those producer IDs.
func (d *DependencyGraph) GenerateDOTFormat(name string, only ...string) string {
	include := func(string) bool { return true }
	if len(only) > 0 {
		keep := make(map[string]struct{}, len(only))
		for _, id := range only {
			keep[id] = struct{}{}
		}
		include = func(id string) bool {
			_, ok := keep[id]
			return ok
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", name)
	sb.WriteString("  rankdir=LR;\n")

	boundary := make(map[models.Quantity]struct{})
	for _, q := range d.boundary() {
		boundary[q] = struct{}{}
	}

	for _, id := range d.GetProducerIDs() {
		if !include(id) {
			continue
		}

		p, _ := d.GetProducer(id)
		fmt.Fprintf(&sb, "  \"%s\";\n", id)

		inputs := p.Input()
		sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })
		for _, q := range inputs {
			if _, ok := boundary[q]; ok {
				fmt.Fprintf(&sb, "  \"%s\" [shape=box, style=filled, fillcolor=lightblue];\n", q)
				fmt.Fprintf(&sb, "  \"%s\" -> \"%s\";\n", q, id)
			}
		}
	}

	for _, edge := range d.Edges() {
		if !include(edge.From) || !include(edge.To) {
			continue
		}
		fmt.Fprintf(&sb, "  \"%s\" -> \"%s\" [label=\"%s\"];\n", edge.From, edge.To, quantityNames(edge.Quantities))
	}

	sb.WriteString("}")
	return sb.String()
}

func quantityNames(list []models.Quantity) string {
	return strings.Join(models.QuantityNames(list), ", ")
}
