// Package dependencies orders the producers of one resolved variant by quantity dependency
package dependencies

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/heimdalr/dag"
	"github.com/samber/lo"
)

var (
	// ErrUnknownProducer is returned when a producer is not part of the graph
	ErrUnknownProducer = errors.New("producer is not part of the graph")
	// ErrInconsistentGraph is returned when the topological order does not cover every producer
	ErrInconsistentGraph = errors.New("dependency graph is inconsistent: vertex count mismatch")
)

// Edge is a dependency between two producers through one or more quantities
type Edge struct {
	From       string
	To         string
	Quantities []models.Quantity
}

// DependencyGraph holds the producers of one variant. Vertices are producer IDs and an edge
// runs from the producer of a quantity to each producer consuming it.
type DependencyGraph struct {
	dag       *dag.DAG
	producers []*models.Producer
	index     map[string]int
	labels    map[[2]string][]models.Quantity
	mutex     sync.RWMutex
}

// NewDependencyGraph creates an empty dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dag:    dag.NewDAG(),
		index:  make(map[string]int),
		labels: make(map[[2]string][]models.Quantity),
	}
}

// BuildGraph builds the graph from producers in declaration order. Producer IDs must be
// unique. A producer consuming a quantity that it, or one of its dependents, defines is
// rejected with ErrCyclicDependency naming the quantity and both producers.
func (d *DependencyGraph) BuildGraph(producers []*models.Producer) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// Reset DAG
	d.dag = dag.NewDAG()
	d.producers = append([]*models.Producer(nil), producers...)
	d.index = make(map[string]int, len(producers))
	d.labels = make(map[[2]string][]models.Quantity)

	definedBy := make(map[models.Quantity][]string)

	for i, p := range d.producers {
		// Store just the ID as vertex data (producers are not hashable)
		if err := d.dag.AddVertexByID(p.ID(), p.ID()); err != nil {
			return fmt.Errorf("failed to add vertex %s: %w", p.ID(), err)
		}

		d.index[p.ID()] = i

		for _, q := range p.Output() {
			definedBy[q] = append(definedBy[q], p.ID())
		}
	}

	// Add edges (producer → consumer)
	for _, consumer := range d.producers {
		for _, q := range consumer.Input() {
			for _, producerID := range definedBy[q] {
				if err := d.addEdge(producerID, consumer.ID(), q); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (d *DependencyGraph) addEdge(from, to string, q models.Quantity) error {
	if from == to {
		return fmt.Errorf("%w: %s both defines and consumes %s", models.ErrCyclicDependency, from, q)
	}

	key := [2]string{from, to}

	exists, err := d.dag.IsEdge(from, to)
	if err != nil {
		return fmt.Errorf("failed to check edge %s → %s: %w", from, to, err)
	}

	if !exists {
		// AddEdge refuses edges that would close a loop
		if err := d.dag.AddEdge(from, to); err != nil {
			return fmt.Errorf("%w: %s defined by %s is consumed by %s, which %s depends on",
				models.ErrCyclicDependency, q, from, to, from)
		}
	}

	if !lo.Contains(d.labels[key], q) {
		d.labels[key] = append(d.labels[key], q)
	}

	return nil
}

// TopologicalOrder returns the producers so that every producer follows all producers it
// depends on. Producers without an ordering constraint keep their declaration order.
func (d *DependencyGraph) TopologicalOrder() ([]*models.Producer, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	pending := make(map[string]int, len(d.producers))
	for _, p := range d.producers {
		parents, err := d.dag.GetParents(p.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to get dependencies of %s: %w", p.ID(), err)
		}
		pending[p.ID()] = len(parents)
	}

	// ready holds declaration indices, kept sorted
	var ready []int
	for i, p := range d.producers {
		if pending[p.ID()] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]*models.Producer, 0, len(d.producers))
	for len(ready) > 0 {
		next := d.producers[ready[0]]
		ready = ready[1:]
		ordered = append(ordered, next)

		children, err := d.dag.GetChildren(next.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to get dependents of %s: %w", next.ID(), err)
		}

		for childID := range children {
			pending[childID]--
			if pending[childID] == 0 {
				ready = insertSorted(ready, d.index[childID])
			}
		}
	}

	if len(ordered) != len(d.producers) {
		return nil, fmt.Errorf("%w: ordered %d of %d producers", ErrInconsistentGraph, len(ordered), len(d.producers))
	}

	return ordered, nil
}

// GetProducer returns the producer with the given ID
func (d *DependencyGraph) GetProducer(id string) (*models.Producer, bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	i, exists := d.index[id]
	if !exists {
		return nil, false
	}

	return d.producers[i], true
}

// GetProducerIDs returns all producer IDs in declaration order
func (d *DependencyGraph) GetProducerIDs() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	ids := make([]string, 0, len(d.producers))
	for _, p := range d.producers {
		ids = append(ids, p.ID())
	}

	return ids
}

// GetDependents returns the direct dependents of a producer
func (d *DependencyGraph) GetDependents(id string) []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	children, err := d.dag.GetChildren(id)
	if err != nil {
		return nil
	}

	return d.sortedKeys(children)
}

// GetDependencies returns the direct dependencies of a producer
func (d *DependencyGraph) GetDependencies(id string) []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	parents, err := d.dag.GetParents(id)
	if err != nil {
		return nil
	}

	return d.sortedKeys(parents)
}

// GetAllDependents returns all dependents (recursive) of a producer
func (d *DependencyGraph) GetAllDependents(id string) []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	descendants, err := d.dag.GetDescendants(id)
	if err != nil {
		return nil
	}

	return d.sortedKeys(descendants)
}

// GetAllDependencies returns all dependencies (recursive) of a producer
func (d *DependencyGraph) GetAllDependencies(id string) []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	ancestors, err := d.dag.GetAncestors(id)
	if err != nil {
		return nil
	}

	return d.sortedKeys(ancestors)
}

// IsPathBetween checks if there's a path from one producer to another
func (d *DependencyGraph) IsPathBetween(fromID, toID string) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	descendants, err := d.dag.GetDescendants(fromID)
	if err != nil {
		return false
	}

	_, exists := descendants[toID]
	return exists
}

// Edges returns every edge with the quantities it carries, ordered by the position of the
// consumer and then the producer
func (d *DependencyGraph) Edges() []Edge {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	edges := make([]Edge, 0, len(d.labels))
	for key, quantities := range d.labels {
		edges = append(edges, Edge{From: key[0], To: key[1], Quantities: append([]models.Quantity(nil), quantities...)})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return d.index[edges[i].To] < d.index[edges[j].To]
		}
		return d.index[edges[i].From] < d.index[edges[j].From]
	})

	return edges
}

// Subgraph returns the IDs of the producer, everything it depends on and everything that
// depends on it, in declaration order
func (d *DependencyGraph) Subgraph(id string) ([]string, error) {
	if _, exists := d.GetProducer(id); !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProducer, id)
	}

	related := map[string]struct{}{id: {}}
	for _, other := range d.GetAllDependencies(id) {
		related[other] = struct{}{}
	}
	for _, other := range d.GetAllDependents(id) {
		related[other] = struct{}{}
	}

	ids := make([]string, 0, len(related))
	for _, pid := range d.GetProducerIDs() {
		if _, ok := related[pid]; ok {
			ids = append(ids, pid)
		}
	}

	return ids, nil
}

// sortedKeys returns the vertex IDs ordered by declaration
func (d *DependencyGraph) sortedKeys(vertices map[string]interface{}) []string {
	ids := make([]string, 0, len(vertices))
	for id := range vertices {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return d.index[ids[i]] < d.index[ids[j]] })

	return ids
}

func insertSorted(list []int, v int) []int {
	i := sort.SearchInts(list, v)
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = v

	return list
}
