package loader

import (
	"fmt"
	"os"

	"github.com/ethpandaops/shiftgraph/pkg/configuration"
	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/ethpandaops/shiftgraph/pkg/models/producerid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Loader reads declaration files into a configuration
type Loader struct {
	log   logrus.FieldLogger
	paths []string
}

// New creates a loader for the declaration paths
func New(log logrus.FieldLogger, paths ...string) *Loader {
	return &Loader{
		log:   log.WithField("component", "loader"),
		paths: paths,
	}
}

// Load discovers and parses every declaration file. All parse errors are returned together.
func (l *Loader) Load() ([]*File, error) {
	paths, err := Discover(l.paths...)
	if err != nil {
		return nil, err
	}

	var (
		files []*File
		errs  error
	)

	for _, path := range paths {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to read %s: %w", path, readErr))
			continue
		}

		f, parseErr := Parse(data, path)
		if parseErr != nil {
			errs = multierr.Append(errs, parseErr)
			continue
		}

		l.log.WithFields(logrus.Fields{
			"file":      path,
			"module":    f.Module,
			"producers": len(f.Producers),
			"shifts":    len(f.Shifts),
		}).Debug("Parsed declaration file")

		files = append(files, f)
	}

	if errs != nil {
		return nil, errs
	}

	return files, nil
}

// LoadInto loads every declaration file and applies them to c
func (l *Loader) LoadInto(c *configuration.Configuration) error {
	files, err := l.Load()
	if err != nil {
		return err
	}

	if err := Apply(c, files...); err != nil {
		return err
	}

	l.log.WithField("files", len(files)).Info("Loaded declarations")

	return nil
}

// Apply registers the files' declarations with c in file order. Producer references may
// point at producers of any file. Declaration errors detected by the configuration itself
// are reported by its Freeze.
func Apply(c *configuration.Configuration, files ...*File) error {
	reg, errs := newRegistry(files)

	for _, f := range files {
		errs = multierr.Append(errs, reg.apply(c, f))
	}

	return dedupe(errs)
}

type declaration struct {
	module string
	path   string
	decl   ProducerDecl
}

// registry builds producer nodes on demand so that references may point forward or into
// other files
type registry struct {
	decls    map[string]declaration
	built    map[string]models.Node
	failed   map[string]error
	building map[string]bool
}

func newRegistry(files []*File) (*registry, error) {
	r := &registry{
		decls:    make(map[string]declaration),
		built:    make(map[string]models.Node),
		failed:   make(map[string]error),
		building: make(map[string]bool),
	}

	var errs error
	for _, f := range files {
		for _, p := range f.Producers {
			id := producerid.Format(f.Module, p.Name)
			if prev, exists := r.decls[id]; exists {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateProducer, id, prev.path, f.Path))
				continue
			}
			r.decls[id] = declaration{module: f.Module, path: f.Path, decl: p}
		}
	}

	for _, f := range files {
		for _, p := range f.Producers {
			if _, err := r.node(f.Module, p.Name); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	return r, errs
}

// node returns the producer ref resolves to, building it on first use
func (r *registry) node(module, ref string) (models.Node, error) {
	id := producerid.Qualify(module, ref)

	if n, ok := r.built[id]; ok {
		return n, nil
	}

	if err, ok := r.failed[id]; ok {
		return nil, err
	}

	d, ok := r.decls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProducer, id)
	}

	if r.building[id] {
		return nil, fmt.Errorf("%w: %s", ErrGroupCycle, id)
	}

	r.building[id] = true
	defer delete(r.building, id)

	n, err := r.build(d)
	if err != nil {
		err = fmt.Errorf("%s: %w", d.path, err)
		r.failed[id] = err
		return nil, err
	}

	r.built[id] = n

	return n, nil
}

func (r *registry) build(d declaration) (models.Node, error) {
	p := d.decl

	if !p.IsGroup() {
		return models.NewProducer(models.ProducerConfig{
			Module: d.module,
			Name:   p.Name,
			Call:   p.Call,
			Input:  models.Quantities(p.Input...),
			Output: models.Quantities(p.Output...),
			Scopes: p.Scopes,
			Params: p.Params,
		})
	}

	children, err := r.nodes(d.module, p.Subproducers)
	if err != nil {
		return nil, err
	}

	var scoped map[string][]models.Node
	if len(p.SubproducersByScope) > 0 {
		scoped = make(map[string][]models.Node, len(p.SubproducersByScope))
		for scope, refs := range p.SubproducersByScope {
			nodes, err := r.nodes(d.module, refs)
			if err != nil {
				return nil, err
			}
			scoped[scope] = nodes
		}
	}

	return models.NewGroup(models.GroupConfig{
		Module:             d.module,
		Name:               p.Name,
		Call:               p.Call,
		Input:              models.Quantities(p.Input...),
		Output:             models.Quantities(p.Output...),
		Scopes:             p.Scopes,
		Params:             p.Params,
		Subproducers:       children,
		ScopedSubproducers: scoped,
	})
}

func (r *registry) nodes(module string, refs []string) ([]models.Node, error) {
	out := make([]models.Node, 0, len(refs))
	for _, ref := range refs {
		n, err := r.node(module, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}

	return out, nil
}

// apply registers one file's declarations
func (r *registry) apply(c *configuration.Configuration, f *File) error {
	var errs error

	c.AddExternalInputs(models.Quantities(f.External...)...)

	for _, block := range f.Parameters {
		c.AddParametersFrom(fmt.Sprintf("%s:%d", f.Path, block.Line), block.Scopes, block.Values)
	}

	for _, add := range f.ProducersByScope {
		nodes, err := r.nodes(f.Module, add.Producers)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.Path, err))
			continue
		}
		c.AddProducers(add.Scopes, nodes...)
	}

	for _, rule := range f.Rules {
		deltas, err := r.deltas(f.Module, rule.Deltas)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: rule: %w", f.Path, err))
			continue
		}

		c.AddModificationRule(rule.Scopes, models.Rule{
			Deltas:         deltas,
			Samples:        rule.Samples,
			ExcludeSamples: rule.ExcludeSamples,
		})
	}

	for _, out := range f.Outputs {
		c.AddOutputs(out.Scopes, models.Quantities(out.Quantities...)...)
	}

	for _, decl := range f.Shifts {
		shift, err := r.shift(f.Module, decl)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: shift %s: %w", f.Path, decl.Name, err))
			continue
		}

		// Recorded by the configuration and reported on Freeze
		_ = c.AddShift(shift)
	}

	return errs
}

func (r *registry) shift(module string, decl ShiftDecl) (*models.Shift, error) {
	shift := &models.Shift{
		Name:            decl.Name,
		Scopes:          make(map[string]models.ShiftScope, len(decl.Scopes)),
		ExcludedSamples: decl.ExcludeSamples,
	}

	for scope, sd := range decl.Scopes {
		deltas, err := r.deltas(module, sd.Deltas)
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", scope, err)
		}

		var changes map[models.Quantity]models.Quantity
		if len(sd.QuantityChanges) > 0 {
			changes = make(map[models.Quantity]models.Quantity, len(sd.QuantityChanges))
			for from, to := range sd.QuantityChanges {
				changes[models.Quantity(from)] = models.Quantity(to)
			}
		}

		shift.Scopes[scope] = models.ShiftScope{
			Parameters:      sd.Parameters,
			Deltas:          deltas,
			QuantityChanges: changes,
			ExcludedSamples: sd.ExcludeSamples,
		}
	}

	return shift, nil
}

func (r *registry) deltas(module string, decls []DeltaDecl) ([]models.Delta, error) {
	deltas := make([]models.Delta, 0, len(decls))
	for _, d := range decls {
		delta, err := r.delta(module, d)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, delta)
	}

	return deltas, nil
}

func (r *registry) delta(module string, d DeltaDecl) (models.Delta, error) {
	set := lo.Filter([]string{d.Append, d.Remove, d.Replace}, func(s string, _ int) bool { return s != "" })
	if len(set) != 1 || (d.With != "") != (d.Replace != "") {
		return models.Delta{}, fmt.Errorf("%w: %+v", ErrInvalidDeltaDecl, d)
	}

	switch {
	case d.Append != "":
		n, err := r.node(module, d.Append)
		if err != nil {
			return models.Delta{}, err
		}
		return models.Append(n), nil
	case d.Remove != "":
		n, err := r.node(module, d.Remove)
		if err != nil {
			return models.Delta{}, err
		}
		return models.Remove(n), nil
	default:
		old, err := r.node(module, d.Replace)
		if err != nil {
			return models.Delta{}, err
		}
		replacement, err := r.node(module, d.With)
		if err != nil {
			return models.Delta{}, err
		}
		return models.Replace(old, replacement), nil
	}
}

// dedupe drops repeated messages, which occur when a broken producer is referenced twice
func dedupe(err error) error {
	if err == nil {
		return nil
	}

	return multierr.Combine(lo.UniqBy(multierr.Errors(err), func(e error) string { return e.Error() })...)
}
