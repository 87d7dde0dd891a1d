// Package validation checks that an ordered variant can run: every input is available, no
// quantity is defined twice, every parameter resolves and every requested output exists
package validation

import (
	"fmt"

	"github.com/ethpandaops/shiftgraph/pkg/models"
	"github.com/sirupsen/logrus"
)

// Validator defines the interface for variant validation
type Validator interface {
	// Validate checks an ordered variant and binds its parameters
	Validate(v Variant) Result
}

// variantValidator implements the Validator interface
type variantValidator struct {
	log logrus.FieldLogger
}

// NewValidator creates a new variant validator
func NewValidator(log logrus.FieldLogger) Validator {
	return &variantValidator{
		log: log.WithField("service", "validator"),
	}
}

// Validate runs every check and collects all errors instead of stopping at the first
func (v *variantValidator) Validate(variant Variant) Result {
	var errs []error

	produced, inputErrs := CheckInputs(variant.Producers, variant.Available)
	errs = append(errs, inputErrs...)
	errs = append(errs, CheckOutputs(variant.Producers)...)

	bindings, paramErrs := BindParameters(variant.Producers, variant.Parameters)
	errs = append(errs, paramErrs...)

	errs = append(errs, CheckRequested(variant.Requested, variant.Available, produced)...)

	wrapped := make([]error, 0, len(errs))
	for _, err := range errs {
		wrapped = append(wrapped, &VariantError{Scope: variant.Scope, Shift: variant.Shift, Err: err})
	}

	v.log.WithFields(logrus.Fields{
		"scope":     variant.Scope,
		"shift":     variant.Shift,
		"producers": len(variant.Producers),
		"errors":    len(wrapped),
	}).Debug("Validated variant")

	return Result{
		Bindings: bindings,
		Produced: produced,
		Errors:   wrapped,
	}
}

// CheckInputs walks producers in order and reports every input that is neither available
// up front nor produced by an earlier producer. It returns the quantities produced.
func CheckInputs(producers []*models.Producer, available models.QuantitySet) (models.QuantitySet, []error) {
	produced := models.NewQuantitySet()

	var errs []error
	for _, p := range producers {
		for _, q := range p.Input() {
			if available.Has(q) || produced.Has(q) {
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %s consumed by %s is neither external nor produced earlier",
				models.ErrMissingInput, q, p.ID()))
		}

		produced.Add(p.Output()...)
	}

	return produced, errs
}

// CheckOutputs reports every quantity defined by more than one producer, naming the first
// producer that defined it and the one that defined it again
func CheckOutputs(producers []*models.Producer) []error {
	definedBy := make(map[models.Quantity]string)

	var errs []error
	for _, p := range producers {
		for _, q := range p.Output() {
			if first, exists := definedBy[q]; exists {
				errs = append(errs, fmt.Errorf("%w: %s defined by both %s and %s", models.ErrDuplicateOutput, q, first, p.ID()))
				continue
			}
			definedBy[q] = p.ID()
		}
	}

	return errs
}

// BindParameters resolves every parameter referenced by producers. Each key is resolved
// once; a failure is reported once, naming the first producer referencing the key.
func BindParameters(producers []*models.Producer, resolve ParameterFunc) (map[string]map[string]any, []error) {
	type outcome struct {
		value any
		err   error
	}

	cache := make(map[string]outcome)
	bindings := make(map[string]map[string]any, len(producers))

	var errs []error
	for _, p := range producers {
		bound := make(map[string]any, len(p.Params()))

		for _, key := range p.Params() {
			res, seen := cache[key]
			if !seen {
				value, err := resolve(key)
				res = outcome{value: value, err: err}
				cache[key] = res

				if err != nil {
					errs = append(errs, fmt.Errorf("producer %s: %w", p.ID(), err))
				}
			}

			if res.err == nil {
				bound[key] = res.value
			}
		}

		bindings[p.ID()] = bound
	}

	return bindings, errs
}

// CheckRequested reports every requested quantity that is neither available nor produced
func CheckRequested(requested []models.Quantity, available, produced models.QuantitySet) []error {
	var errs []error
	for _, q := range requested {
		if available.Has(q) || produced.Has(q) {
			continue
		}
		errs = append(errs, fmt.Errorf("%w: %s", models.ErrMissingOutput, q))
	}

	return errs
}
