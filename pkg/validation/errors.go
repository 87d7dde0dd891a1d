package validation

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/shiftgraph/pkg/models"
)

// VariantError attaches the scope and shift to an error found while resolving a variant
type VariantError struct {
	Scope string
	Shift string
	Err   error
}

// Error implements error
func (e *VariantError) Error() string {
	return fmt.Sprintf("scope %s, shift %s: %v", e.Scope, e.Shift, e.Err)
}

// Unwrap returns the underlying error
func (e *VariantError) Unwrap() error {
	return e.Err
}

//nolint:gochecknoglobals // Lookup table of error kinds, read only
var kinds = []struct {
	err  error
	kind string
}{
	{models.ErrUnresolvedParameter, "unresolved_parameter"},
	{models.ErrDuplicateKey, "duplicate_key"},
	{models.ErrCyclicDependency, "cyclic_dependency"},
	{models.ErrDuplicateOutput, "duplicate_output"},
	{models.ErrMissingInput, "missing_input"},
	{models.ErrMissingOutput, "missing_output"},
	{models.ErrUnknownShiftTarget, "unknown_shift_target"},
	{models.ErrInvalidBinding, "invalid_binding"},
}

// Kind returns a short label for the error class of err, used for metrics and reports
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return "other"
}
