package models

import "errors"

// Resolution errors
var (
	// ErrUnresolvedParameter is returned when a referenced parameter has no value for the era/sample and no default
	ErrUnresolvedParameter = errors.New("unresolved parameter")
	// ErrDuplicateKey is returned when a conditional mapping declares the same era or sample twice
	ErrDuplicateKey = errors.New("duplicate key in conditional mapping")
	// ErrCyclicDependency is returned when producers depend on each other's outputs in a loop
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrDuplicateOutput is returned when two active producers declare the same output quantity
	ErrDuplicateOutput = errors.New("duplicate output quantity")
	// ErrMissingInput is returned when an input quantity is neither external nor produced earlier
	ErrMissingInput = errors.New("missing input quantity")
	// ErrMissingOutput is returned when a requested output quantity is not produced in a scope
	ErrMissingOutput = errors.New("requested output not produced")
	// ErrUnknownShiftTarget is reported when a remove or replace names a producer absent from the scope
	ErrUnknownShiftTarget = errors.New("shift target not found in scope")
)

// Declaration errors
var (
	ErrProducerNameRequired = errors.New("producer name is required")
	ErrScopesRequired       = errors.New("producer must apply to at least one scope")
	ErrCallRequired         = errors.New("producer call template is required")
	ErrEmptyGroup           = errors.New("producer group must have at least one subproducer")
	ErrShiftNameRequired    = errors.New("shift name is required")
	ErrReservedShiftName    = errors.New("shift name is reserved")
	ErrDuplicateShiftName   = errors.New("duplicate shift name")
	ErrInvalidDelta         = errors.New("invalid producer delta")
	ErrInvalidBinding       = errors.New("invalid parameter binding")
)
