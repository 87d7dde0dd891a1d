package loader

import "errors"

var (
	// ErrModuleRequired is returned when a declaration file has no module namespace
	ErrModuleRequired = errors.New("declaration file must set a module")
	// ErrDuplicateProducer is returned when two declarations share a producer ID
	ErrDuplicateProducer = errors.New("duplicate producer declaration")
	// ErrUnknownProducer is returned when a reference names no declared producer
	ErrUnknownProducer = errors.New("unknown producer reference")
	// ErrGroupCycle is returned when a group contains itself through its subproducers
	ErrGroupCycle = errors.New("producer group contains itself")
	// ErrInvalidConditional is returned for malformed by_era/by_sample mappings
	ErrInvalidConditional = errors.New("invalid conditional value")
	// ErrInvalidValues is returned when parameter values are not a mapping
	ErrInvalidValues = errors.New("parameter values must be a mapping")
	// ErrInvalidDeltaDecl is returned when a delta does not name exactly one operation
	ErrInvalidDeltaDecl = errors.New("delta must set exactly one of append, remove or replace")
)
