package resolver

import "errors"

var (
	// ErrNotValidated is returned by Optimize, Expand and Report before a passing Validate
	ErrNotValidated = errors.New("configuration has not been validated")
	// ErrTargetIncomplete is returned when the era or sample is missing
	ErrTargetIncomplete = errors.New("era and sample are required")
	// ErrUnknownShift is reported when the shift allowlist names a shift that is not declared
	ErrUnknownShift = errors.New("unknown shift")
	// ErrUpstreamFailed is reported for a scope variant whose global scope variant failed
	ErrUpstreamFailed = errors.New("global scope variant failed")
	// ErrUnknownVariant is returned when a (scope, shift) pair is not part of the resolution
	ErrUnknownVariant = errors.New("unknown variant")
)
