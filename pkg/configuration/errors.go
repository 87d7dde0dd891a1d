package configuration

import "errors"

// Configuration build errors
var (
	ErrNoScopes           = errors.New("at least one scope is required")
	ErrUnknownScope       = errors.New("unknown scope")
	ErrScopeNotApplicable = errors.New("producer does not apply to scope")
	ErrFrozen             = errors.New("configuration is frozen")
)
