package validation

import (
	"sync"
)

// MockValidator is a mock implementation of Validator for testing
type MockValidator struct {
	mu sync.Mutex

	// Control behavior
	ValidateFunc func(v Variant) Result

	// Track calls for assertions
	ValidateCalls []ValidateCall
}

// ValidateCall records a Validate call
type ValidateCall struct {
	Scope     string
	Shift     string
	Producers []string
}

// NewMockValidator creates a new mock validator
func NewMockValidator() *MockValidator {
	return &MockValidator{
		ValidateCalls: make([]ValidateCall, 0),
	}
}

// Validate implements Validator
func (m *MockValidator) Validate(v Variant) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(v.Producers))
	for _, p := range v.Producers {
		ids = append(ids, p.ID())
	}

	m.ValidateCalls = append(m.ValidateCalls, ValidateCall{
		Scope:     v.Scope,
		Shift:     v.Shift,
		Producers: ids,
	})

	if m.ValidateFunc != nil {
		return m.ValidateFunc(v)
	}

	return Result{Bindings: map[string]map[string]any{}}
}

// GetValidateCalls returns a copy of the recorded calls
func (m *MockValidator) GetValidateCalls() []ValidateCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]ValidateCall(nil), m.ValidateCalls...)
}

// Reset clears all recorded calls
func (m *MockValidator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ValidateCalls = make([]ValidateCall, 0)
}

// Ensure MockValidator implements Validator
var _ Validator = (*MockValidator)(nil)
