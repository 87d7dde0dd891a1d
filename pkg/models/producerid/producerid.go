// Package producerid provides utilities for namespaced producer identification.
package producerid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProducerID is returned when a producer ID is not in the expected format.
var ErrInvalidProducerID = errors.New("invalid producer ID format, expected module.name")

// Format creates a standardized producer ID from module and producer names (format: "module.name").
// An empty module yields the bare name.
func Format(module, name string) string {
	if module == "" {
		return name
	}

	return fmt.Sprintf("%s.%s", module, name)
}

// Parse splits a producer ID into module and name components.
// Returns an error if the format is invalid.
func Parse(producerID string) (module, name string, err error) {
	parts := strings.Split(producerID, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidProducerID, producerID)
	}

	return parts[0], parts[1], nil
}

// Qualify returns ref as a full producer ID, namespacing bare names with module.
func Qualify(module, ref string) string {
	if strings.Contains(ref, ".") {
		return ref
	}

	return Format(module, ref)
}
