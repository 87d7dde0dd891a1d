package models

import (
	"regexp"
	"sort"
)

// placeholderPattern matches `{key}` placeholders in call templates
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// reservedPlaceholders are filled by the code emitter, not by parameters
//
//nolint:gochecknoglobals // Fixed placeholder set shared by every call template
var reservedPlaceholders = map[string]struct{}{
	"df":         {},
	"input":      {},
	"output":     {},
	"input_vec":  {},
	"output_vec": {},
}

// PlaceholderPattern returns the expression matching `{key}` placeholders
func PlaceholderPattern() *regexp.Regexp {
	return placeholderPattern
}

// IsReservedPlaceholder reports whether key is filled by the emitter rather than by a parameter
func IsReservedPlaceholder(key string) bool {
	_, ok := reservedPlaceholders[key]
	return ok
}

// CallParameters returns the sorted, unique parameter keys referenced by a call template
func CallParameters(call string) []string {
	seen := map[string]struct{}{}
	for _, match := range placeholderPattern.FindAllStringSubmatch(call, -1) {
		key := match[1]
		if IsReservedPlaceholder(key) {
			continue
		}
		seen[key] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
