// Package rendering fills call templates with bound parameter values and renders text reports
package rendering

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/ethpandaops/shiftgraph/pkg/models"
)

var (
	// ErrUnboundPlaceholder is returned when a call references a parameter that was not bound
	ErrUnboundPlaceholder = errors.New("call placeholder has no bound value")
	// ErrUnsupportedValue is returned for values that have no call-template representation
	ErrUnsupportedValue = errors.New("unsupported parameter value")
)

// RenderCall substitutes every `{key}` parameter placeholder in call with its bound value.
// Reserved placeholders such as {df} or {output} are left for the code emitter.
func RenderCall(call string, params map[string]any) (string, error) {
	var firstErr error

	rendered := models.PlaceholderPattern().ReplaceAllStringFunc(call, func(match string) string {
		key := match[1 : len(match)-1]
		if models.IsReservedPlaceholder(key) {
			return match
		}

		value, ok := params[key]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s", ErrUnboundPlaceholder, key)
			}
			return match
		}

		formatted, err := FormatValue(value)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("parameter %s: %w", key, err)
			}
			return match
		}

		return formatted
	})

	if firstErr != nil {
		return "", firstErr
	}

	return rendered, nil
}

// FormatValue returns the call-template text for a bound value. Strings are inserted
// verbatim; inside lists they are quoted. Slices, arrays and string-keyed maps of any
// element type use brace initializer syntax.
func FormatValue(v any) (string, error) {
	if v != nil {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	}

	return formatNested(v)
}

func formatNested(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: nil", ErrUnsupportedValue)
	}

	return formatReflect(reflect.ValueOf(v))
}

func formatReflect(rv reflect.Value) (string, error) {
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return "", fmt.Errorf("%w: nil", ErrUnsupportedValue)
		}
		return formatReflect(rv.Elem())
	case reflect.String:
		return strconv.Quote(rv.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32), nil
	case reflect.Float64:
		return formatFloat(rv.Float(), 64), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "{}", nil
		}

		parts := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			s, err := formatReflect(rv.Index(i))
			if err != nil {
				return "", fmt.Errorf("[%d]: %w", i, err)
			}
			parts = append(parts, s)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
		}

		keys := make([]string, 0, rv.Len())
		values := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			keys = append(keys, k)
			values[k] = iter.Value()
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := formatReflect(values[k])
			if err != nil {
				return "", fmt.Errorf("%s: %w", k, err)
			}
			parts = append(parts, fmt.Sprintf("{%s, %s}", strconv.Quote(k), s))
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
	}
}

// formatFloat keeps a decimal point so the value stays a floating point literal
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}

	return s
}
