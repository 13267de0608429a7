package eligibility

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/spf13/cast"
)

// Evaluate evaluates one qualifier against the attribute map. It never panics:
// absent fields, type mismatches and unknown operators all evaluate to false.
func Evaluate(q domain.Qualifier, attrs map[string]any) bool {
	actual, ok := lookup(attrs, q.Field)
	if !ok {
		return false
	}

	switch q.Operator {
	case domain.OpEqual:
		return equal(actual, q.Value)
	case domain.OpNotEqual:
		return !equal(actual, q.Value)
	case domain.OpGreater:
		return compare(actual, q.Value, func(a, b float64) bool { return a > b })
	case domain.OpGreaterEqual:
		return compare(actual, q.Value, func(a, b float64) bool { return a >= b })
	case domain.OpLess:
		return compare(actual, q.Value, func(a, b float64) bool { return a < b })
	case domain.OpLessEqual:
		return compare(actual, q.Value, func(a, b float64) bool { return a <= b })
	case domain.OpIn:
		in, ok := member(actual, q.Value)
		return ok && in
	case domain.OpNotIn:
		in, ok := member(actual, q.Value)
		return ok && !in
	case domain.OpContains:
		return contains(actual, q.Value)
	default:
		return false
	}
}

// lookup resolves a field by exact key first, then as a dotted path into nested maps.
func lookup(attrs map[string]any, field string) (any, bool) {
	if attrs == nil || field == "" {
		return nil, false
	}
	if v, ok := attrs[field]; ok {
		return v, v != nil
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}

	var current any = attrs
	for _, part := range strings.Split(field, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// equal is structural equality where numbers compare by value across numeric types.
func equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		x, okA := toNumber(a)
		y, okB := toNumber(b)
		return okA && okB && x == y
	}
	return reflect.DeepEqual(a, b)
}

// compare applies an ordering predicate when both operands are numeric or numeric strings.
func compare(a, b any, pred func(x, y float64) bool) bool {
	x, ok := toNumber(a)
	if !ok {
		return false
	}
	y, ok := toNumber(b)
	if !ok {
		return false
	}
	return pred(x, y)
}

// member reports whether elem is in set. The second result is false when set is not a list.
func member(elem, set any) (bool, bool) {
	items, ok := asSlice(set)
	if !ok {
		return false, false
	}
	for _, item := range items {
		if equal(elem, item) {
			return true, true
		}
	}
	return false, true
}

// contains treats container as a list, a map (by key) or a string (by substring).
func contains(container, elem any) bool {
	if s, ok := container.(string); ok {
		sub, ok := elem.(string)
		return ok && strings.Contains(s, sub)
	}
	if m, ok := asMap(container); ok {
		_, found := m[fmt.Sprint(elem)]
		return found
	}
	in, ok := member(elem, container)
	return ok && in
}

func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

// toNumber accepts numeric values and numeric strings. Booleans are not numbers.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case bool, nil:
		return 0, false
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(val))
		return f, err == nil && strings.TrimSpace(val) != ""
	}
	if !isNumber(v) {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}
