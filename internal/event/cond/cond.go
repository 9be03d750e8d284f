// Package cond evaluates declarative conditions against event fields.
//
// A Condition names an event field (source, target, data or metadata), a
// property path inside that field, a comparison operator and an expected
// value. Listeners attach conditions to narrow delivery without writing a
// filter function.
package cond

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Field selects which part of an event a condition inspects.
type Field string

// Condition fields.
const (
	FieldSource   Field = "source"
	FieldTarget   Field = "target"
	FieldData     Field = "data"
	FieldMetadata Field = "metadata"
)

// Op is a comparison operator.
type Op string

// Supported operators.
const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpLt       Op = "lt"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpContains Op = "contains"
	OpMatches  Op = "matches"
)

// Condition is a single declarative check. All conditions attached to a
// listener must hold for the listener to be notified.
type Condition struct {
	Field    Field
	Property string
	Op       Op
	Value    any
}

// PropertyProvider lets opaque component references expose named
// properties to the evaluator without reflection.
type PropertyProvider interface {
	Property(name string) (any, bool)
}

// Match reports whether the condition holds for the given field root.
// The caller resolves Field to the corresponding event value and passes
// it as root.
func (c Condition) Match(root any) bool {
	actual, ok := lookup(root, c.Property)
	if !ok {
		return false
	}
	return compare(c.Op, actual, c.Value)
}

// lookup resolves a dotted property path inside root.
// An empty path yields root itself. Resolution tries, in order: the
// PropertyProvider interface, map traversal, and a JSON round-trip
// queried with a gjson path.
func lookup(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}
	if root == nil {
		return nil, false
	}

	if pp, ok := root.(PropertyProvider); ok {
		if v, ok := pp.Property(path); ok {
			return v, true
		}
	}

	if v, ok := lookupMap(root, path); ok {
		return v, true
	}

	raw, err := json.Marshal(root)
	if err != nil {
		return nil, false
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// lookupMap walks a dotted path through nested map[string]any values.
func lookupMap(root any, path string) (any, bool) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// compare applies op to the actual and expected values.
func compare(op Op, actual, expected any) bool {
	switch op {
	case OpEq:
		return equal(actual, expected)
	case OpNe:
		return !equal(actual, expected)
	case OpGt, OpGte, OpLt, OpLte:
		return ordered(op, actual, expected)
	case OpIn:
		return in(actual, expected)
	case OpContains:
		return containsValue(actual, expected)
	case OpMatches:
		return matches(actual, expected)
	default:
		return false
	}
}

// equal compares values, treating all numeric types as float64 so that
// JSON round-trips (which produce float64) still compare equal to ints.
func equal(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func ordered(op Op, a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		// Strings order lexically.
		as, aok := a.(string)
		bs, bok := b.(string)
		if !aok || !bok {
			return false
		}
		return orderedCmp(op, strings.Compare(as, bs))
	}
	switch {
	case af > bf:
		return orderedCmp(op, 1)
	case af < bf:
		return orderedCmp(op, -1)
	default:
		return orderedCmp(op, 0)
	}
}

func orderedCmp(op Op, c int) bool {
	switch op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

// in reports whether actual is a member of the expected collection.
func in(actual, expected any) bool {
	rv := reflect.ValueOf(expected)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if equal(actual, rv.Index(i).Interface()) {
				return true
			}
		}
	}
	return false
}

// containsValue reports whether actual (string or collection) contains
// expected.
func containsValue(actual, expected any) bool {
	if as, ok := actual.(string); ok {
		es, ok := expected.(string)
		return ok && strings.Contains(as, es)
	}
	rv := reflect.ValueOf(actual)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), expected) {
				return true
			}
		}
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if equal(k.Interface(), expected) {
				return true
			}
		}
	}
	return false
}

// matches applies an expected regular expression to a string value.
// Invalid patterns never match.
func matches(actual, expected any) bool {
	as, ok := actual.(string)
	if !ok {
		return false
	}
	pattern, ok := expected.(string)
	if !ok {
		return false
	}
	matched, err := regexp.MatchString(pattern, as)
	return err == nil && matched
}

// toFloat coerces any numeric type to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
