package predicate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Moe03/suparisma/pkg/types"
)

// Matcher reports whether a row satisfies a compiled predicate.
type Matcher func(types.Row) bool

// Compile translates a predicate into a matcher. Operator/operand
// compatibility is validated once here, so the matcher itself is a pure
// boolean function. Returns types.ErrInvalidFilter (wrapped with the
// offending field and operator) on an incompatible operand.
func Compile(filter types.Predicate) (Matcher, error) {
	if filter.IsEmpty() {
		return func(types.Row) bool { return true }, nil
	}

	for _, field := range filter.Fields() {
		for _, cond := range filter[field] {
			if err := validateCondition(field, cond); err != nil {
				return nil, err
			}
		}
	}

	// Copy so later mutation of the caller's map cannot change the matcher.
	compiled := make(types.Predicate, len(filter))
	for field, conds := range filter {
		compiled[field] = append([]types.Condition(nil), conds...)
	}

	return func(row types.Row) bool {
		for field, conds := range compiled {
			value, present := row.Get(field)
			for _, cond := range conds {
				if !matchCondition(value, present, cond) {
					return false
				}
			}
		}
		return true
	}, nil
}

// validateCondition checks operand type compatibility for one condition.
func validateCondition(field string, cond types.Condition) error {
	if !cond.Op.IsValid() {
		return fmt.Errorf("%w: field %q: unknown operator %q", types.ErrInvalidFilter, field, cond.Op)
	}
	switch cond.Op {
	case types.OpContains, types.OpStartsWith, types.OpEndsWith:
		if _, ok := cond.Operand.(string); !ok {
			return fmt.Errorf("%w: field %q: %s requires a string operand, got %T",
				types.ErrInvalidFilter, field, cond.Op, cond.Operand)
		}
	case types.OpIn, types.OpNotIn, types.OpHasEvery, types.OpHasSome:
		if _, ok := toSlice(cond.Operand); !ok {
			return fmt.Errorf("%w: field %q: %s requires an array operand, got %T",
				types.ErrInvalidFilter, field, cond.Op, cond.Operand)
		}
	case types.OpIsEmpty:
		if _, ok := cond.Operand.(bool); !ok {
			return fmt.Errorf("%w: field %q: isEmpty requires a bool operand, got %T",
				types.ErrInvalidFilter, field, cond.Op)
		}
	}
	return nil
}

// matchCondition evaluates one condition against one field value. A field
// absent from the row matches nothing except isEmpty(true) and not; it is
// never an error.
func matchCondition(value any, present bool, cond types.Condition) bool {
	if !present {
		switch cond.Op {
		case types.OpIsEmpty:
			return cond.Operand.(bool)
		case types.OpNot:
			return !isNil(cond.Operand)
		default:
			return false
		}
	}

	switch cond.Op {
	case types.OpEquals:
		return looseEqual(value, cond.Operand)
	case types.OpNot:
		return !looseEqual(value, cond.Operand)
	case types.OpIn:
		operands, _ := toSlice(cond.Operand)
		for _, o := range operands {
			if looseEqual(value, o) {
				return true
			}
		}
		return false
	case types.OpNotIn:
		operands, _ := toSlice(cond.Operand)
		for _, o := range operands {
			if looseEqual(value, o) {
				return false
			}
		}
		return true
	case types.OpLt:
		return CompareValues(value, cond.Operand) < 0
	case types.OpLte:
		return CompareValues(value, cond.Operand) <= 0
	case types.OpGt:
		return CompareValues(value, cond.Operand) > 0
	case types.OpGte:
		return CompareValues(value, cond.Operand) >= 0
	case types.OpContains:
		return matchSubstring(value, cond.Operand.(string), strings.Contains)
	case types.OpStartsWith:
		return matchSubstring(value, cond.Operand.(string), strings.HasPrefix)
	case types.OpEndsWith:
		return matchSubstring(value, cond.Operand.(string), strings.HasSuffix)
	case types.OpHas:
		items, ok := toSlice(value)
		if !ok {
			return false
		}
		for _, item := range items {
			if looseEqual(item, cond.Operand) {
				return true
			}
		}
		return false
	case types.OpHasEvery:
		items, ok := toSlice(value)
		if !ok {
			return false
		}
		operands, _ := toSlice(cond.Operand)
		for _, o := range operands {
			if !sliceHas(items, o) {
				return false
			}
		}
		return true
	case types.OpHasSome:
		items, ok := toSlice(value)
		if !ok {
			return false
		}
		operands, _ := toSlice(cond.Operand)
		for _, o := range operands {
			if sliceHas(items, o) {
				return true
			}
		}
		return false
	case types.OpIsEmpty:
		items, ok := toSlice(value)
		if !ok {
			return false
		}
		return (len(items) == 0) == cond.Operand.(bool)
	default:
		return false
	}
}

// matchSubstring applies a case-insensitive string test.
func matchSubstring(value any, operand string, test func(s, substr string) bool) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return test(strings.ToLower(s), strings.ToLower(operand))
}

// looseEqual compares values across numeric kinds and time forms, so a
// row value of int64(5) matches an operand of 5.
func looseEqual(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	if at, aok := toTime(a); aok {
		if bt, bok := toTime(b); bok {
			return at.Equal(bt)
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as == bs
		}
	}
	return reflect.DeepEqual(a, b)
}

// sliceHas reports whether items contains v under loose equality.
func sliceHas(items []any, v any) bool {
	for _, item := range items {
		if looseEqual(item, v) {
			return true
		}
	}
	return false
}

// toSlice normalizes any slice or array value to []any.
func toSlice(v any) ([]any, bool) {
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
