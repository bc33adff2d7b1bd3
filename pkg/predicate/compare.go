// Package predicate compiles filter and ordering descriptors into the
// matcher and comparator primitives used throughout the engine.
package predicate

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Moe03/suparisma/pkg/types"
)

// CompareValues imposes a total order on heterogeneous field values.
// Nil sorts first, numbers compare numerically, timestamps compare by
// instant, and everything else compares by its lexicographic string form.
// Returns -1, 0, or 1.
func CompareValues(a, b any) int {
	aNil := isNil(a)
	bNil := isNil(b)
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return -1
	case bNil:
		return 1
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	if at, aok := toTime(a); aok {
		if bt, bok := toTime(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// CompileComparator builds a row comparator from an order spec. Entries
// are applied in sequence as tie-breaks; a missing field compares as nil,
// so it sorts first ascending and last descending. An empty spec yields a
// comparator that reports all rows equal (insertion order preserved by
// stable sorts).
func CompileComparator(order types.OrderSpec) func(a, b types.Row) int {
	entries := make(types.OrderSpec, len(order))
	copy(entries, order)
	return func(a, b types.Row) int {
		for _, entry := range entries {
			c := CompareValues(a[entry.Field], b[entry.Field])
			if entry.Direction == types.DirectionDesc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
}

// isNil reports whether v is nil, including typed nils.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

// toFloat coerces any numeric kind to float64.
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
	default:
		return 0, false
	}
}

// toTime coerces time.Time values and RFC3339 strings to an instant.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
