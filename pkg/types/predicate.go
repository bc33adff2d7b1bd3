package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Op identifies a filter operator.
type Op string

const (
	OpEquals     Op = "equals"
	OpNot        Op = "not"
	OpIn         Op = "in"
	OpNotIn      Op = "notIn"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpHas        Op = "has"
	OpHasEvery   Op = "hasEvery"
	OpHasSome    Op = "hasSome"
	OpIsEmpty    Op = "isEmpty"
)

// IsValid checks if the operator is a known filter operator.
func (o Op) IsValid() bool {
	switch o {
	case OpEquals, OpNot, OpIn, OpNotIn, OpLt, OpLte, OpGt, OpGte,
		OpContains, OpStartsWith, OpEndsWith, OpHas, OpHasEvery,
		OpHasSome, OpIsEmpty:
		return true
	default:
		return false
	}
}

// String returns the string representation of the operator.
func (o Op) String() string {
	return string(o)
}

// Condition applies one operator to one field value.
type Condition struct {
	Op      Op
	Operand any
}

// Predicate maps field names to the conditions they must satisfy.
// Conditions on one field are AND-ed, as are conditions across fields.
type Predicate map[string][]Condition

// Equals builds an equality condition.
func Equals(v any) Condition { return Condition{Op: OpEquals, Operand: v} }

// Not builds an inequality condition.
func Not(v any) Condition { return Condition{Op: OpNot, Operand: v} }

// In builds a membership condition over the given values.
func In(vs ...any) Condition { return Condition{Op: OpIn, Operand: vs} }

// NotIn builds a non-membership condition over the given values.
func NotIn(vs ...any) Condition { return Condition{Op: OpNotIn, Operand: vs} }

// Lt builds a less-than condition.
func Lt(v any) Condition { return Condition{Op: OpLt, Operand: v} }

// Lte builds a less-than-or-equal condition.
func Lte(v any) Condition { return Condition{Op: OpLte, Operand: v} }

// Gt builds a greater-than condition.
func Gt(v any) Condition { return Condition{Op: OpGt, Operand: v} }

// Gte builds a greater-than-or-equal condition.
func Gte(v any) Condition { return Condition{Op: OpGte, Operand: v} }

// Contains builds a case-insensitive substring condition.
func Contains(s string) Condition { return Condition{Op: OpContains, Operand: s} }

// StartsWith builds a case-insensitive prefix condition.
func StartsWith(s string) Condition { return Condition{Op: OpStartsWith, Operand: s} }

// EndsWith builds a case-insensitive suffix condition.
func EndsWith(s string) Condition { return Condition{Op: OpEndsWith, Operand: s} }

// Has builds a condition matching array fields containing v.
func Has(v any) Condition { return Condition{Op: OpHas, Operand: v} }

// HasEvery builds a condition matching array fields containing every value.
func HasEvery(vs ...any) Condition { return Condition{Op: OpHasEvery, Operand: vs} }

// HasSome builds a condition matching array fields containing any value.
func HasSome(vs ...any) Condition { return Condition{Op: OpHasSome, Operand: vs} }

// IsEmpty builds a condition on array-field emptiness.
func IsEmpty(empty bool) Condition { return Condition{Op: OpIsEmpty, Operand: empty} }

// Where is a convenience constructor for a single-field predicate.
func Where(field string, conds ...Condition) Predicate {
	return Predicate{field: conds}
}

// IsEmpty returns true if the predicate has no conditions.
func (p Predicate) IsEmpty() bool {
	for _, conds := range p {
		if len(conds) > 0 {
			return false
		}
	}
	return true
}

// Fields returns the filtered field names in sorted order.
func (p Predicate) Fields() []string {
	fields := make([]string, 0, len(p))
	for f := range p {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// EqualityFields returns the subset of the predicate that uses only the
// equals operator, as a field-to-operand map. Fields carrying any other
// operator are excluded.
func (p Predicate) EqualityFields() map[string]any {
	out := map[string]any{}
	for field, conds := range p {
		if len(conds) != 1 || conds[0].Op != OpEquals {
			continue
		}
		out[field] = conds[0].Operand
	}
	return out
}

// Serialize renders the predicate in a compact deterministic textual form,
// suitable as a server-side subscription filter string. Two semantically
// equal predicates serialize identically.
func (p Predicate) Serialize() string {
	if p.IsEmpty() {
		return ""
	}
	var parts []string
	for _, field := range p.Fields() {
		for _, cond := range p[field] {
			operand, err := json.Marshal(cond.Operand)
			if err != nil {
				operand = []byte(fmt.Sprintf("%q", fmt.Sprint(cond.Operand)))
			}
			parts = append(parts, fmt.Sprintf("%s.%s=%s", field, cond.Op, operand))
		}
	}
	return strings.Join(parts, "&")
}

// Equal reports whether two predicates are semantically equal.
func (p Predicate) Equal(other Predicate) bool {
	return p.Serialize() == other.Serialize()
}
