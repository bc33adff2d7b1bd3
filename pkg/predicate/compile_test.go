package predicate

import (
	"testing"

	"github.com/Moe03/suparisma/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRow = types.Row{
	"id":    "r1",
	"name":  "Widget Deluxe",
	"count": 42,
	"tags":  []any{"alpha", "beta"},
	"empty": []any{},
}

func TestCompileOperators(t *testing.T) {
	tests := []struct {
		name     string
		filter   types.Predicate
		expected bool
	}{
		{name: "equals match", filter: types.Where("name", types.Equals("Widget Deluxe")), expected: true},
		{name: "equals mismatch", filter: types.Where("name", types.Equals("Gadget")), expected: false},
		{name: "equals across numeric kinds", filter: types.Where("count", types.Equals(42.0)), expected: true},
		{name: "not", filter: types.Where("name", types.Not("Gadget")), expected: true},
		{name: "in", filter: types.Where("count", types.In(1, 42, 99)), expected: true},
		{name: "notIn", filter: types.Where("count", types.NotIn(1, 42)), expected: false},
		{name: "lt", filter: types.Where("count", types.Lt(50)), expected: true},
		{name: "lte boundary", filter: types.Where("count", types.Lte(42)), expected: true},
		{name: "gt boundary", filter: types.Where("count", types.Gt(42)), expected: false},
		{name: "gte", filter: types.Where("count", types.Gte(42)), expected: true},
		{name: "contains is case-insensitive", filter: types.Where("name", types.Contains("deluxe")), expected: true},
		{name: "contains on non-string row value", filter: types.Where("count", types.Contains("4")), expected: false},
		{name: "startsWith", filter: types.Where("name", types.StartsWith("widget")), expected: true},
		{name: "endsWith", filter: types.Where("name", types.EndsWith("DELUXE")), expected: true},
		{name: "has", filter: types.Where("tags", types.Has("beta")), expected: true},
		{name: "has absent element", filter: types.Where("tags", types.Has("gamma")), expected: false},
		{name: "hasEvery superset", filter: types.Where("tags", types.HasEvery("alpha", "beta")), expected: true},
		{name: "hasEvery partial", filter: types.Where("tags", types.HasEvery("alpha", "gamma")), expected: false},
		{name: "hasSome intersection", filter: types.Where("tags", types.HasSome("gamma", "beta")), expected: true},
		{name: "hasSome disjoint", filter: types.Where("tags", types.HasSome("gamma", "delta")), expected: false},
		{name: "isEmpty true on empty array", filter: types.Where("empty", types.IsEmpty(true)), expected: true},
		{name: "isEmpty false on populated array", filter: types.Where("tags", types.IsEmpty(false)), expected: true},
		{
			name: "conditions on one field are AND-ed",
			filter: types.Where("count",
				types.Gt(10),
				types.Lt(40),
			),
			expected: false,
		},
		{
			name: "fields are AND-ed",
			filter: types.Predicate{
				"name":  {types.StartsWith("widget")},
				"count": {types.Equals(42)},
			},
			expected: true,
		},
		{name: "absent field never matches equality", filter: types.Where("missing", types.Equals("x")), expected: false},
		{name: "absent field matches not", filter: types.Where("missing", types.Not("x")), expected: true},
		{name: "absent field is empty", filter: types.Where("missing", types.IsEmpty(true)), expected: true},
		{name: "nil filter matches everything", filter: nil, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := Compile(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matcher(sampleRow))
		})
	}
}

func TestCompileRejectsIncompatibleOperands(t *testing.T) {
	tests := []struct {
		name   string
		filter types.Predicate
	}{
		{name: "contains on non-string operand", filter: types.Where("count", types.Condition{Op: types.OpContains, Operand: 4})},
		{name: "startsWith on bool operand", filter: types.Where("name", types.Condition{Op: types.OpStartsWith, Operand: true})},
		{name: "in with scalar operand", filter: types.Where("count", types.Condition{Op: types.OpIn, Operand: 42})},
		{name: "hasEvery with scalar operand", filter: types.Where("tags", types.Condition{Op: types.OpHasEvery, Operand: "alpha"})},
		{name: "isEmpty with string operand", filter: types.Where("tags", types.Condition{Op: types.OpIsEmpty, Operand: "yes"})},
		{name: "unknown operator", filter: types.Where("name", types.Condition{Op: "like", Operand: "x"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.filter)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidFilter)
		})
	}
}

func TestCompileIsolatedFromCallerMutation(t *testing.T) {
	filter := types.Where("name", types.Equals("Widget Deluxe"))
	matcher, err := Compile(filter)
	require.NoError(t, err)

	filter["name"] = []types.Condition{types.Equals("changed")}
	assert.True(t, matcher(sampleRow), "matcher must not observe later filter mutation")
}

func TestPredicateSerialize(t *testing.T) {
	a := types.Predicate{
		"name":  {types.StartsWith("w")},
		"count": {types.Gte(10)},
	}
	b := types.Predicate{
		"count": {types.Gte(10)},
		"name":  {types.StartsWith("w")},
	}
	assert.Equal(t, a.Serialize(), b.Serialize(), "serialization is deterministic across map order")
	assert.True(t, a.Equal(b))
	assert.Empty(t, types.Predicate(nil).Serialize())
}
