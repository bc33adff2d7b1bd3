// Package types defines the shared contracts of the suparisma engine:
// the row shape, filter and ordering descriptors, change events, and the
// gateway interface that storage backends must implement.
package types

// Row is a single record as produced by a gateway: an opaque mapping of
// field name to scalar or array value. Rows are treated as immutable value
// snapshots; the engine replaces rows wholesale and never mutates one in
// place.
type Row map[string]any

// Get returns the value for field, and whether the field is present.
func (r Row) Get(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Direction specifies a sort direction.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// IsValid checks if the direction is valid.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionAsc, DirectionDesc:
		return true
	default:
		return false
	}
}

// String returns the string representation of the direction.
func (d Direction) String() string {
	return string(d)
}

// OrderEntry is one (field, direction) pair of an OrderSpec.
type OrderEntry struct {
	Field     string
	Direction Direction
}

// OrderSpec is an ordered sequence of sort keys. Sequence order determines
// tie-break precedence: the first entry is the primary sort key.
type OrderSpec []OrderEntry
