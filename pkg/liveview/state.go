package liveview

import "github.com/Moe03/suparisma/pkg/types"

// SearchQuery is one active (field, value) prefix query of the overlay.
type SearchQuery struct {
	Field string
	Value string
}

// SearchState describes the search overlay. The overlay is active, and
// substituting the view's rows, exactly while Queries is non-empty.
type SearchState struct {
	Queries []SearchQuery
	Loading bool
}

// Active reports whether the overlay currently substitutes the row set.
func (s SearchState) Active() bool { return len(s.Queries) > 0 }

// State is a point-in-time snapshot of a view, safe to retain: the row
// slice is copied and rows themselves are immutable.
type State struct {
	// Rows is the current bounded, ordered, filtered window. While the
	// search overlay is active it holds the overlay's result instead.
	Rows []types.Row

	// Loading is true while a fetch is in flight.
	Loading bool

	// Err is the most recent operation failure. It is cleared by the
	// next success of the same kind of operation; rows stay stale but
	// available alongside it.
	Err error

	// TotalCount is the total number of rows matching the current
	// filter, independent of the limit/offset window. While the overlay
	// is active it is the pre-pagination size of the merged search
	// result instead.
	TotalCount int

	// Search describes the search overlay.
	Search SearchState
}
