package liveview

import (
	"fmt"
	"strings"
	"time"

	"github.com/Moe03/suparisma/pkg/types"
)

// Default option values.
const (
	DefaultKeyField     = "id"
	DefaultCreatedField = "createdAt"
	DefaultDebounce     = 300 * time.Millisecond
)

// Options configures one View. The zero value is usable: no filter, no
// explicit order, unbounded window, push disabled. Options are copied at
// construction; a View never shares mutable option state with its caller
// or with other views.
type Options struct {
	// EnablePush opens a change subscription for the view's table and
	// reconciles incoming events into the row set.
	EnablePush bool

	// SubscriptionName names the push subscription. A unique name is
	// generated when empty.
	SubscriptionName string

	// Filter restricts the view to matching rows.
	Filter types.Predicate

	// Order sorts the view. When empty the view falls back to descending
	// CreatedField order, or insertion order if the rows carry no
	// creation timestamp.
	Order types.OrderSpec

	// Limit bounds the row window. Zero means unbounded.
	Limit int

	// Offset skips leading rows of the sorted result.
	Offset int

	// KeyField is the primary identifier field. Defaults to "id".
	KeyField string

	// CreatedField is the creation-timestamp field used for the implicit
	// default order. Defaults to "createdAt".
	CreatedField string

	// SearchFields is the set of fields the search overlay may query.
	// Queries against any other field are rejected.
	SearchFields []string

	// Debounce is the coalescing window for search execution.
	// Defaults to 300ms.
	Debounce time.Duration

	// Logger receives engine diagnostics. Defaults to a no-op logger.
	Logger Logger
}

// normalize fills defaults and returns a defensive copy.
func (o Options) normalize() Options {
	if o.KeyField == "" {
		o.KeyField = DefaultKeyField
	}
	if o.CreatedField == "" {
		o.CreatedField = DefaultCreatedField
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Logger == nil {
		o.Logger = NopLogger()
	}
	o.SearchFields = append([]string(nil), o.SearchFields...)
	o.Order = append(types.OrderSpec(nil), o.Order...)
	return o
}

// searchable reports whether field may be used by the search overlay.
func (o Options) searchable(field string) bool {
	for _, f := range o.SearchFields {
		if f == field {
			return true
		}
	}
	return false
}

// querySignature renders the parts of the options that affect which rows
// the view holds. Two option values with equal signatures require no
// re-fetch between them; this is a semantic comparison, not identity.
func (o Options) querySignature() string {
	var b strings.Builder
	b.WriteString(o.Filter.Serialize())
	b.WriteString("|")
	for _, entry := range o.Order {
		fmt.Fprintf(&b, "%s:%s;", entry.Field, entry.Direction)
	}
	fmt.Fprintf(&b, "|%d|%d", o.Limit, o.Offset)
	return b.String()
}
