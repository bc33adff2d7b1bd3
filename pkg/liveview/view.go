// Package liveview maintains a client-side synchronized window over one
// remote table: a bounded, ordered, filtered row set kept consistent under
// local mutations and asynchronous push events, with an optional debounced
// multi-field prefix-search overlay that temporarily replaces the window.
package liveview

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Moe03/suparisma/pkg/predicate"
	"github.com/Moe03/suparisma/pkg/types"
)

// View is one synchronized row-set instance, scoped to one table of one
// gateway. All methods are safe for concurrent use; state transitions are
// serialized internally.
type View struct {
	gw    types.Gateway
	table string
	log   Logger

	mu      sync.Mutex
	opts    Options
	matcher predicate.Matcher
	compare func(a, b types.Row) int
	order   types.OrderSpec // effective order: explicit, or created-desc

	rows        []types.Row
	loading     bool
	err         error
	totalCount  int
	fetchedOnce bool
	countedSig  string // filter signature behind the last count schedule

	queries    []SearchQuery
	searchLoad bool
	searchGen  int
	debounce   *time.Timer

	subs         *subscriptionManager
	countPending bool

	updates chan struct{}
	closed  bool
	bg      sync.WaitGroup
}

// New creates a view over table and performs the initial fetch. A filter
// compile failure fails construction; a gateway failure during the initial
// fetch does not (the view starts in its error state and recovers on the
// next triggered fetch). When push is enabled the change subscription is
// opened before the initial fetch so no event can be missed in between.
func New(ctx context.Context, gw types.Gateway, table string, opts Options) (*View, error) {
	opts = opts.normalize()
	matcher, err := predicate.Compile(opts.Filter)
	if err != nil {
		return nil, err
	}

	v := &View{
		gw:      gw,
		table:   table,
		log:     opts.Logger.With("table", table),
		opts:    opts,
		matcher: matcher,
		updates: make(chan struct{}, 1),
	}
	v.order = effectiveOrder(opts)
	v.compare = predicate.CompileComparator(v.order)
	v.subs = newSubscriptionManager(gw, table, v.log)

	if opts.EnablePush {
		if err := v.subs.open(ctx, opts.SubscriptionName, opts.Filter.Serialize(), v.handleEvent); err != nil {
			return nil, err
		}
	}

	v.runFetch(ctx, v.currentParams())
	return v, nil
}

// effectiveOrder resolves the order the view sorts by: the explicit spec,
// or descending creation timestamp. Rows without the creation field all
// compare equal under the fallback, which preserves insertion order.
func effectiveOrder(opts Options) types.OrderSpec {
	if len(opts.Order) > 0 {
		return opts.Order
	}
	return types.OrderSpec{{Field: opts.CreatedField, Direction: types.DirectionDesc}}
}

// Snapshot returns the current observable state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Rows:       append([]types.Row(nil), v.rows...),
		Loading:    v.loading,
		Err:        v.err,
		TotalCount: v.totalCount,
		Search: SearchState{
			Queries: append([]SearchQuery(nil), v.queries...),
			Loading: v.searchLoad,
		},
	}
}

// Updates returns a channel that receives a coalesced signal whenever the
// observable state changes. Consumers read the new state via Snapshot.
// The channel is closed when the view is closed.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// Options returns a copy of the view's current options.
func (v *View) Options() Options {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts
}

// Table returns the table name the view is scoped to.
func (v *View) Table() string { return v.table }

// FindParams overrides the query window for one fetch.
type FindParams struct {
	Filter types.Predicate
	Order  types.OrderSpec
	Limit  int
	Offset int
}

// currentParams reads the view's options as fetch parameters. Callers must
// hold no particular lock; options are copied atomically.
func (v *View) currentParams() FindParams {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentParamsLocked()
}

func (v *View) currentParamsLocked() FindParams {
	return FindParams{
		Filter: v.opts.Filter,
		Order:  v.order,
		Limit:  v.opts.Limit,
		Offset: v.opts.Offset,
	}
}

// FindMany fetches rows through the gateway and, when the search overlay
// is inactive, replaces the view's rows wholesale. With nil params the
// view's current options are used. The fetched rows are returned to the
// caller either way.
func (v *View) FindMany(ctx context.Context, params *FindParams) ([]types.Row, error) {
	p := v.currentParams()
	if params != nil {
		p = *params
	}
	return v.runFetch(ctx, p)
}

// FindFirst returns the first row matching params without touching the
// view's state. Returns types.ErrNotFound when nothing matches.
func (v *View) FindFirst(ctx context.Context, params *FindParams) (types.Row, error) {
	p := v.currentParams()
	if params != nil {
		p = *params
	}
	rows, err := v.gw.Select(ctx, v.table, p.Filter, p.Order, 1, p.Offset)
	if err != nil {
		return nil, types.WrapGateway("select", err)
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// FindUnique returns the row with the given key, without touching the
// view's state. Returns types.ErrNotFound when absent.
func (v *View) FindUnique(ctx context.Context, key any) (types.Row, error) {
	if key == nil {
		return nil, types.ErrMissingIdentifier
	}
	v.mu.Lock()
	keyField := v.opts.KeyField
	v.mu.Unlock()
	rows, err := v.gw.Select(ctx, v.table, types.Where(keyField, types.Equals(key)), nil, 1, 0)
	if err != nil {
		return nil, types.WrapGateway("select", err)
	}
	if len(rows) == 0 {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

// Refresh re-fetches with the current options, or with params when given.
// While the search overlay is active it re-runs the search with the
// current query set instead.
func (v *View) Refresh(ctx context.Context, params *FindParams) error {
	v.mu.Lock()
	if len(v.queries) > 0 {
		gen := v.searchGen
		v.stopDebounceLocked()
		v.mu.Unlock()
		v.executeSearch(gen)
		return nil
	}
	v.mu.Unlock()

	p := v.currentParams()
	if params != nil {
		p = *params
	}
	_, err := v.runFetch(ctx, p)
	return err
}

// SetOptions replaces the view's options. The change is applied
// semantically: a re-fetch happens only when filter, order, limit, or
// offset actually changed, and the push subscription is reopened or torn
// down only when EnablePush flipped. Query-window changes deliberately do
// not touch the subscription; its server-side filter stays as opened.
func (v *View) SetOptions(ctx context.Context, next Options) error {
	next = next.normalize()
	matcher, err := predicate.Compile(next.Filter)
	if err != nil {
		return err
	}

	v.mu.Lock()
	prev := v.opts
	v.opts = next
	v.matcher = matcher
	v.order = effectiveOrder(next)
	v.compare = predicate.CompileComparator(v.order)
	queryChanged := prev.querySignature() != next.querySignature()
	pushFlipped := prev.EnablePush != next.EnablePush
	v.mu.Unlock()

	if pushFlipped {
		if next.EnablePush {
			if err := v.subs.open(ctx, next.SubscriptionName, next.Filter.Serialize(), v.handleEvent); err != nil {
				return err
			}
		} else if err := v.subs.close(); err != nil {
			return err
		}
	}

	if queryChanged {
		_, err := v.runFetch(ctx, v.currentParams())
		return err
	}
	return nil
}

// Close tears the view down: the push subscription is closed exactly once,
// pending timers are cancelled, and background work is drained. The
// updates channel is closed last.
func (v *View) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.stopDebounceLocked()
	v.mu.Unlock()

	err := v.subs.close()
	v.bg.Wait()
	close(v.updates)
	return err
}

// runFetch performs one gateway select and applies the result. On failure
// the previous rows remain visible with the error set alongside. When the
// overlay is active the fetched rows are discarded (the overlay result is
// authoritative) but still returned to the caller. The total count is
// re-scheduled whenever the fetch filter differs from the last counted one.
func (v *View) runFetch(ctx context.Context, p FindParams) ([]types.Row, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, nil
	}
	v.loading = true
	v.notifyLocked()
	v.mu.Unlock()

	rows, err := v.gw.Select(ctx, v.table, p.Filter, p.Order, p.Limit, p.Offset)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if v.closed {
		return rows, err
	}
	if err != nil {
		v.err = types.WrapGateway("select", err)
		v.log.Error("fetch failed", "error", err)
		v.notifyLocked()
		return nil, v.err
	}
	v.err = nil
	if len(v.queries) == 0 {
		v.rows = rows
	}
	sig := p.Filter.Serialize()
	if !v.fetchedOnce || sig != v.countedSig {
		v.countedSig = sig
		v.scheduleCountRefreshLocked()
	}
	v.fetchedOnce = true
	v.notifyLocked()
	return rows, nil
}

// resortLocked re-sorts the row window by the effective comparator.
// Stable, so rows comparing equal keep their relative order.
func (v *View) resortLocked() {
	sort.SliceStable(v.rows, func(i, j int) bool {
		return v.compare(v.rows[i], v.rows[j]) < 0
	})
}

// indexOfLocked returns the position of the row with the given key, or -1.
func (v *View) indexOfLocked(key any) int {
	for i, row := range v.rows {
		if k, ok := row.Get(v.opts.KeyField); ok && predicate.CompareValues(k, key) == 0 {
			return i
		}
	}
	return -1
}

// notifyLocked signals the updates channel without blocking; back-to-back
// changes coalesce into one signal.
func (v *View) notifyLocked() {
	if v.closed {
		return
	}
	select {
	case v.updates <- struct{}{}:
	default:
	}
}
