package liveview

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Moe03/suparisma/pkg/predicate"
	"github.com/Moe03/suparisma/pkg/types"
)

// AddQuery adds or replaces one prefix query of the search overlay and
// (re)starts the debounce window. A query against a field outside the
// configured searchable set, or with an empty value after trimming, is
// rejected as a no-op.
func (v *View) AddQuery(field, value string) {
	value = strings.TrimSpace(value)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || value == "" || !v.opts.searchable(field) {
		return
	}
	replaced := false
	for i, q := range v.queries {
		if q.Field == field {
			v.queries[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		v.queries = append(v.queries, SearchQuery{Field: field, Value: value})
	}
	v.restartDebounceLocked()
	v.notifyLocked()
}

// SetQueries replaces the whole query set. Entries failing validation are
// filtered out; a later entry for the same field wins. An empty resulting
// set deactivates the overlay.
func (v *View) SetQueries(queries []SearchQuery) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	next := make([]SearchQuery, 0, len(queries))
	for _, q := range queries {
		value := strings.TrimSpace(q.Value)
		if value == "" || !v.opts.searchable(q.Field) {
			continue
		}
		kept := false
		for i := range next {
			if next[i].Field == q.Field {
				next[i].Value = value
				kept = true
				break
			}
		}
		if !kept {
			next = append(next, SearchQuery{Field: q.Field, Value: value})
		}
	}

	if len(next) == 0 {
		v.deactivateLocked()
		return
	}
	v.queries = next
	v.restartDebounceLocked()
	v.notifyLocked()
}

// RemoveQuery drops the query for one field. Removing the last query
// deactivates the overlay and restores the baseline row set with a normal
// fetch under the current options.
func (v *View) RemoveQuery(field string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	kept := v.queries[:0]
	for _, q := range v.queries {
		if q.Field != field {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(v.queries) {
		return
	}
	v.queries = kept
	if len(v.queries) == 0 {
		v.deactivateLocked()
		return
	}
	v.restartDebounceLocked()
	v.notifyLocked()
}

// ClearQueries removes all queries at once and deactivates the overlay.
func (v *View) ClearQueries() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || len(v.queries) == 0 {
		return
	}
	v.queries = nil
	v.deactivateLocked()
}

// deactivateLocked hands control back to the normal view: the pending
// debounce is cancelled, in-flight search results become stale, and a
// baseline fetch is triggered.
func (v *View) deactivateLocked() {
	v.queries = nil
	v.searchGen++
	v.searchLoad = false
	v.stopDebounceLocked()
	params := v.currentParamsLocked()
	v.bg.Add(1)
	go func() {
		defer v.bg.Done()
		_, _ = v.runFetch(context.Background(), params)
	}()
	v.notifyLocked()
}

// restartDebounceLocked arms the debounce timer for the current query set.
// Each mutation of the set cancels the previous arm, so a burst of edits
// inside the window executes exactly once, with the final set.
func (v *View) restartDebounceLocked() {
	v.searchGen++
	gen := v.searchGen
	v.stopDebounceLocked()
	v.debounce = time.AfterFunc(v.opts.Debounce, func() {
		v.executeSearch(gen)
	})
}

func (v *View) stopDebounceLocked() {
	if v.debounce != nil {
		v.debounce.Stop()
		v.debounce = nil
	}
}

// executeSearch runs one search pass for the query set identified by gen:
// one field-scoped prefix search per query, union-merged by identifier
// with the most recently examined version winning. The view's plain
// equality filter fields are re-applied client-side (operator conditions
// are not), the result is ordered by the primary sort key only, and
// offset/limit are applied client-side. TotalCount becomes the
// pre-pagination merged size. A result arriving after the query set moved
// on is discarded via the generation check, not via request cancellation.
func (v *View) executeSearch(gen int) {
	v.mu.Lock()
	if v.closed || gen != v.searchGen || len(v.queries) == 0 {
		v.mu.Unlock()
		return
	}
	queries := append([]SearchQuery(nil), v.queries...)
	opts := v.opts
	order := v.order
	v.searchLoad = true
	v.notifyLocked()
	v.mu.Unlock()

	merged := map[string]types.Row{}
	var keys []string // first-encounter order, for deterministic ties
	var searchErr error
	for _, q := range queries {
		rows, err := v.gw.SearchByFieldPrefix(context.Background(), v.table, q.Field, q.Value)
		if err != nil {
			searchErr = types.WrapGateway("search", err)
			break
		}
		for _, row := range rows {
			key, ok := row.Get(opts.KeyField)
			if !ok {
				continue
			}
			id := keyString(key)
			if _, seen := merged[id]; !seen {
				keys = append(keys, id)
			}
			merged[id] = row
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchLoad = false
	if v.closed || gen != v.searchGen {
		// Stale: the query set changed or the overlay deactivated while
		// the requests were in flight.
		return
	}
	if searchErr != nil {
		v.err = searchErr
		v.log.Error("search failed", "error", searchErr)
		v.notifyLocked()
		return
	}

	result := make([]types.Row, 0, len(keys))
	eqMatch := equalityMatcher(opts.Filter)
	for _, id := range keys {
		if row := merged[id]; eqMatch(row) {
			result = append(result, row)
		}
	}

	if len(order) > 0 {
		cmp := predicate.CompileComparator(order[:1])
		sort.SliceStable(result, func(i, j int) bool {
			return cmp(result[i], result[j]) < 0
		})
	}

	total := len(result)
	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			result = nil
		} else {
			result = result[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	v.rows = result
	v.totalCount = total
	v.err = nil
	v.notifyLocked()
}

// equalityMatcher compiles only the plain-equality fields of the view
// filter for client-side re-application to search hits.
func equalityMatcher(filter types.Predicate) predicate.Matcher {
	eq := filter.EqualityFields()
	if len(eq) == 0 {
		return func(types.Row) bool { return true }
	}
	sub := make(types.Predicate, len(eq))
	for field, operand := range eq {
		sub[field] = []types.Condition{types.Equals(operand)}
	}
	matcher, err := predicate.Compile(sub)
	if err != nil {
		// Equality conditions always compile; fall through open.
		return func(types.Row) bool { return true }
	}
	return matcher
}

// keyString normalizes an identifier for map keying; fmt prints integral
// numeric kinds identically, so int64(7) and 7 merge as the same row.
func keyString(key any) string {
	return fmt.Sprint(key)
}
