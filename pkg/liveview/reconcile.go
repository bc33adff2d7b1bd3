package liveview

import (
	"context"

	"github.com/Moe03/suparisma/pkg/types"
)

// handleEvent merges one push event into the row set. The gateway invokes
// it sequentially in arrival order. Options are read at dispatch time, so
// a view whose limit or order changed after the subscription opened
// reconciles against the latest values; the subscription's server-side
// filter, however, stays as negotiated at open time. Malformed events are
// logged and dropped, never letting a bad payload corrupt the row set.
func (v *View) handleEvent(ev types.ChangeEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	// The overlay result is authoritative while any search query is
	// active; reconciliation resumes after the overlay hands back.
	if len(v.queries) > 0 {
		return
	}

	switch ev.Type {
	case types.EventInsert:
		if !v.validEventRow(ev.New, "insert") {
			return
		}
		v.applyInsertLocked(ev.New)
	case types.EventUpdate:
		if !v.validEventRow(ev.New, "update") {
			return
		}
		v.applyUpdateLocked(ev.New)
	case types.EventDelete:
		row := ev.Old
		if row == nil {
			row = ev.New
		}
		if !v.validEventRow(row, "delete") {
			return
		}
		key, _ := row.Get(v.opts.KeyField)
		v.applyDeleteLocked(key)
	default:
		v.log.Warn("dropping push event with unknown type", "type", ev.Type)
	}
}

// validEventRow checks a push payload carries a row with an identifier.
func (v *View) validEventRow(row types.Row, kind string) bool {
	if row == nil {
		v.log.Warn("dropping push event without row payload", "event", kind)
		return false
	}
	if _, ok := row.Get(v.opts.KeyField); !ok {
		v.log.Warn("dropping push event without identifier", "event", kind, "field", v.opts.KeyField)
		return false
	}
	return true
}

// applyInsertLocked merges a new row: filtered out rows are ignored,
// duplicate delivery is idempotent, and the window is re-sorted and
// truncated to the limit. Schedules a count refresh.
func (v *View) applyInsertLocked(row types.Row) {
	if !v.matcher(row) {
		return
	}
	key, _ := row.Get(v.opts.KeyField)
	if v.indexOfLocked(key) >= 0 {
		return
	}
	v.rows = append(v.rows, row)
	v.resortLocked()
	if v.opts.Limit > 0 && len(v.rows) > v.opts.Limit {
		v.rows = v.rows[:v.opts.Limit]
	}
	v.scheduleCountRefreshLocked()
	v.notifyLocked()
}

// applyUpdateLocked replaces the row with a matching identifier, a no-op
// when absent. The filter is deliberately not re-evaluated: a row updated
// out of the filter stays visible until the next full fetch. That is a
// known eventual-consistency window, kept to avoid rows vanishing
// mid-edit.
func (v *View) applyUpdateLocked(row types.Row) {
	key, _ := row.Get(v.opts.KeyField)
	if i := v.indexOfLocked(key); i >= 0 {
		v.rows[i] = row
		v.resortLocked()
	}
	v.scheduleCountRefreshLocked()
	v.notifyLocked()
}

// applyDeleteLocked removes the row with the given identifier. When the
// window sat exactly at the limit before removal only the server can fill
// the resulting deficit correctly, so a background re-fetch with the
// current parameters is triggered; otherwise a re-sort suffices. Either
// way a count refresh is scheduled.
func (v *View) applyDeleteLocked(key any) {
	wasAtLimit := v.opts.Limit > 0 && len(v.rows) == v.opts.Limit
	if i := v.indexOfLocked(key); i >= 0 {
		v.rows = append(v.rows[:i], v.rows[i+1:]...)
	}
	if wasAtLimit {
		params := v.currentParamsLocked()
		v.bg.Add(1)
		go func() {
			defer v.bg.Done()
			_, _ = v.runFetch(context.Background(), params)
		}()
	} else {
		v.resortLocked()
	}
	v.scheduleCountRefreshLocked()
	v.notifyLocked()
}
