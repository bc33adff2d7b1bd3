package liveview

import (
	"testing"

	"github.com/Moe03/suparisma/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPushView(t *testing.T, gw *fakeGateway, mutate func(*Options)) *View {
	t.Helper()
	opts := testOptions()
	opts.EnablePush = true
	if mutate != nil {
		mutate(&opts)
	}
	return newTestView(t, gw, opts)
}

func TestInsertEventSortsAndTruncates(t *testing.T) {
	// Window of 2 ordered by someNumber desc over [10, 5]; a pushed 8
	// lands in the middle and 5 falls out of the window.
	gw := newFakeGateway(
		thing("a", 10, "alpha"),
		thing("b", 5, "beta"),
	)
	v := newPushView(t, gw, func(o *Options) { o.Limit = 2 })
	require.Equal(t, []string{"a", "b"}, rowIDs(v.Snapshot().Rows))

	inserted := thing("c", 8, "gamma")
	_, err := gw.Insert(t.Context(), "Thing", inserted)
	require.NoError(t, err)
	gw.emit(types.ChangeEvent{Type: types.EventInsert, New: inserted})

	assert.Equal(t, []string{"a", "c"}, rowIDs(v.Snapshot().Rows))
	assert.Eventually(t, func() bool {
		return v.Snapshot().TotalCount == 3
	}, waitFor, tick, "insert schedules a count refresh")
}

func TestInsertEventIsIdempotent(t *testing.T) {
	gw := newFakeGateway(thing("a", 10, "alpha"))
	v := newPushView(t, gw, nil)

	row := thing("b", 5, "beta")
	gw.emit(types.ChangeEvent{Type: types.EventInsert, New: row})
	gw.emit(types.ChangeEvent{Type: types.EventInsert, New: row})

	assert.Equal(t, []string{"a", "b"}, rowIDs(v.Snapshot().Rows),
		"duplicate delivery yields the same rows as a single delivery")
}

func TestInsertEventRespectsFilter(t *testing.T) {
	gw := newFakeGateway(thing("a", 10, "keeper"))
	v := newPushView(t, gw, func(o *Options) {
		o.Filter = types.Where("name", types.Equals("keeper"))
	})

	gw.emit(types.ChangeEvent{Type: types.EventInsert, New: thing("b", 20, "other")})
	assert.Equal(t, []string{"a"}, rowIDs(v.Snapshot().Rows),
		"a row not matching the filter never appears")
}

func TestUpdateEventReplacesWithoutFilterReevaluation(t *testing.T) {
	gw := newFakeGateway(
		thing("a", 10, "keeper"),
		thing("b", 5, "keeper"),
	)
	v := newPushView(t, gw, func(o *Options) {
		o.Filter = types.Where("name", types.Equals("keeper"))
	})
	require.Len(t, v.Snapshot().Rows, 2)

	// The update moves the row out of the filter; it still stays visible
	// until the next full fetch.
	updated := thing("b", 50, "stray")
	gw.emit(types.ChangeEvent{Type: types.EventUpdate, New: updated, Old: thing("b", 5, "keeper")})

	state := v.Snapshot()
	assert.Equal(t, []string{"b", "a"}, rowIDs(state.Rows), "replaced and re-sorted")
	assert.Equal(t, "stray", state.Rows[0]["name"])
}

func TestUpdateEventForUnknownRowIsNoop(t *testing.T) {
	gw := newFakeGateway(thing("a", 10, "alpha"))
	v := newPushView(t, gw, nil)

	gw.emit(types.ChangeEvent{Type: types.EventUpdate, New: thing("ghost", 99, "ghost")})
	assert.Equal(t, []string{"a"}, rowIDs(v.Snapshot().Rows))
}

func TestDeleteEventBelowLimitRemovesRow(t *testing.T) {
	gw := newFakeGateway(
		thing("a", 10, "alpha"),
		thing("b", 5, "beta"),
	)
	v := newPushView(t, gw, func(o *Options) { o.Limit = 5 })

	gw.removeFromStore("a")
	gw.emit(types.ChangeEvent{Type: types.EventDelete, Old: thing("a", 10, "alpha")})

	assert.Equal(t, []string{"b"}, rowIDs(v.Snapshot().Rows))
	assert.Eventually(t, func() bool {
		return v.Snapshot().TotalCount == 1
	}, waitFor, tick)
}

func TestDeleteEventAtLimitRefillsFromServer(t *testing.T) {
	// The window only holds [10, 8]; when 10 goes away the server is the
	// only party that knows 5 should slide in.
	gw := newFakeGateway(
		thing("a", 10, "alpha"),
		thing("b", 8, "beta"),
		thing("c", 5, "gamma"),
	)
	v := newPushView(t, gw, func(o *Options) { o.Limit = 2 })
	require.Equal(t, []string{"a", "b"}, rowIDs(v.Snapshot().Rows))

	gw.removeFromStore("a")
	gw.emit(types.ChangeEvent{Type: types.EventDelete, Old: thing("a", 10, "alpha")})

	assert.Eventually(t, func() bool {
		state := v.Snapshot()
		return len(state.Rows) == 2 && state.Rows[1]["id"] == "c"
	}, waitFor, tick, "background re-fetch refills the window to the limit")
}

func TestMalformedEventsAreDropped(t *testing.T) {
	gw := newFakeGateway(thing("a", 10, "alpha"))
	v := newPushView(t, gw, nil)
	before := rowIDs(v.Snapshot().Rows)

	gw.emit(types.ChangeEvent{Type: types.EventInsert})                                      // no payload
	gw.emit(types.ChangeEvent{Type: types.EventInsert, New: types.Row{"someNumber": 3}})     // no identifier
	gw.emit(types.ChangeEvent{Type: "TRUNCATE", New: thing("x", 1, "x")})                    // unknown type
	gw.emit(types.ChangeEvent{Type: types.EventDelete})                                      // no payload either side

	assert.Equal(t, before, rowIDs(v.Snapshot().Rows), "bad payloads never corrupt the row set")
}

func TestEventsUseLatestOptionsAtDispatch(t *testing.T) {
	gw := newFakeGateway(
		thing("a", 10, "alpha"),
		thing("b", 5, "beta"),
	)
	v := newPushView(t, gw, nil)
	baseline := gw.opens()

	// Tighten the limit after the subscription opened; the next event
	// must reconcile against the new limit without re-subscribing.
	opts := testOptions()
	opts.EnablePush = true
	opts.Limit = 2
	require.NoError(t, v.SetOptions(t.Context(), opts))
	assert.Equal(t, baseline, gw.opens(), "query-window changes do not reopen the subscription")

	inserted := thing("c", 7, "gamma")
	gw.emit(types.ChangeEvent{Type: types.EventInsert, New: inserted})

	state := v.Snapshot()
	assert.Equal(t, []string{"a", "c"}, rowIDs(state.Rows))
	assert.LessOrEqual(t, len(state.Rows), 2)
}
