package liveview

import (
	"context"

	"github.com/Moe03/suparisma/pkg/types"
)

// scheduleCountRefreshLocked queues a deferred total-count refresh. The
// refresh runs after the state update that triggered it has committed,
// and reads the filter at run time rather than schedule time. A refresh
// already pending absorbs later requests from the same burst, so several
// mutations in quick succession produce one count query, not one each.
func (v *View) scheduleCountRefreshLocked() {
	if v.countPending || v.closed {
		return
	}
	v.countPending = true
	v.bg.Add(1)
	go func() {
		defer v.bg.Done()

		v.mu.Lock()
		v.countPending = false
		if v.closed {
			v.mu.Unlock()
			return
		}
		filter := v.opts.Filter
		v.mu.Unlock()

		n, err := v.gw.Count(context.Background(), v.table, filter)

		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed {
			return
		}
		if err != nil {
			v.err = types.WrapGateway("count", err)
			v.log.Error("count refresh failed", "error", err)
			v.notifyLocked()
			return
		}
		// The overlay owns TotalCount while active.
		if len(v.queries) > 0 {
			return
		}
		v.totalCount = n
		v.notifyLocked()
	}()
}
