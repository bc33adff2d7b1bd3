package liveview

import (
	"context"
	"errors"

	"github.com/Moe03/suparisma/pkg/types"
)

// Create inserts a row through the gateway. With push enabled the row set
// is left alone (the insert event is the source of truth) and only a count
// refresh is scheduled; with push disabled the returned row is merged in
// directly, with sort and limit re-applied synchronously.
func (v *View) Create(ctx context.Context, data types.Row) (types.Row, error) {
	row, err := v.gw.Insert(ctx, v.table, data)
	if err != nil {
		return nil, types.WrapGateway("insert", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.opts.EnablePush {
		v.scheduleCountRefreshLocked()
		return row, nil
	}
	v.applyInsertLocked(row)
	return row, nil
}

// Update replaces fields of the row identified by key. With push disabled
// the returned row replaces the in-memory copy directly.
func (v *View) Update(ctx context.Context, key any, data types.Row) (types.Row, error) {
	if key == nil {
		return nil, types.ErrMissingIdentifier
	}
	row, err := v.gw.UpdateOne(ctx, v.table, key, data)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, types.WrapGateway("update", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.opts.EnablePush {
		v.scheduleCountRefreshLocked()
		return row, nil
	}
	v.applyUpdateLocked(row)
	return row, nil
}

// Delete removes the row identified by key and returns it.
func (v *View) Delete(ctx context.Context, key any) (types.Row, error) {
	if key == nil {
		return nil, types.ErrMissingIdentifier
	}
	row, err := v.gw.DeleteOne(ctx, v.table, key)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, types.WrapGateway("delete", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.opts.EnablePush {
		v.scheduleCountRefreshLocked()
		return row, nil
	}
	v.applyDeleteLocked(key)
	return row, nil
}

// DeleteMany removes every row matching filter and returns the number of
// rows the preceding read matched. The read and the deletes are not
// atomic: a row inserted concurrently may be deleted without being
// counted, or counted rows may vanish before their delete. Callers must
// tolerate that window.
func (v *View) DeleteMany(ctx context.Context, filter types.Predicate) (int, error) {
	keyField := v.Options().KeyField

	matched, err := v.gw.Select(ctx, v.table, filter, nil, 0, 0)
	if err != nil {
		return 0, types.WrapGateway("select", err)
	}

	deleted := 0
	for _, row := range matched {
		key, ok := row.Get(keyField)
		if !ok {
			v.log.Warn("skipping row without identifier in bulk delete")
			continue
		}
		if _, err := v.gw.DeleteOne(ctx, v.table, key); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				// Lost the race to another actor; the row is gone either way.
				continue
			}
			return deleted, types.WrapGateway("delete", err)
		}
		deleted++
		v.mu.Lock()
		if !v.opts.EnablePush {
			v.applyDeleteLocked(key)
		}
		v.mu.Unlock()
	}

	v.mu.Lock()
	v.scheduleCountRefreshLocked()
	v.mu.Unlock()
	return len(matched), nil
}

// Upsert updates the row identified by key when it exists, and creates it
// from createData otherwise. The lookup and the create are two separate
// calls: another actor may create the row in between, in which case the
// create fails rather than update. Accepted limitation, not an invariant.
func (v *View) Upsert(ctx context.Context, key any, updateData, createData types.Row) (types.Row, error) {
	existing, err := v.FindUnique(ctx, key)
	switch {
	case err == nil && existing != nil:
		return v.Update(ctx, key, updateData)
	case errors.Is(err, types.ErrNotFound):
		return v.Create(ctx, createData)
	default:
		return nil, err
	}
}

// Count returns the number of rows matching filter, without touching the
// view's state. A nil filter counts under the view's own filter.
func (v *View) Count(ctx context.Context, filter types.Predicate) (int, error) {
	if filter == nil {
		filter = v.Options().Filter
	}
	n, err := v.gw.Count(ctx, v.table, filter)
	if err != nil {
		return 0, types.WrapGateway("count", err)
	}
	return n, nil
}
