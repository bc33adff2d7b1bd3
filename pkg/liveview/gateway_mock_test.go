package liveview

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Moe03/suparisma/pkg/predicate"
	"github.com/Moe03/suparisma/pkg/types"
)

// fakeGateway is an in-memory types.Gateway for tests. It keeps a real row
// store so Select/Count/Search behave like a backend, counts calls so
// tests can assert on traffic, and exposes emit to simulate push events.
type fakeGateway struct {
	mu    sync.Mutex
	store []types.Row
	key   string

	handler    func(types.ChangeEvent)
	subOpens   int
	subCloses  int
	subFilters []string

	selectCalls int
	countCalls  int
	searchCalls []SearchQuery

	selectErr error
	countErr  error
	searchErr error
}

func newFakeGateway(rows ...types.Row) *fakeGateway {
	return &fakeGateway{store: rows, key: "id"}
}

func (g *fakeGateway) Select(_ context.Context, _ string, filter types.Predicate, order types.OrderSpec, limit, offset int) ([]types.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selectCalls++
	if g.selectErr != nil {
		return nil, g.selectErr
	}
	matcher, err := predicate.Compile(filter)
	if err != nil {
		return nil, err
	}
	var out []types.Row
	for _, row := range g.store {
		if matcher(row) {
			out = append(out, row)
		}
	}
	cmp := predicate.CompileComparator(order)
	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })
	if offset > 0 {
		if offset >= len(out) {
			out = nil
		} else {
			out = out[offset:]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]types.Row(nil), out...), nil
}

func (g *fakeGateway) Count(_ context.Context, _ string, filter types.Predicate) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.countCalls++
	if g.countErr != nil {
		return 0, g.countErr
	}
	matcher, err := predicate.Compile(filter)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range g.store {
		if matcher(row) {
			n++
		}
	}
	return n, nil
}

func (g *fakeGateway) Insert(_ context.Context, _ string, row types.Row) (types.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored := row.Clone()
	g.store = append(g.store, stored)
	return stored, nil
}

func (g *fakeGateway) UpdateOne(_ context.Context, _ string, key any, fields types.Row) (types.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, row := range g.store {
		if k, ok := row.Get(g.key); ok && predicate.CompareValues(k, key) == 0 {
			updated := row.Clone()
			for f, val := range fields {
				updated[f] = val
			}
			g.store[i] = updated
			return updated, nil
		}
	}
	return nil, types.ErrNotFound
}

func (g *fakeGateway) DeleteOne(_ context.Context, _ string, key any) (types.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, row := range g.store {
		if k, ok := row.Get(g.key); ok && predicate.CompareValues(k, key) == 0 {
			g.store = append(g.store[:i], g.store[i+1:]...)
			return row, nil
		}
	}
	return nil, types.ErrNotFound
}

type fakeSubscription struct{ g *fakeGateway }

func (s *fakeSubscription) Close() error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	s.g.subCloses++
	s.g.handler = nil
	return nil
}

func (g *fakeGateway) SubscribeChanges(_ context.Context, _ string, filter string, handler func(types.ChangeEvent)) (types.ChangeSubscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subOpens++
	g.subFilters = append(g.subFilters, filter)
	g.handler = handler
	return &fakeSubscription{g: g}, nil
}

func (g *fakeGateway) SearchByFieldPrefix(_ context.Context, _ string, field, prefix string) ([]types.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.searchCalls = append(g.searchCalls, SearchQuery{Field: field, Value: prefix})
	if g.searchErr != nil {
		return nil, g.searchErr
	}
	var out []types.Row
	for _, row := range g.store {
		s, ok := row[field].(string)
		if ok && strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix)) {
			out = append(out, row)
		}
	}
	return out, nil
}

// emit delivers one push event to the subscribed handler, in the caller's
// goroutine, mirroring the sequential delivery contract.
func (g *fakeGateway) emit(ev types.ChangeEvent) {
	g.mu.Lock()
	handler := g.handler
	g.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}

// setStore replaces the backing rows.
func (g *fakeGateway) setStore(rows ...types.Row) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store = rows
}

// removeFromStore deletes a row without emitting an event.
func (g *fakeGateway) removeFromStore(key any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, row := range g.store {
		if k, ok := row.Get(g.key); ok && predicate.CompareValues(k, key) == 0 {
			g.store = append(g.store[:i], g.store[i+1:]...)
			return
		}
	}
}

func (g *fakeGateway) selects() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selectCalls
}

func (g *fakeGateway) searches() []SearchQuery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SearchQuery(nil), g.searchCalls...)
}

func (g *fakeGateway) opens() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subOpens
}

func (g *fakeGateway) closes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subCloses
}

func (g *fakeGateway) filters() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.subFilters...)
}

func (g *fakeGateway) setSelectErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selectErr = err
}
