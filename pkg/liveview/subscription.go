package liveview

import (
	"context"
	"sync"

	"github.com/Moe03/suparisma/pkg/types"

	"github.com/google/uuid"
)

// subscriptionManager owns the view's single push-change registration,
// keyed by (table, name). It guarantees at most one live subscription per
// view: open while one is live is a no-op, close is idempotent. The
// server-side filter string is fixed for the subscription's lifetime;
// query-window changes never reopen it.
type subscriptionManager struct {
	gw    types.Gateway
	table string
	log   Logger

	mu   sync.Mutex
	name string
	sub  types.ChangeSubscription
}

func newSubscriptionManager(gw types.Gateway, table string, log Logger) *subscriptionManager {
	return &subscriptionManager{gw: gw, table: table, log: log}
}

// open registers handler for change events. A name is generated when none
// is given, so concurrent views over the same table never collide.
func (m *subscriptionManager) open(ctx context.Context, name, filter string, handler func(types.ChangeEvent)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return nil
	}
	if name == "" {
		name = uuid.NewString()
	}
	sub, err := m.gw.SubscribeChanges(ctx, m.table, filter, handler)
	if err != nil {
		return types.WrapGateway("subscribe", err)
	}
	m.name = name
	m.sub = sub
	m.log.Debug("subscription opened", "name", name, "filter", filter)
	return nil
}

// close tears the live subscription down exactly once.
func (m *subscriptionManager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub == nil {
		return nil
	}
	err := m.sub.Close()
	m.sub = nil
	m.log.Debug("subscription closed", "name", m.name)
	m.name = ""
	return err
}

// active reports whether a subscription is currently live.
func (m *subscriptionManager) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub != nil
}
