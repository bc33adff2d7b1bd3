package sqlitegw

import (
	"sync"

	"github.com/Moe03/suparisma/pkg/liveview"
	"github.com/Moe03/suparisma/pkg/types"
)

// subscriberBuffer bounds the per-subscriber event queue. A consumer that
// falls further behind than this loses events, with a warning; the engine
// recovers on its next full fetch.
const subscriberBuffer = 256

// bus fans change events out to per-collection subscribers. Each
// subscriber gets its own delivery goroutine reading from an ordered
// queue, so handlers observe events strictly in publish order and are
// never invoked concurrently with themselves.
type bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*subscriber
	log    liveview.Logger
}

func newBus() *bus {
	return &bus{subs: map[string]map[int]*subscriber{}, log: liveview.NopLogger()}
}

type subscriber struct {
	bus        *bus
	collection string
	id         int
	ch         chan types.ChangeEvent
	done       chan struct{}
	closeOnce  sync.Once
}

// subscribe registers handler for one collection and starts its delivery
// goroutine.
func (b *bus) subscribe(collection string, handler func(types.ChangeEvent)) *subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		bus:        b,
		collection: collection,
		id:         b.nextID,
		ch:         make(chan types.ChangeEvent, subscriberBuffer),
		done:       make(chan struct{}),
	}
	if b.subs[collection] == nil {
		b.subs[collection] = map[int]*subscriber{}
	}
	b.subs[collection][sub.id] = sub

	go func() {
		for {
			select {
			case ev := <-sub.ch:
				handler(ev)
			case <-sub.done:
				return
			}
		}
	}()
	return sub
}

// publish enqueues ev for every subscriber of the collection.
func (b *bus) publish(collection string, ev types.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[collection] {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("dropping change event for slow subscriber",
				"collection", collection, "subscriber", sub.id)
		}
	}
}

// closeAll tears every subscriber down.
func (b *bus) closeAll() {
	b.mu.Lock()
	var all []*subscriber
	for _, subs := range b.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	b.mu.Unlock()
	for _, sub := range all {
		_ = sub.Close()
	}
}

// Close implements types.ChangeSubscription. Idempotent.
func (s *subscriber) Close() error {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.collection], s.id)
		s.bus.mu.Unlock()
		close(s.done)
	})
	return nil
}
