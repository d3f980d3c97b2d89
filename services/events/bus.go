package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/coursework/core"
)

// Handler is called synchronously, in subscription order, for every matching event.
type Handler func(Event)

type subscription struct {
	id      uint64
	keys    map[string]struct{} // empty: every key
	handler Handler
}

func (s *subscription) matches(key string) bool {
	if len(s.keys) == 0 {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

// Bus is the in-process change channel: every non-silent store write is published on it
// and every mounted view listens to it.
type Bus struct {
	mu     sync.RWMutex
	origin string
	nextID uint64
	subs   []*subscription
	logger core.Logger
}

func NewBus(logger core.Logger) *Bus {
	return &Bus{
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Origin identifies this bus among processes sharing a store.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers h for events on keys (all keys when none are given).
// The returned func removes the subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(h Handler, keys ...string) (unsubscribe func()) {
	sub := &subscription{handler: h}
	if len(keys) > 0 {
		sub.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			sub.keys[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to the matching subscribers. A panicking handler is logged and skipped.
func (b *Bus) Publish(ev Event) {
	if ev.Origin == "" {
		ev.Origin = b.origin
	}

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.matches(ev.Key) {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("events: handler panicked", fmt.Errorf("%v", r), map[string]interface{}{"key": ev.Key})
		}
	}()
	s.handler(ev)
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
