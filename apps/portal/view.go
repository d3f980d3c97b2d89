package portal

import (
	"sync"

	"github.com/trezcool/coursework/services/events"
)

// mount is a view listening to the store: bursts of changes to its keys trigger one re-projection.
type mount struct {
	p           *Portal
	owner       *Session
	refreshFn   func()
	debouncer   *events.Debouncer
	unsubscribe func()
	once        sync.Once
}

func (p *Portal) mount(owner *Session, keys []string, refresh func()) *mount {
	m := &mount{p: p, owner: owner, refreshFn: refresh}
	m.debouncer = events.NewDebouncer(p.conf.Debounce, func([]string) { m.refreshFn() })
	m.unsubscribe = p.bus.Subscribe(func(ev events.Event) { m.debouncer.Trigger(ev.Key) }, keys...)

	p.viewsMu.Lock()
	p.views[m] = struct{}{}
	p.viewsMu.Unlock()
	if owner != nil {
		owner.adopt(m)
	}
	return m
}

func (m *mount) unmount() {
	m.once.Do(func() {
		m.unsubscribe()
		m.debouncer.Stop()
		m.p.viewsMu.Lock()
		delete(m.p.views, m)
		m.p.viewsMu.Unlock()
		if m.owner != nil {
			m.owner.forget(m)
		}
	})
}

// View is a mounted projection. It re-projects itself after bursts of relevant store changes
// and immediately after the writes of its own session.
type View[T any] struct {
	refreshMu sync.Mutex // serializes projections
	mu        sync.RWMutex
	current   T
	project   func() T
	onChange  func(T)
	m         *mount
}

func newView[T any](s *Session, keys []string, project func() T, onChange func(T)) *View[T] {
	v := &View[T]{project: project, onChange: onChange}
	v.current = project()
	v.m = s.p.mount(s, keys, v.Refresh)
	return v
}

// Current returns the last projection.
func (v *View[T]) Current() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Refresh re-projects now and notifies onChange.
func (v *View[T]) Refresh() {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	next := v.project()
	v.mu.Lock()
	v.current = next
	v.mu.Unlock()
	if v.onChange != nil {
		v.onChange(next)
	}
}

// Unmount stops listening to the store. Pending refreshes are dropped.
func (v *View[T]) Unmount() {
	v.m.unmount()
}
