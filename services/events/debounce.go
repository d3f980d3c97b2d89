package events

import (
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one call of fn, made wait after the last trigger.
// fn receives the distinct keys triggered during the burst. A zero wait calls fn synchronously.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	fn      func(keys []string)
	timer   *time.Timer
	pending map[string]struct{}
	stopped bool
}

func NewDebouncer(wait time.Duration, fn func(keys []string)) *Debouncer {
	return &Debouncer{
		wait:    wait,
		fn:      fn,
		pending: make(map[string]struct{}),
	}
}

func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending[key] = struct{}{}
	if d.wait <= 0 {
		d.mu.Unlock()
		d.Flush()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.Flush)
	d.mu.Unlock()
}

// Flush runs fn now if triggers are pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 || d.stopped {
		d.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	sort.Strings(keys)
	d.fn(keys)
}

// Stop drops pending triggers and ignores future ones.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]struct{})
}
