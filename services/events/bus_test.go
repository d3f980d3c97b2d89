package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logsvc "github.com/trezcool/coursework/services/logger"
)

func TestBus_Publish(t *testing.T) {
	logger := logsvc.NewRecordingLogger()
	bus := NewBus(logger)

	var all, users []string
	bus.Subscribe(func(ev Event) { all = append(all, ev.Key) })
	unsubscribe := bus.Subscribe(func(ev Event) { users = append(users, ev.Key) }, "users", "current_user")
	bus.Subscribe(func(ev Event) { panic("boom") }, "assignments")
	assert.Equal(t, 3, bus.Len())

	bus.Publish(NewEvent("users", nil))
	bus.Publish(NewEvent("assignments", nil))
	bus.Publish(NewEvent("current_user", nil))

	assert.Equal(t, []string{"users", "assignments", "current_user"}, all, "a panicking handler does not stop delivery")
	assert.Equal(t, []string{"users", "current_user"}, users)
	assert.Len(t, logger.Entries("ERROR"), 1)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 2, bus.Len())
	bus.Publish(NewEvent("users", nil))
	assert.Len(t, users, 2)
	assert.Len(t, all, 4)
}

func TestBus_Origin(t *testing.T) {
	bus := NewBus(logsvc.NewRecordingLogger())
	assert.NotEqual(t, bus.Origin(), NewBus(logsvc.NewRecordingLogger()).Origin())

	var got []Event
	bus.Subscribe(func(ev Event) { got = append(got, ev) })

	bus.Publish(NewEvent("users", nil))
	remote := NewEvent("users", nil)
	remote.Origin, remote.Remote = "peer", true
	bus.Publish(remote)

	require.Len(t, got, 2)
	assert.Equal(t, bus.Origin(), got[0].Origin, "local events are stamped with the bus origin")
	assert.Equal(t, "peer", got[1].Origin)
	assert.True(t, got[1].Remote)
}

type callRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *callRecorder) fn(keys []string) {
	r.mu.Lock()
	r.calls = append(r.calls, keys)
	r.mu.Unlock()
}

func (r *callRecorder) get() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func TestDebouncer(t *testing.T) {
	t.Run("coalesces a burst", func(t *testing.T) {
		rec := new(callRecorder)
		d := NewDebouncer(20*time.Millisecond, rec.fn)
		for _, k := range []string{"users", "assignments", "users", "submissions"} {
			d.Trigger(k)
		}
		assert.Empty(t, rec.get())
		assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"assignments", "submissions", "users"}, rec.get()[0])

		time.Sleep(40 * time.Millisecond)
		assert.Len(t, rec.get(), 1)
	})

	t.Run("flush", func(t *testing.T) {
		rec := new(callRecorder)
		d := NewDebouncer(time.Hour, rec.fn)
		d.Flush()
		assert.Empty(t, rec.get(), "nothing pending")

		d.Trigger("users")
		d.Flush()
		assert.Equal(t, [][]string{{"users"}}, rec.get())
	})

	t.Run("zero wait is synchronous", func(t *testing.T) {
		rec := new(callRecorder)
		d := NewDebouncer(0, rec.fn)
		d.Trigger("users")
		assert.Equal(t, [][]string{{"users"}}, rec.get())
	})

	t.Run("stop", func(t *testing.T) {
		rec := new(callRecorder)
		d := NewDebouncer(10*time.Millisecond, rec.fn)
		d.Trigger("users")
		d.Stop()
		d.Trigger("users")
		d.Flush()
		time.Sleep(30 * time.Millisecond)
		assert.Empty(t, rec.get())
	})
}
