package kvstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/services/events"
	logsvc "github.com/trezcool/coursework/services/logger"
)

type record struct {
	ID    core.ID  `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	p.keys = append(p.keys, ev.Key)
	p.mu.Unlock()
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func newTestStore(t *testing.T, backend Backend) (*Store, *recordingPublisher, *logsvc.RecordingLogger) {
	pub := new(recordingPublisher)
	logger := logsvc.NewRecordingLogger()
	s := New(backend, pub, logger)
	t.Cleanup(func() { _ = s.Close() })
	return s, pub, logger
}

// backends lists the backends under test. Redis runs in process unless REDIS_ADDR names a server.
func backends(t *testing.T) map[string]func() Backend {
	return map[string]func() Backend{
		"memory": func() Backend { return NewMemoryBackend(0) },
		"bolt": func() Backend {
			b, err := OpenBolt(filepath.Join(t.TempDir(), "store.db"))
			require.NoError(t, err)
			return b
		},
		"redis": func() Backend {
			addr := os.Getenv("REDIS_ADDR")
			if addr == "" {
				addr = miniredis.RunT(t).Addr()
			}
			rdb, err := ConnectRedis(addr, os.Getenv("REDIS_PASSWORD"), 0)
			require.NoError(t, err)
			return NewRedisBackend(rdb, "coursework:test:"+uuid.NewString()+":")
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, pub, _ := newTestStore(t, newBackend())

			in := []record{{ID: 1, Title: "Курсовая", Tags: []string{"a"}}, {ID: 2, Title: "React", Tags: []string{}}}
			require.True(t, s.Write(KeyAssignments, in, false))

			var out []record
			require.True(t, s.Read(KeyAssignments, &out))
			assert.Equal(t, in, out)
			assert.Equal(t, []string{KeyAssignments}, pub.published())
		})
	}
}

func TestStore_Read(t *testing.T) {
	s, _, logger := newTestStore(t, NewMemoryBackend(0))

	t.Run("missing key", func(t *testing.T) {
		out := []record{{ID: 9}}
		assert.False(t, s.Read(KeyUsers, &out))
		assert.Equal(t, []record{{ID: 9}}, out, "dst must be untouched")
		assert.Equal(t, []record{}, ReadOr(s, KeyUsers, []record{}))
	})

	t.Run("corrupted value", func(t *testing.T) {
		require.NoError(t, s.backend.Save(map[string][]byte{KeySubmissions: []byte(`[{"id":1,`)}))
		out := []record{{ID: 9}}
		assert.False(t, s.Read(KeySubmissions, &out))
		assert.Equal(t, []record{{ID: 9}}, out, "dst must be untouched")
		assert.NotEmpty(t, logger.Entries("WARN"))
	})

	t.Run("lookup tells missing from unreadable", func(t *testing.T) {
		var out []record
		found, err := s.Lookup(KeyCurrentUser, &out)
		assert.False(t, found)
		assert.NoError(t, err)

		found, err = s.Lookup(KeySubmissions, &out)
		assert.False(t, found)
		assert.Equal(t, ErrCorrupted, errors.Cause(err))
		assert.Nil(t, out)
	})

	t.Run("ids as strings", func(t *testing.T) {
		require.NoError(t, s.backend.Save(map[string][]byte{KeyCourses: []byte(`[{"id":"7","title":"x"}]`)}))
		var out []record
		require.True(t, s.Read(KeyCourses, &out))
		assert.Equal(t, core.ID(7), out[0].ID)
	})

	t.Run("non-pointer destination", func(t *testing.T) {
		require.True(t, s.Write(KeyActivity, []record{}, true))
		var out []record
		assert.False(t, s.Read(KeyActivity, out))
	})
}

func TestStore_Stage(t *testing.T) {
	s, pub, _ := newTestStore(t, NewMemoryBackend(0))

	evs, ok := s.Stage(false, Entry{Key: KeyAssignments, Value: []record{{ID: 1}}}, Entry{Key: KeySubmissions, Value: []record{}})
	require.True(t, ok)
	assert.Empty(t, pub.published(), "nothing is broadcast until asked")
	var out []record
	require.True(t, s.Read(KeyAssignments, &out), "staged values are stored")

	removed, ok := s.StageRemove(KeySubmissions)
	require.True(t, ok)
	s.Broadcast(append(evs, removed...))
	assert.Equal(t, []string{KeyAssignments, KeySubmissions, KeySubmissions}, pub.published())

	evs, ok = s.Stage(true, Entry{Key: KeyUsers, Value: []record{}})
	assert.True(t, ok)
	assert.Empty(t, evs, "silent writes stage no events")
}

func TestStore_WriteBatch(t *testing.T) {
	t.Run("all or nothing", func(t *testing.T) {
		backend := NewMemoryBackend(64)
		s, pub, logger := newTestStore(t, backend)

		require.True(t, s.Write(KeyUsers, []record{{ID: 1}}, false))
		before := backend.Size()

		big := make([]record, 20)
		ok := s.WriteBatch(false,
			Entry{Key: KeyAssignments, Value: []record{}},
			Entry{Key: KeySubmissions, Value: big},
		)
		assert.False(t, ok)
		assert.Equal(t, before, backend.Size())
		assert.Equal(t, []string{KeyUsers}, pub.published(), "a failed batch broadcasts nothing")
		assert.NotEmpty(t, logger.Entries("ERROR"))

		var out []record
		assert.False(t, s.Read(KeyAssignments, &out))
	})

	t.Run("events after every entry is stored", func(t *testing.T) {
		s, pub, _ := newTestStore(t, NewMemoryBackend(0))
		require.True(t, s.WriteBatch(false,
			Entry{Key: KeySubmissions, Value: []record{}},
			Entry{Key: KeyAssignments, Value: []record{}},
		))
		assert.Equal(t, []string{KeySubmissions, KeyAssignments}, pub.published())
	})

	t.Run("silent", func(t *testing.T) {
		s, pub, _ := newTestStore(t, NewMemoryBackend(0))
		require.True(t, s.WriteBatch(true, Entry{Key: KeyUsers, Value: []record{}}))
		assert.Empty(t, pub.published())
	})

	t.Run("unserializable value", func(t *testing.T) {
		s, pub, _ := newTestStore(t, NewMemoryBackend(0))
		assert.False(t, s.Write(KeyUsers, map[string]interface{}{"f": func() {}}, false))
		assert.Empty(t, pub.published())
	})
}

func TestStore_Remove(t *testing.T) {
	s, pub, _ := newTestStore(t, NewMemoryBackend(0))
	require.True(t, s.Write(KeyCurrentUser, record{ID: 1}, true))
	require.True(t, s.Remove(KeyCurrentUser))

	var out *record
	assert.False(t, s.Read(KeyCurrentUser, &out))
	assert.Equal(t, []string{KeyCurrentUser}, pub.published())
}

func TestNextID(t *testing.T) {
	s, _, _ := newTestStore(t, NewMemoryBackend(0))
	assert.Equal(t, core.ID(1), NextID(s, KeyUsers))

	require.True(t, s.Write(KeyAssignments, []record{{ID: 3}, {ID: 12}}, true))
	require.True(t, s.Write(KeySubmissions, []record{{ID: 40}, {ID: 7}}, true))

	tests := []struct {
		name string
		keys []string
		want core.ID
	}{
		{name: "empty collection", keys: []string{KeyUsers}, want: 1},
		{name: "single collection", keys: []string{KeyAssignments}, want: 13},
		{name: "across collections", keys: []string{KeyAssignments, KeySubmissions}, want: 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextID(s, tt.keys...))
		})
	}

	id := GenerateID(s)
	assert.Equal(t, core.ID(41), id)
	require.True(t, s.Write(KeySubmissions, []record{{ID: 40}, {ID: 7}, {ID: id}}, true))
	assert.Greater(t, int(GenerateID(s)), int(id), "ids are monotonic")
}

func TestMemoryBackend_Shared(t *testing.T) {
	backend := NewMemoryBackend(0)
	tab1, _, _ := newTestStore(t, backend)
	tab2, _, _ := newTestStore(t, backend)

	require.True(t, tab1.Write(KeyUsers, []record{{ID: 1}}, false))
	require.NoError(t, tab1.Close())

	var out []record
	require.True(t, tab2.Read(KeyUsers, &out))
	assert.Equal(t, []record{{ID: 1}}, out)
}

func TestBoltBackend_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	b, err := OpenBolt(path)
	require.NoError(t, err)
	s := New(b, nil, logsvc.NewRecordingLogger())
	require.True(t, s.Write(KeyAssignments, []record{{ID: 5, Title: "БД"}}, false))
	require.NoError(t, s.Close())

	b, err = OpenBolt(path)
	require.NoError(t, err)
	s = New(b, nil, logsvc.NewRecordingLogger())
	defer s.Close()

	var out []record
	require.True(t, s.Read(KeyAssignments, &out))
	assert.Equal(t, "БД", out[0].Title)

	_, err = b.Load("missing")
	assert.Equal(t, ErrKeyNotFound, err)
}

func TestOpenBackend(t *testing.T) {
	conf := &core.Config{}

	conf.Store.Driver = core.StoreMemory
	b, err := OpenBackend(conf)
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	conf.Store.Driver = core.StoreBolt
	conf.Store.Path = filepath.Join(t.TempDir(), "nested", "store.db")
	b, err = OpenBackend(conf)
	require.NoError(t, err)
	assert.IsType(t, &BoltBackend{}, b)
	assert.NoError(t, b.Close())

	conf.Store.Driver = "lol"
	_, err = OpenBackend(conf)
	assert.Error(t, err)
}
