package kvstore

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/services/events"
)

// Keys of the persisted collections.
const (
	KeyAssignments = "assignments"
	KeySubmissions = "submissions"
	KeyUsers       = "users"
	KeyCurrentUser = "current_user"
	KeyCourses     = "admin_courses"
	KeyActivity    = "admin_logs"
)

// Publisher receives an event after every successful, non-silent write.
type Publisher interface {
	Publish(ev events.Event)
}

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   string
	Value interface{}
}

// Store serializes values to JSON, persists them through a Backend and broadcasts a change event per written key.
// Read and Write never return errors: failures are logged and reported as false, like the browser storage they stand in for.
type Store struct {
	backend Backend
	pub     Publisher
	logger  core.Logger
}

func New(backend Backend, pub Publisher, logger core.Logger) *Store {
	return &Store{backend: backend, pub: pub, logger: logger}
}

// Read decodes the JSON stored under key into dst.
// It returns false, leaving dst untouched, when the key is missing or the blob cannot be decoded.
func (s *Store) Read(key string, dst interface{}) bool {
	found, _ := s.Lookup(key, dst)
	return found
}

// Lookup is Read that tells a missing key (false, nil) from one that cannot be read.
// A blob that does not decode yields an error whose cause is ErrCorrupted; dst is left untouched on any error.
func (s *Store) Lookup(key string, dst interface{}) (bool, error) {
	data, err := s.backend.Load(key)
	if err != nil {
		if err == ErrKeyNotFound {
			return false, nil
		}
		err = errors.Wrapf(err, "loading %s", key)
		s.logger.Error("kvstore: reading "+key, err)
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		err := errors.New("destination must be a non-nil pointer")
		s.logger.Error("kvstore: reading "+key, err)
		return false, err
	}

	// decode into a scratch value so that a parse failure leaves dst untouched
	scratch := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(data, scratch.Interface()); err != nil {
		s.logger.Warn("kvstore: corrupted value under "+key, err)
		return false, errors.Wrapf(ErrCorrupted, "%s: %v", key, err)
	}
	rv.Elem().Set(scratch.Elem())
	return true, nil
}

// ReadOr returns the value stored under key or fallback.
func ReadOr[T any](s *Store, key string, fallback T) T {
	var v T
	if !s.Read(key, &v) {
		return fallback
	}
	return v
}

// Write persists value under key and, unless silent, broadcasts the change.
// It returns false when the value cannot be serialized or the backend refuses it (e.g. quota exceeded).
func (s *Store) Write(key string, value interface{}, silent bool) bool {
	return s.WriteBatch(silent, Entry{Key: key, Value: value})
}

// WriteBatch persists all entries or none of them. Change events are broadcast only once every entry is stored,
// so listeners never observe a half-applied batch.
func (s *Store) WriteBatch(silent bool, entries ...Entry) bool {
	evs, ok := s.Stage(silent, entries...)
	s.Broadcast(evs)
	return ok
}

// Stage persists entries like WriteBatch but returns their change events instead of broadcasting them.
// Callers holding a lock pass them to Broadcast once it is released.
func (s *Store) Stage(silent bool, entries ...Entry) ([]events.Event, bool) {
	if len(entries) == 0 {
		return nil, true
	}

	values := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.Value)
		if err != nil {
			s.logger.Error("kvstore: serializing "+e.Key, err)
			return nil, false
		}
		values[e.Key] = data
	}

	if err := s.backend.Save(values); err != nil {
		s.logger.Error("kvstore: writing "+joinKeys(values), err)
		return nil, false
	}

	if silent {
		return nil, true
	}
	evs := make([]events.Event, 0, len(entries))
	for _, e := range entries {
		evs = append(evs, events.NewEvent(e.Key, values[e.Key]))
	}
	return evs, true
}

// Remove deletes key and broadcasts the change.
func (s *Store) Remove(key string) bool {
	evs, ok := s.StageRemove(key)
	s.Broadcast(evs)
	return ok
}

// StageRemove deletes key and returns the change event without broadcasting it.
func (s *Store) StageRemove(key string) ([]events.Event, bool) {
	if err := s.backend.Delete(key); err != nil {
		s.logger.Error("kvstore: removing "+key, err)
		return nil, false
	}
	return []events.Event{events.NewEvent(key, nil)}, true
}

// Broadcast publishes staged change events in order.
func (s *Store) Broadcast(evs []events.Event) {
	if s.pub == nil {
		return
	}
	for _, ev := range evs {
		s.pub.Publish(ev)
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

type idOnly struct {
	ID core.ID `json:"id"`
}

// NextID returns one more than the greatest id found in the collections stored under keys.
func NextID(s *Store, keys ...string) core.ID {
	var max core.ID
	for _, key := range keys {
		for _, rec := range ReadOr(s, key, []idOnly(nil)) {
			if rec.ID > max {
				max = rec.ID
			}
		}
	}
	return max + 1
}

// GenerateID returns an id unused by any assignment or submission.
// It is unique only within one store and only if no other process writes between generation and persistence.
func GenerateID(s *Store) core.ID {
	return NextID(s, KeyAssignments, KeySubmissions)
}

func joinKeys(values map[string][]byte) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
