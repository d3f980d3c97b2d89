// Package records implements the entity repositories over a kvstore.Store.
// Every mutation reads a whole collection, computes the new one and writes it back in full.
package records

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/services/events"
	"github.com/trezcool/coursework/storage/kvstore"
)

// DB serializes the read-modify-write cycles of one Store.
// Writers using other Stores over the same backend are not excluded: the last write of a collection wins.
//
// Change events of the writes made under the lock are held back and broadcast by Unlock,
// so listeners may read through the repositories.
type DB struct {
	sync.Mutex
	store   *kvstore.Store
	logger  core.Logger
	pending []events.Event
}

func New(store *kvstore.Store, logger core.Logger) *DB {
	return &DB{store: store, logger: logger}
}

func (db *DB) Store() *kvstore.Store { return db.store }

// Unlock releases the lock, then broadcasts the changes staged while it was held.
func (db *DB) Unlock() {
	evs := db.pending
	db.pending = nil
	db.Mutex.Unlock()
	db.store.Broadcast(evs)
}

func (db *DB) write(key string, value interface{}) error {
	return db.writeBatch(kvstore.Entry{Key: key, Value: value})
}

func (db *DB) writeBatch(entries ...kvstore.Entry) error {
	evs, ok := db.store.Stage(false, entries...)
	if !ok {
		keys := make([]string, 0, len(entries))
		for _, e := range entries {
			keys = append(keys, e.Key)
		}
		return errors.Wrapf(kvstore.ErrWriteFailed, "saving %v", keys)
	}
	db.pending = append(db.pending, evs...)
	return nil
}

func (db *DB) remove(key string) error {
	evs, ok := db.store.StageRemove(key)
	if !ok {
		return errors.Wrapf(kvstore.ErrWriteFailed, "removing %s", key)
	}
	db.pending = append(db.pending, evs...)
	return nil
}

// load returns the collection stored under key; a missing key is an empty collection.
// When the stored blob cannot be read the empty collection comes with an ErrWriteFailed error:
// queries fall back to it, mutations must give up rather than overwrite what is stored.
func load[T any](db *DB, key string) ([]T, error) {
	var coll []T
	found, err := db.store.Lookup(key, &coll)
	if err != nil {
		return []T{}, errors.Wrapf(kvstore.ErrWriteFailed, "%s is unreadable: %v", key, err)
	}
	if !found || coll == nil {
		return []T{}, nil
	}
	return coll, nil
}

func (db *DB) users() ([]user.User, error) {
	return load[user.User](db, kvstore.KeyUsers)
}

func (db *DB) assignments() ([]assignment.Assignment, error) {
	return load[assignment.Assignment](db, kvstore.KeyAssignments)
}

func (db *DB) submissions() ([]submission.Submission, error) {
	subs, err := load[submission.Submission](db, kvstore.KeySubmissions)
	for _, s := range subs {
		switch {
		case s.LegacyStatus() != "":
			db.logger.Warn("records: legacy submission status", map[string]interface{}{
				"submissionId": s.ID,
				"stored":       s.LegacyStatus(),
				"canonical":    s.Status,
			})
		case !s.Status.Valid():
			db.logger.Warn("records: unrecognized submission status", map[string]interface{}{
				"submissionId": s.ID,
				"stored":       s.Status,
			})
		}
	}
	return subs, err
}

// refreshCounters recomputes the counters of the assignments in ids (all of them if ids is empty).
func refreshCounters(assignments []assignment.Assignment, subs []submission.Submission, ids ...core.ID) []assignment.Assignment {
	wanted := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	refreshed := make([]assignment.Assignment, len(assignments))
	for i, a := range assignments {
		if len(ids) == 0 || wanted[a.ID] {
			a.SubmissionsCount, a.PendingCount = submission.Counters(subs, a.ID)
		}
		refreshed[i] = a
	}
	return refreshed
}
