// Package portal wires the repositories, the change bus and the role-scoped views of one open portal,
// the equivalent of one browser tab. Several portals may share one backend.
package portal

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	emailsvc "github.com/trezcool/coursework/services/email"
	"github.com/trezcool/coursework/services/events"
	"github.com/trezcool/coursework/services/events/redisbridge"
	"github.com/trezcool/coursework/storage/kvstore"
	"github.com/trezcool/coursework/storage/records"
)

type Portal struct {
	conf    *core.Config
	logger  core.Logger
	mailSvc core.EmailService
	bus     *events.Bus
	store   *kvstore.Store
	db      *records.DB
	bridge  *redisbridge.Bridge

	usrRepo  user.Repository
	asgRepo  assignment.Repository
	subRepo  submission.Repository
	crsRepo  course.Repository
	session  *records.Session
	users    *user.Service
	asgSvc   *assignment.Service
	subSvc   *submission.Service
	courses  *course.Service
	activity *activity.Service

	busyMu sync.Mutex
	busy   map[string]struct{}
	closed bool

	viewsMu sync.Mutex
	views   map[*mount]struct{}
}

// New opens a portal over backend. It does not seed the store.
func New(conf *core.Config, backend kvstore.Backend, logger core.Logger, mailSvc core.EmailService) *Portal {
	bus := events.NewBus(logger)
	store := kvstore.New(backend, bus, logger)
	db := records.New(store, logger)

	p := &Portal{
		conf:    conf,
		logger:  logger,
		mailSvc: mailSvc,
		bus:     bus,
		store:   store,
		db:      db,
		usrRepo: records.NewUserRepository(db),
		asgRepo: records.NewAssignmentRepository(db),
		subRepo: records.NewSubmissionRepository(db),
		crsRepo: records.NewCourseRepository(db),
		session: records.NewSession(db),
		busy:    make(map[string]struct{}),
		views:   make(map[*mount]struct{}),
	}
	p.users = user.NewService(p.usrRepo)
	p.asgSvc = assignment.NewService(p.asgRepo, p.usrRepo)
	p.subSvc = submission.NewService(p.subRepo, p.asgRepo, p.usrRepo)
	p.courses = course.NewService(p.crsRepo)
	p.activity = activity.NewService(records.NewActivityRepository(db), conf.ActivityMaxEntries)
	return p
}

// Open opens the backend selected by conf, seeds it and, on redis, relays changes to the other processes.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (*Portal, error) {
	backend, err := kvstore.OpenBackend(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening store")
	}

	p := New(conf, backend, logger, emailsvc.NewService(conf, logger))
	if err := p.Seed(); err != nil {
		_ = p.Close()
		return nil, err
	}

	if rb, ok := backend.(*kvstore.RedisBackend); ok {
		p.bridge = redisbridge.New(rb.Client(), conf.Redis.Channel, p.bus, logger)
		if err := p.bridge.Start(ctx); err != nil {
			p.bridge = nil
			_ = p.Close()
			return nil, err
		}
	}
	return p, nil
}

// Seed writes the default collections under the keys that are missing or empty.
func (p *Portal) Seed() error {
	return p.db.Seed()
}

// Bus is the change channel of this portal.
func (p *Portal) Bus() *events.Bus { return p.bus }

func (p *Portal) Store() *kvstore.Store { return p.store }

// Close unmounts every view and releases the store. Operations started afterwards fail with ErrClosed.
func (p *Portal) Close() error {
	p.busyMu.Lock()
	if p.closed {
		p.busyMu.Unlock()
		return nil
	}
	p.closed = true
	p.busyMu.Unlock()

	p.viewsMu.Lock()
	mounted := make([]*mount, 0, len(p.views))
	for m := range p.views {
		mounted = append(mounted, m)
	}
	p.viewsMu.Unlock()
	for _, m := range mounted {
		m.unmount()
	}

	var err error
	if p.bridge != nil {
		err = p.bridge.Close()
	}
	if cErr := p.store.Close(); cErr != nil && err == nil {
		err = cErr
	}
	return err
}

// snapshot reads the three shared collections.
func (p *Portal) snapshot() ([]user.User, []assignment.Assignment, []submission.Submission) {
	users, err := p.usrRepo.QueryAllUsers()
	if err != nil {
		p.logger.Error("portal: reading users", err)
	}
	assignments, err := p.asgRepo.QueryAllAssignments()
	if err != nil {
		p.logger.Error("portal: reading assignments", err)
	}
	subs, err := p.subRepo.QueryAllSubmissions()
	if err != nil {
		p.logger.Error("portal: reading submissions", err)
	}
	return users, assignments, subs
}

func (p *Portal) record(actor user.Actor, action, details string) {
	if _, err := p.activity.Record(actor.Login, action, details); err != nil {
		p.logger.Warn("portal: recording activity", err, map[string]interface{}{"action": action})
	}
}
