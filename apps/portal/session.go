package portal

import (
	"fmt"
	"sync"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/user"
)

// Session is a signed-in user of a portal. Its role decides which of Student, Teacher or Admin it may open.
type Session struct {
	p *Portal

	mu  sync.RWMutex
	usr user.User

	ownMu sync.Mutex
	own   map[*mount]struct{}
}

func (p *Portal) newSession(usr user.User) *Session {
	return &Session{p: p, usr: usr.Sanitize(), own: make(map[*mount]struct{})}
}

// SignIn authenticates identifier (login or email) with role and keeps the user as the current user.
// An empty role accepts any role.
func (p *Portal) SignIn(identifier, pwd string, role user.Role) (*Session, error) {
	var usr user.User
	err := p.run(control("signin", 0), func() error {
		var err error
		if usr, err = p.users.Authenticate(identifier, pwd, role); err != nil {
			return err
		}
		return p.session.SignIn(usr)
	})
	if err != nil {
		return nil, err
	}

	s := p.newSession(usr)
	p.record(s.Actor(), activity.ActionLogin, fmt.Sprintf("Вход в систему (%s)", usr.Role.Label()))
	p.logger.Info("portal: signed in", usr)
	return s, nil
}

// Register creates an account. It does not sign the new user in.
func (p *Portal) Register(nu user.NewUser) (user.User, error) {
	var usr user.User
	err := p.run(control("register", 0), func() error {
		var err error
		usr, err = p.users.Create(nu)
		return err
	})
	return usr.Sanitize(), err
}

// Resume reopens the session of the current user, e.g. in a new tab over the same store.
func (p *Portal) Resume() (*Session, bool) {
	usr, ok := p.session.CurrentUser()
	if !ok {
		return nil, false
	}
	return p.newSession(usr), true
}

func (s *Session) User() user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usr
}

func (s *Session) Actor() user.Actor {
	return s.User().Actor()
}

// SignOut unmounts the views of the session and forgets the current user.
func (s *Session) SignOut() error {
	for _, m := range s.mounts() {
		m.unmount()
	}
	return s.p.session.SignOut()
}

// UpdateProfile changes the user's own profile. Role and activation are left to admins.
func (s *Session) UpdateProfile(uu user.UpdateUser) (user.User, error) {
	if uu.Role != nil || uu.IsActive != nil {
		return user.User{}, core.NewPermissionError("only admins can change roles or account activation")
	}
	if uu.Password != nil {
		return user.User{}, core.NewFieldError("password", "use the password change form")
	}

	usr := s.User()
	if !usr.IsStudent() {
		// only students belong to a group and a teacher
		uu.Group, uu.TeacherLogin = nil, nil
	}

	var updated user.User
	err := s.p.run(control("profile", usr.ID), func() error {
		var err error
		updated, err = s.p.users.Update(usr.ID, uu)
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	s.usr = updated.Sanitize()
	s.mu.Unlock()
	s.refreshOwn()
	return s.User(), nil
}

func (s *Session) ChangePassword(currentPwd, newPwd string) error {
	id := s.User().ID
	return s.p.run(control("password", id), func() error {
		return s.p.users.ChangePassword(id, currentPwd, newPwd)
	})
}

func (s *Session) requireRole(role user.Role) error {
	if s.User().Role != role {
		return core.NewPermissionError(fmt.Sprintf("this page is restricted to the %s role", role))
	}
	return nil
}

func (s *Session) adopt(m *mount) {
	s.ownMu.Lock()
	s.own[m] = struct{}{}
	s.ownMu.Unlock()
}

func (s *Session) forget(m *mount) {
	s.ownMu.Lock()
	delete(s.own, m)
	s.ownMu.Unlock()
}

func (s *Session) mounts() []*mount {
	s.ownMu.Lock()
	defer s.ownMu.Unlock()

	mounted := make([]*mount, 0, len(s.own))
	for m := range s.own {
		mounted = append(mounted, m)
	}
	return mounted
}

// refreshOwn re-projects the session's mounted views right after one of its own writes.
func (s *Session) refreshOwn() {
	for _, m := range s.mounts() {
		m.refreshFn()
	}
}
