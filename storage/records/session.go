package records

import (
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/kvstore"
)

// Session keeps the signed-in user under the current_user key, without its password hash.
type Session struct {
	db *DB
}

func NewSession(db *DB) *Session {
	return &Session{db: db}
}

func (s *Session) SignIn(usr user.User) error {
	s.db.Lock()
	defer s.db.Unlock()
	return s.db.write(kvstore.KeyCurrentUser, usr.Sanitize())
}

// CurrentUser returns the signed-in user, if any.
func (s *Session) CurrentUser() (user.User, bool) {
	s.db.Lock()
	defer s.db.Unlock()

	var current *user.User
	if !s.db.store.Read(kvstore.KeyCurrentUser, &current) || current == nil {
		return user.User{}, false
	}
	return *current, true
}

func (s *Session) SignOut() error {
	s.db.Lock()
	defer s.db.Unlock()

	return s.db.remove(kvstore.KeyCurrentUser)
}
