package portal

import (
	"fmt"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/core/view"
	"github.com/trezcool/coursework/storage/kvstore"
)

var adminKeys = []string{
	kvstore.KeyAssignments, kvstore.KeySubmissions, kvstore.KeyUsers, kvstore.KeyCourses,
}

type AdminSession struct {
	*Session
}

func (s *Session) Admin() (*AdminSession, error) {
	if err := s.requireRole(user.RoleAdmin); err != nil {
		return nil, err
	}
	return &AdminSession{Session: s}, nil
}

func (s *AdminSession) View() view.AdminView {
	users, assignments, subs := s.p.snapshot()
	courses, err := s.p.courses.GetAll()
	if err != nil {
		s.p.logger.Error("portal: reading courses", err)
	}
	return view.ProjectAdmin(users, assignments, subs, courses)
}

func (s *AdminSession) Stats() view.AdminStats {
	return s.View().Stats
}

// Mount keeps the admin view up to date. onChange may be nil.
func (s *AdminSession) Mount(onChange func(view.AdminView)) *View[view.AdminView] {
	return newView(s.Session, adminKeys, s.View, onChange)
}

// Users lists the sanitized users matching filter, sorted by sortBy (registration order if empty).
func (s *AdminSession) Users(filter user.QueryFilter, sortBy string, desc bool) ([]user.User, error) {
	all, err := s.p.users.GetAll()
	if err != nil {
		return nil, err
	}
	users := user.Filter(all, filter)
	if sortBy != "" {
		user.Sort(users, sortBy, desc)
	}
	for i := range users {
		users[i] = users[i].Sanitize()
	}
	return users, nil
}

func (s *AdminSession) CreateUser(nu user.NewUser) (user.User, error) {
	var usr user.User
	err := s.p.run(control("createUser", 0), func() error {
		var err error
		usr, err = s.p.users.Create(nu)
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	s.p.record(s.Actor(), activity.ActionCreateUser, fmt.Sprintf("Создан пользователь %s (%s)", usr.Login, usr.Role.Label()))
	s.refreshOwn()
	return usr.Sanitize(), nil
}

func (s *AdminSession) UpdateUser(id core.ID, uu user.UpdateUser) (user.User, error) {
	self := s.User().ID == id
	if self && ((uu.Role != nil && *uu.Role != user.RoleAdmin) || (uu.IsActive != nil && !*uu.IsActive)) {
		return user.User{}, core.NewPermissionError("admins cannot demote or disable their own account")
	}

	var usr user.User
	err := s.p.run(control("updateUser", id), func() error {
		var err error
		usr, err = s.p.users.Update(id, uu)
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	if self {
		s.mu.Lock()
		s.usr = usr.Sanitize()
		s.mu.Unlock()
	}
	s.p.record(s.Actor(), activity.ActionUpdateUser, fmt.Sprintf("Изменен пользователь %s", usr.Login))
	s.refreshOwn()
	return usr.Sanitize(), nil
}

// DeleteUser removes an account. Its assignments and submissions stay and display placeholders.
func (s *AdminSession) DeleteUser(id core.ID) error {
	if s.User().ID == id {
		return core.NewPermissionError("admins cannot delete their own account")
	}

	var usr user.User
	err := s.p.run(control("deleteUser", id), func() error {
		var err error
		usr, err = s.p.users.Delete(id)
		return err
	})
	if err != nil {
		return err
	}

	s.p.record(s.Actor(), activity.ActionDeleteUser, fmt.Sprintf("Удален пользователь %s", usr.Login))
	s.refreshOwn()
	return nil
}

func (s *AdminSession) DeleteAssignment(id core.ID) error {
	return deleteAssignment(s.Session, id)
}

func (s *AdminSession) Courses() ([]course.Course, error) {
	return s.p.courses.GetAll()
}

func (s *AdminSession) CreateCourse(nc course.NewCourse) (course.Course, error) {
	actor := s.Actor()
	var c course.Course
	err := s.p.run(control("createCourse", 0), func() error {
		var err error
		c, err = s.p.courses.Create(actor, nc)
		return err
	})
	if err != nil {
		return course.Course{}, err
	}

	s.p.record(actor, activity.ActionCreateCourse, fmt.Sprintf("Создан курс «%s»", c.Name))
	s.refreshOwn()
	return c, nil
}

func (s *AdminSession) UpdateCourse(id core.ID, uc course.UpdateCourse) (course.Course, error) {
	actor := s.Actor()
	var c course.Course
	err := s.p.run(control("updateCourse", id), func() error {
		var err error
		c, err = s.p.courses.Update(actor, id, uc)
		return err
	})
	if err != nil {
		return course.Course{}, err
	}

	s.p.record(actor, activity.ActionUpdateCourse, fmt.Sprintf("Изменен курс «%s»", c.Name))
	s.refreshOwn()
	return c, nil
}

// Activity returns the activity log, newest first.
func (s *AdminSession) Activity() ([]activity.Entry, error) {
	return s.p.activity.GetAll()
}
