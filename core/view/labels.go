// Package view derives the role-scoped view models from the three shared collections.
// Projectors are pure: they read nothing but their arguments.
package view

import (
	"strings"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/user"
)

// Placeholders shown for dangling references.
const (
	UnknownTeacher = "Не указан"
	Unknown        = "Неизвестно"
)

// StudentStatus is the state of an assignment from its student's point of view.
type StudentStatus string

const (
	NotSubmitted StudentStatus = "not_submitted"
	Submitted    StudentStatus = "submitted"
	Graded       StudentStatus = "graded"
	Returned     StudentStatus = "returned"
)

var studentStatusLabels = map[StudentStatus]string{
	NotSubmitted: "Не сдана",
	Submitted:    "На проверке",
	Graded:       "Зачтена",
	Returned:     "Возвращена",
}

func (s StudentStatus) Label() string {
	if l, ok := studentStatusLabels[s]; ok {
		return l
	}
	return studentStatusLabels[NotSubmitted]
}

// directory indexes users for the display lookups of one projection.
type directory struct {
	byLogin map[string]user.User
	byID    map[core.ID]user.User
}

func newDirectory(users []user.User) directory {
	d := directory{
		byLogin: make(map[string]user.User, len(users)),
		byID:    make(map[core.ID]user.User, len(users)),
	}
	for _, u := range users {
		d.byLogin[strings.ToLower(u.Login)] = u
		d.byID[u.ID] = u
	}
	return d
}

// teacherName is the live name of the assignment's owner, else its cached copy, else a placeholder.
func (d directory) teacherName(a assignment.Assignment) string {
	if u, ok := d.byLogin[strings.ToLower(a.TeacherLogin)]; ok && a.TeacherLogin != "" && u.Name != "" {
		return u.Name
	}
	if name := core.CleanString(a.TeacherName); name != "" {
		return name
	}
	return UnknownTeacher
}

func (d directory) studentName(id core.ID, cached string) string {
	if u, ok := d.byID[id]; ok && u.Name != "" {
		return u.Name
	}
	if cached = core.CleanString(cached); cached != "" {
		return cached
	}
	return Unknown
}

// TeacherName resolves the display name of an assignment's owner.
func TeacherName(a assignment.Assignment, users []user.User) string {
	return newDirectory(users).teacherName(a)
}
