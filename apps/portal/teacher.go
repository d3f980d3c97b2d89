package portal

import (
	"fmt"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/core/view"
	"github.com/trezcool/coursework/storage/kvstore"
)

var teacherKeys = []string{kvstore.KeyAssignments, kvstore.KeySubmissions, kvstore.KeyUsers}

type TeacherSession struct {
	*Session
}

func (s *Session) Teacher() (*TeacherSession, error) {
	if err := s.requireRole(user.RoleTeacher); err != nil {
		return nil, err
	}
	return &TeacherSession{Session: s}, nil
}

func (s *TeacherSession) View() view.TeacherView {
	users, assignments, subs := s.p.snapshot()
	return view.ProjectTeacher(s.Actor(), users, assignments, subs)
}

// Mount keeps the teacher's view up to date. onChange may be nil.
func (s *TeacherSession) Mount(onChange func(view.TeacherView)) *View[view.TeacherView] {
	return newView(s.Session, teacherKeys, s.View, onChange)
}

func (s *TeacherSession) CreateAssignment(na assignment.NewAssignment) (assignment.Assignment, error) {
	actor := s.Actor()
	var a assignment.Assignment
	err := s.p.run(control("createAssignment", 0), func() error {
		var err error
		a, err = s.p.asgSvc.Create(actor, na)
		return err
	})
	if err != nil {
		return assignment.Assignment{}, err
	}

	s.p.record(actor, activity.ActionCreateAssignment, fmt.Sprintf("Создано задание «%s»", a.Title))
	s.refreshOwn()
	return a, nil
}

func (s *TeacherSession) UpdateAssignment(id core.ID, ua assignment.UpdateAssignment) (assignment.Assignment, error) {
	actor := s.Actor()
	var a assignment.Assignment
	err := s.p.run(control("updateAssignment", id), func() error {
		var err error
		a, err = s.p.asgSvc.Update(actor, id, ua)
		return err
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	s.refreshOwn()
	return a, nil
}

// DeleteAssignment removes an own assignment together with its submissions.
func (s *TeacherSession) DeleteAssignment(id core.ID) error {
	return deleteAssignment(s.Session, id)
}

func deleteAssignment(s *Session, id core.ID) error {
	actor := s.Actor()
	var a assignment.Assignment
	err := s.p.run(control("deleteAssignment", id), func() error {
		var err error
		a, err = s.p.asgSvc.Delete(actor, id)
		return err
	})
	if err != nil {
		return err
	}

	s.p.record(actor, activity.ActionDeleteAssignment, fmt.Sprintf("Удалено задание «%s»", a.Title))
	s.refreshOwn()
	return nil
}

// Grade scores a submission and notifies its student.
func (s *TeacherSession) Grade(id core.ID, score int, comment string) (submission.Submission, error) {
	actor := s.Actor()
	var sub submission.Submission
	err := s.p.run(control("grade", id), func() error {
		var err error
		sub, err = s.p.subSvc.Grade(actor, id, score, comment)
		return err
	})
	if err != nil {
		return submission.Submission{}, err
	}

	s.p.record(actor, activity.ActionGradeWork, fmt.Sprintf("Оценена работа #%s: %d/%d", sub.ID, score, sub.MaxScore))
	s.p.notifyReviewed(sub)
	s.refreshOwn()
	return sub, nil
}

// Return sends a submission back to its student for rework.
func (s *TeacherSession) Return(id core.ID, comment string) (submission.Submission, error) {
	actor := s.Actor()
	var sub submission.Submission
	err := s.p.run(control("return", id), func() error {
		var err error
		sub, err = s.p.subSvc.Return(actor, id, comment)
		return err
	})
	if err != nil {
		return submission.Submission{}, err
	}

	s.p.record(actor, activity.ActionReturnWork, fmt.Sprintf("Работа #%s возвращена на доработку", sub.ID))
	s.p.notifyReviewed(sub)
	s.refreshOwn()
	return sub, nil
}
