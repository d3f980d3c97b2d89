package portal

import (
	"fmt"

	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/core/view"
	"github.com/trezcool/coursework/storage/kvstore"
)

var studentKeys = []string{kvstore.KeyAssignments, kvstore.KeySubmissions, kvstore.KeyUsers}

type StudentSession struct {
	*Session
}

func (s *Session) Student() (*StudentSession, error) {
	if err := s.requireRole(user.RoleStudent); err != nil {
		return nil, err
	}
	return &StudentSession{Session: s}, nil
}

// Assignments projects the assignments issued to the student now.
func (s *StudentSession) Assignments() []view.StudentAssignment {
	users, assignments, subs := s.p.snapshot()
	return view.ProjectStudent(s.Actor(), users, assignments, subs)
}

func (s *StudentSession) Summary() view.StudentSummary {
	return view.SummarizeStudent(s.Assignments())
}

// Mount keeps a projection of the student's assignments up to date. onChange may be nil.
func (s *StudentSession) Mount(onChange func([]view.StudentAssignment)) *View[[]view.StudentAssignment] {
	return newView(s.Session, studentKeys, s.Assignments, onChange)
}

// Submit hands in work for an assignment.
func (s *StudentSession) Submit(ns submission.NewSubmission) (submission.Submission, error) {
	actor := s.Actor()
	var sub submission.Submission
	err := s.p.run(control("submit", ns.AssignmentID), func() error {
		var err error
		sub, err = s.p.subSvc.Create(actor, ns)
		return err
	})
	if err != nil {
		return submission.Submission{}, err
	}

	s.p.record(actor, activity.ActionSubmitWork, fmt.Sprintf("Сдана работа по заданию #%s (%s)", sub.AssignmentID, sub.FileName))
	s.refreshOwn()
	return sub, nil
}
