package view

import (
	"sort"
	"strings"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

type TeacherSubmission struct {
	Submission      submission.Submission `json:"submission"`
	AssignmentTitle string                `json:"assignmentTitle"`
	StudentName     string                `json:"studentName"`
}

type TeacherAssignment struct {
	// Assignment carries counters computed from the submissions, not the stored ones.
	Assignment  assignment.Assignment `json:"assignment"`
	Submissions []TeacherSubmission   `json:"submissions"`
}

type TeacherView struct {
	Assignments []TeacherAssignment `json:"assignments"`
	// Pending are the submissions awaiting review, oldest first.
	Pending []TeacherSubmission `json:"pending"`
	Groups  []string            `json:"groups"`
}

// ProjectTeacher lists the actor's assignments with their submissions.
// Submissions whose assignment is gone are kept under Pending when still awaiting review.
func ProjectTeacher(actor user.Actor, users []user.User, assignments []assignment.Assignment, subs []submission.Submission) TeacherView {
	tv := TeacherView{
		Assignments: make([]TeacherAssignment, 0),
		Pending:     make([]TeacherSubmission, 0),
		Groups:      make([]string, 0),
	}
	login := core.CleanString(actor.Login)
	if login == "" {
		return tv
	}

	dir := newDirectory(users)
	seenGroups := make(map[string]bool)
	addGroup := func(group string) {
		if g := core.NormalizeGroup(group); g != "" && !seenGroups[g] {
			seenGroups[g] = true
			tv.Groups = append(tv.Groups, core.CleanString(group))
		}
	}

	owned := make(map[core.ID]assignment.Assignment)
	for _, a := range assignments {
		if !a.OwnedBy(login) {
			continue
		}
		owned[a.ID] = a
		for _, g := range a.StudentGroups {
			addGroup(g)
		}
		a.SubmissionsCount, a.PendingCount = submission.Counters(subs, a.ID)
		ta := TeacherAssignment{Assignment: a, Submissions: make([]TeacherSubmission, 0)}
		for _, s := range submission.FilterByAssignment(subs, a.ID) {
			ta.Submissions = append(ta.Submissions, TeacherSubmission{
				Submission:      s,
				AssignmentTitle: a.Title,
				StudentName:     dir.studentName(s.StudentID, s.StudentName),
			})
		}
		tv.Assignments = append(tv.Assignments, ta)
	}

	for _, s := range subs {
		a, ok := owned[s.AssignmentID]
		if !ok && !strings.EqualFold(s.TeacherLogin, login) {
			continue
		}
		addGroup(s.Group)
		if s.Status != submission.StatusSubmitted {
			continue
		}
		title := Unknown
		if ok {
			title = a.Title
		}
		tv.Pending = append(tv.Pending, TeacherSubmission{
			Submission:      s,
			AssignmentTitle: title,
			StudentName:     dir.studentName(s.StudentID, s.StudentName),
		})
	}
	sort.SliceStable(tv.Pending, func(i, j int) bool {
		return tv.Pending[i].Submission.SubmissionDate.Before(tv.Pending[j].Submission.SubmissionDate)
	})
	return tv
}
