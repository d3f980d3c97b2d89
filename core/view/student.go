package view

import (
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

type StudentAssignment struct {
	Assignment assignment.Assignment `json:"assignment"`
	Teacher    string                `json:"teacher"`
	Status     StudentStatus         `json:"status"`
	// Submission is the student's latest attempt, nil if none.
	Submission *submission.Submission `json:"submission"`
	Score      *int                   `json:"score"`
	Comment    string                 `json:"comment,omitempty"`
}

func (sa StudentAssignment) StatusLabel() string { return sa.Status.Label() }

// ProjectStudent lists the assignments issued to the actor's group by the actor's teacher,
// each with the state of the actor's latest submission.
// A student without a group or a teacher sees nothing, as does everyone for an assignment without groups.
func ProjectStudent(actor user.Actor, users []user.User, assignments []assignment.Assignment, subs []submission.Submission) []StudentAssignment {
	result := make([]StudentAssignment, 0)
	if core.NormalizeGroup(actor.Group) == "" || core.CleanString(actor.TeacherLogin) == "" {
		return result
	}

	dir := newDirectory(users)
	for _, a := range assignments {
		if !a.VisibleTo(actor.Group) || !a.OwnedBy(core.CleanString(actor.TeacherLogin)) {
			continue
		}
		sa := StudentAssignment{
			Assignment: a,
			Teacher:    dir.teacherName(a),
			Status:     NotSubmitted,
		}
		if latest, ok := submission.Latest(subs, a.ID, actor.ID); ok {
			sa.Submission = &latest
			sa.Status = StudentStatus(latest.Status)
			sa.Comment = latest.Comment
			if latest.Status == submission.StatusGraded {
				sa.Score = latest.Score
			}
		}
		result = append(result, sa)
	}
	return result
}

// StudentSummary counts the projected assignments by status.
type StudentSummary struct {
	Total        int `json:"total"`
	NotSubmitted int `json:"notSubmitted"`
	Submitted    int `json:"submitted"`
	Graded       int `json:"graded"`
	Returned     int `json:"returned"`
}

func SummarizeStudent(items []StudentAssignment) StudentSummary {
	var sum StudentSummary
	for _, it := range items {
		sum.Total++
		switch it.Status {
		case Submitted:
			sum.Submitted++
		case Graded:
			sum.Graded++
		case Returned:
			sum.Returned++
		default:
			sum.NotSubmitted++
		}
	}
	return sum
}
