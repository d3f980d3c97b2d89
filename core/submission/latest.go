package submission

import (
	"strconv"
	"strings"

	"github.com/trezcool/coursework/core"
)

type pairKey struct {
	assignmentID core.ID
	studentID    core.ID
}

// newer reports whether a supersedes b: the later submission date wins, then the greater id.
func newer(a, b Submission) bool {
	if !a.SubmissionDate.Equal(b.SubmissionDate) {
		return a.SubmissionDate.After(b.SubmissionDate)
	}
	return a.ID > b.ID
}

// LatestPerAssignmentStudent keeps, for each (assignment, student) pair, only the most recent submission.
// The result follows the order of subs.
func LatestPerAssignmentStudent(subs []Submission) []Submission {
	latest := make(map[pairKey]int, len(subs)) // pair -> index in subs
	for i, s := range subs {
		key := pairKey{s.AssignmentID, s.StudentID}
		if j, ok := latest[key]; !ok || newer(s, subs[j]) {
			latest[key] = i
		}
	}

	result := make([]Submission, 0, len(latest))
	for i, s := range subs {
		if latest[pairKey{s.AssignmentID, s.StudentID}] == i {
			result = append(result, s)
		}
	}
	return result
}

// Latest returns the most recent submission of student for assignment.
func Latest(subs []Submission, assignmentID, studentID core.ID) (Submission, bool) {
	var (
		found Submission
		ok    bool
	)
	for _, s := range subs {
		if s.AssignmentID != assignmentID || s.StudentID != studentID {
			continue
		}
		if !ok || newer(s, found) {
			found, ok = s, true
		}
	}
	return found, ok
}

func FilterByAssignment(subs []Submission, assignmentID core.ID) []Submission {
	filtered := make([]Submission, 0)
	for _, s := range subs {
		if s.AssignmentID == assignmentID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func FilterByStudent(subs []Submission, studentID core.ID) []Submission {
	filtered := make([]Submission, 0)
	for _, s := range subs {
		if s.StudentID == studentID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Counters counts the submissions of an assignment and those still awaiting review.
func Counters(subs []Submission, assignmentID core.ID) (total, pending int) {
	for _, s := range subs {
		if s.AssignmentID != assignmentID {
			continue
		}
		total++
		if s.Status == StatusSubmitted {
			pending++
		}
	}
	return total, pending
}

// ParseScore converts form input into a score.
func ParseScore(s string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, core.NewFieldError("score", "score must be an integer")
	}
	return score, nil
}
