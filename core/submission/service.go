package submission

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound          = errors.New("submission not found")
	ErrAlreadySubmitted  = errors.New("this assignment is already submitted and awaiting review")
	ErrAlreadyGraded     = errors.New("this assignment is already graded")
	ErrAssignmentClosed  = errors.New("this assignment does not accept submissions")
	ErrInvalidTransition = errors.New("this submission cannot be changed from its current status")
)

const maxCommentLen = 2000

type (
	Repository interface {
		QueryAllSubmissions() ([]Submission, error)
		GetSubmissionByID(id core.ID) (Submission, error)
		// CreateSubmission assigns a fresh id, persists s and refreshes the counters of its assignment.
		CreateSubmission(s Submission) (Submission, error)
		// UpdateSubmission persists s and refreshes the counters of its assignment in the same write.
		UpdateSubmission(s Submission) (Submission, error)
	}

	AssignmentFinder interface {
		GetAssignmentByID(id core.ID) (assignment.Assignment, error)
	}

	StudentFinder interface {
		GetUserByID(id core.ID) (user.User, error)
	}

	Service struct {
		repo        Repository
		assignments AssignmentFinder
		students    StudentFinder
	}
)

func NewService(repo Repository, assignments AssignmentFinder, students StudentFinder) *Service {
	return &Service{repo: repo, assignments: assignments, students: students}
}

func (svc *Service) GetAll() ([]Submission, error) {
	return svc.repo.QueryAllSubmissions()
}

func (svc *Service) GetByID(id core.ID) (Submission, error) {
	return svc.repo.GetSubmissionByID(id)
}

func (svc *Service) GetByAssignment(assignmentID core.ID) ([]Submission, error) {
	all, err := svc.repo.QueryAllSubmissions()
	if err != nil {
		return nil, err
	}
	return FilterByAssignment(all, assignmentID), nil
}

func (svc *Service) GetByStudent(studentID core.ID) ([]Submission, error) {
	all, err := svc.repo.QueryAllSubmissions()
	if err != nil {
		return nil, err
	}
	return FilterByStudent(all, studentID), nil
}

// Create records a new attempt of actor at an assignment.
// A new attempt is accepted when the student has none yet or the latest one was returned.
func (svc *Service) Create(actor user.Actor, ns NewSubmission) (Submission, error) {
	if actor.Role != user.RoleStudent {
		return Submission{}, core.NewPermissionError("only students can submit work")
	}
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}

	a, err := svc.assignments.GetAssignmentByID(ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if !a.VisibleTo(actor.Group) || !a.OwnedBy(actor.TeacherLogin) {
		return Submission{}, core.NewPermissionError("this assignment is not issued to you")
	}
	if a.Status != assignment.StatusActive {
		return Submission{}, ErrAssignmentClosed
	}

	all, err := svc.repo.QueryAllSubmissions()
	if err != nil {
		return Submission{}, err
	}
	if latest, ok := Latest(all, a.ID, actor.ID); ok {
		switch latest.Status {
		case StatusSubmitted:
			return Submission{}, core.NewConflictError("assignmentId", ErrAlreadySubmitted.Error())
		case StatusGraded:
			return Submission{}, core.NewConflictError("assignmentId", ErrAlreadyGraded.Error())
		}
	}

	studentName := actor.Login
	if usr, err := svc.students.GetUserByID(actor.ID); err == nil {
		studentName = usr.Name
	} else if errors.Cause(err) != user.ErrNotFound {
		return Submission{}, err
	}

	return svc.repo.CreateSubmission(Submission{
		AssignmentID:   a.ID,
		StudentID:      actor.ID,
		StudentName:    studentName,
		Group:          actor.Group,
		SubmissionDate: NowFunc().UTC(),
		Status:         StatusSubmitted,
		Comment:        ns.Comment,
		MaxScore:       a.MaxScore,
		TeacherLogin:   a.TeacherLogin,
		FileName:       ns.FileName,
		FileSize:       ns.FileSize,
	})
}

// reviewable loads a submission and checks that actor owns its assignment.
// It also returns the maximum score the submission can be graded with.
func (svc *Service) reviewable(actor user.Actor, id core.ID) (Submission, int, error) {
	sub, err := svc.repo.GetSubmissionByID(id)
	if err != nil {
		return Submission{}, 0, err
	}

	owner, maxScore := sub.TeacherLogin, sub.MaxScore
	if a, err := svc.assignments.GetAssignmentByID(sub.AssignmentID); err == nil {
		owner = a.TeacherLogin
		// the lower of the maximum at submission time and the current one
		if a.MaxScore > 0 && (maxScore <= 0 || a.MaxScore < maxScore) {
			maxScore = a.MaxScore
		}
	} else if errors.Cause(err) != assignment.ErrNotFound {
		return Submission{}, 0, err
	}

	if actor.Role != user.RoleTeacher || actor.Login == "" || !strings.EqualFold(actor.Login, owner) {
		return Submission{}, 0, core.NewPermissionError("only the owner of the assignment can review its submissions")
	}
	return sub, maxScore, nil
}

// Grade sets the score of a submitted (or already graded) submission.
func (svc *Service) Grade(actor user.Actor, id core.ID, score int, comment string) (Submission, error) {
	sub, maxScore, err := svc.reviewable(actor, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.Status != StatusSubmitted && sub.Status != StatusGraded {
		return Submission{}, ErrInvalidTransition
	}

	comment = core.CleanString(comment)
	if err := ValidateScore(score, maxScore); err != nil {
		return Submission{}, err
	}
	if err := validateComment(comment, false); err != nil {
		return Submission{}, err
	}

	sub.Status = StatusGraded
	sub.Score = &score
	sub.Comment = comment
	return svc.repo.UpdateSubmission(sub)
}

// Return sends a submitted work back to the student with a mandatory comment; its score is cleared.
func (svc *Service) Return(actor user.Actor, id core.ID, comment string) (Submission, error) {
	sub, _, err := svc.reviewable(actor, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.Status != StatusSubmitted {
		return Submission{}, ErrInvalidTransition
	}

	comment = core.CleanString(comment)
	if err := validateComment(comment, true); err != nil {
		return Submission{}, err
	}

	sub.Status = StatusReturned
	sub.Score = nil
	sub.Comment = comment
	return svc.repo.UpdateSubmission(sub)
}

// ValidateScore checks 0 <= score <= maxScore.
func ValidateScore(score, maxScore int) error {
	if score < 0 {
		return core.NewFieldError("score", "score cannot be negative")
	}
	if score > maxScore {
		return core.NewFieldError("score", fmt.Sprintf("score cannot exceed %d", maxScore))
	}
	return nil
}

func validateComment(comment string, required bool) error {
	if required && comment == "" {
		return core.NewFieldError("comment", "a comment is required to return a submission")
	}
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return core.NewFieldError("comment", fmt.Sprintf("comment must not exceed %d characters", maxCommentLen))
	}
	return nil
}
