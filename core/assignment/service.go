package assignment

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		QueryAllAssignments() ([]Assignment, error)
		GetAssignmentByID(id core.ID) (Assignment, error)
		// CreateAssignment assigns a fresh id and persists a.
		CreateAssignment(a Assignment) (Assignment, error)
		UpdateAssignment(a Assignment) (Assignment, error)
		// DeleteAssignment removes the assignment together with every submission referencing it.
		// Both collections are written before any listener is notified.
		DeleteAssignment(id core.ID) (Assignment, error)
		// RefreshCounters recomputes the submission counters of the given assignments (all of them if none given).
		RefreshCounters(ids ...core.ID) error
	}

	// UserFinder looks up the owner of an assignment.
	UserFinder interface {
		GetUserByLoginOrEmail(identifier string) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserFinder
	}
)

func NewService(repo Repository, users UserFinder) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) GetAll() ([]Assignment, error) {
	return svc.repo.QueryAllAssignments()
}

func (svc *Service) GetByID(id core.ID) (Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

func (svc *Service) GetByTeacher(teacherLogin string) ([]Assignment, error) {
	all, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return nil, err
	}
	return FilterByTeacher(all, teacherLogin), nil
}

// GetByGroup returns the assignments issued to group. Group names are compared normalized.
func (svc *Service) GetByGroup(group string) ([]Assignment, error) {
	all, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return nil, err
	}
	return FilterByGroup(all, group), nil
}

// Create issues a new assignment owned by actor, which must be a teacher.
// The owner always comes from actor, never from the form.
func (svc *Service) Create(actor user.Actor, na NewAssignment) (Assignment, error) {
	if actor.Role != user.RoleTeacher || actor.Login == "" {
		return Assignment{}, core.NewPermissionError("only teachers can create assignments")
	}
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}

	a := Assignment{
		Title:          na.Title,
		Course:         na.Course,
		Description:    na.Description,
		Deadline:       na.Deadline,
		MaxScore:       na.MaxScore,
		SubmissionType: na.SubmissionType,
		Criteria:       na.Criteria,
		StudentGroups:  na.StudentGroups,
		TeacherLogin:   actor.Login,
		Status:         StatusActive,
		Priority:       na.Priority,
		CreatedAt:      NowFunc().Format(dateLayout),
	}
	if owner, err := svc.users.GetUserByLoginOrEmail(actor.Login); err == nil {
		a.TeacherName = owner.Name
	} else if errors.Cause(err) != user.ErrNotFound {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(a)
}

// Update merges ua into the assignment. Only its owner may modify it.
func (svc *Service) Update(actor user.Actor, id core.ID, ua UpdateAssignment) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if actor.Role != user.RoleTeacher || !a.OwnedBy(actor.Login) {
		return Assignment{}, core.NewPermissionError("only the owner of an assignment can modify it")
	}
	if err := ua.Validate(); err != nil {
		return Assignment{}, err
	}
	return svc.repo.UpdateAssignment(ua.apply(a))
}

// Delete removes the assignment and all of its submissions. Its owner or an admin may delete it.
func (svc *Service) Delete(actor user.Actor, id core.ID) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if actor.Role != user.RoleAdmin && !(actor.Role == user.RoleTeacher && a.OwnedBy(actor.Login)) {
		return Assignment{}, core.NewPermissionError("only the owner of an assignment or an admin can delete it")
	}
	return svc.repo.DeleteAssignment(id)
}

func (svc *Service) RefreshCounters(ids ...core.ID) error {
	return svc.repo.RefreshCounters(ids...)
}

func FilterByTeacher(all []Assignment, teacherLogin string) []Assignment {
	filtered := make([]Assignment, 0)
	for _, a := range all {
		if a.OwnedBy(teacherLogin) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func FilterByGroup(all []Assignment, group string) []Assignment {
	filtered := make([]Assignment, 0)
	for _, a := range all {
		if a.VisibleTo(group) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
