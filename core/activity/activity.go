package activity

import (
	"time"

	"github.com/google/uuid"
)

// Actions
const (
	ActionLogin            = "login"
	ActionCreateUser       = "create_user"
	ActionUpdateUser       = "update_user"
	ActionDeleteUser       = "delete_user"
	ActionCreateCourse     = "create_course"
	ActionUpdateCourse     = "update_course"
	ActionCreateAssignment = "create_assignment"
	ActionDeleteAssignment = "delete_assignment"
	ActionSubmitWork       = "submit_work"
	ActionGradeWork        = "grade_work"
	ActionReturnWork       = "return_work"
)

// SystemUser is recorded when no actor is known.
const SystemUser = "system"

var NowFunc = time.Now // mockable

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

func NewEntry(login, action, details string) Entry {
	if login == "" {
		login = SystemUser
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: NowFunc().UTC(),
		User:      login,
		Action:    action,
		Details:   details,
	}
}

type (
	Repository interface {
		// AppendEntry stores e as the newest entry, dropping the oldest ones beyond max (no limit if max <= 0).
		AppendEntry(e Entry, max int) error
		// QueryEntries returns the entries newest first.
		QueryEntries() ([]Entry, error)
	}

	Service struct {
		repo       Repository
		maxEntries int
	}
)

func NewService(repo Repository, maxEntries int) *Service {
	return &Service{repo: repo, maxEntries: maxEntries}
}

func (svc *Service) Record(login, action, details string) (Entry, error) {
	e := NewEntry(login, action, details)
	if err := svc.repo.AppendEntry(e, svc.maxEntries); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (svc *Service) GetAll() ([]Entry, error) {
	return svc.repo.QueryEntries()
}
