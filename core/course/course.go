package course

import (
	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrNameExists = errors.New("a course with this name already exists")

	statusLabels = map[Status]string{
		StatusActive:   "Активный",
		StatusInactive: "Неактивный",
	}
)

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Course struct {
	ID          core.ID `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Teacher     string  `json:"teacher"`
	Description string  `json:"description,omitempty"`
	Status      Status  `json:"status"`

	// cached counts, recomputed by the admin view
	StudentsCount    int `json:"studentsCount"`
	AssignmentsCount int `json:"assignmentsCount"`
}

type NewCourse struct {
	Name        string `json:"name" validate:"notblank,min=2,max=100"`
	Teacher     string `json:"teacher" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
	Status      Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdateCourse struct {
	Name        *string `json:"name" validate:"omitempty,notblank,min=2,max=100"`
	Teacher     *string `json:"teacher" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

type (
	Repository interface {
		QueryAllCourses() ([]Course, error)
		GetCourseByID(id core.ID) (Course, error)
		// CreateCourse assigns the next course id and persists c.
		CreateCourse(c Course) (Course, error)
		UpdateCourse(c Course) (Course, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetAll() ([]Course, error) {
	return svc.repo.QueryAllCourses()
}

func (svc *Service) checkUniqueness(name string, exclID core.ID) error {
	courses, err := svc.repo.QueryAllCourses()
	if err != nil {
		return err
	}
	s := slug.Make(name)
	for _, c := range courses {
		if c.ID != exclID && (c.Slug == s || slug.Make(c.Name) == s) {
			return core.NewConflictError("name", ErrNameExists.Error())
		}
	}
	return nil
}

func (svc *Service) Create(actor user.Actor, nc NewCourse) (Course, error) {
	if actor.Role != user.RoleAdmin {
		return Course{}, core.NewPermissionError("only admins can manage courses")
	}
	nc.Name = core.CleanString(nc.Name)
	nc.Teacher = core.CleanString(nc.Teacher)
	nc.Description = core.CleanString(nc.Description)
	if nc.Status == "" {
		nc.Status = StatusActive
	}
	if err := core.ValidateStruct(nc); err != nil {
		return Course{}, err
	}
	if err := svc.checkUniqueness(nc.Name, 0); err != nil {
		return Course{}, err
	}
	return svc.repo.CreateCourse(Course{
		Name:        nc.Name,
		Slug:        slug.Make(nc.Name),
		Teacher:     nc.Teacher,
		Description: nc.Description,
		Status:      nc.Status,
	})
}

func (svc *Service) Update(actor user.Actor, id core.ID, uc UpdateCourse) (Course, error) {
	if actor.Role != user.RoleAdmin {
		return Course{}, core.NewPermissionError("only admins can manage courses")
	}
	for _, fld := range []*string{uc.Name, uc.Teacher, uc.Description} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if err := core.ValidateStruct(uc); err != nil {
		return Course{}, err
	}

	c, err := svc.repo.GetCourseByID(id)
	if err != nil {
		return Course{}, err
	}
	if uc.Name != nil {
		if err := svc.checkUniqueness(*uc.Name, id); err != nil {
			return Course{}, err
		}
		c.Name = *uc.Name
		c.Slug = slug.Make(c.Name)
	}
	if uc.Teacher != nil {
		c.Teacher = *uc.Teacher
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Status != nil {
		c.Status = *uc.Status
	}
	return svc.repo.UpdateCourse(c)
}
