package assignment

import (
	"strings"

	"github.com/trezcool/coursework/core"
)

type (
	Status         string
	Priority       string
	SubmissionType string
)

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	SubmissionFile SubmissionType = "file"
	SubmissionDemo SubmissionType = "demo"
)

var (
	statusLabels = map[Status]string{
		StatusDraft:  "Черновик",
		StatusActive: "Активно",
	}
	priorityLabels = map[Priority]string{
		PriorityLow:    "Низкий",
		PriorityMedium: "Средний",
		PriorityHigh:   "Высокий",
	}
	submissionTypeLabels = map[SubmissionType]string{
		SubmissionFile: "Файл",
		SubmissionDemo: "Демонстрация",
	}
)

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return priorityLabels[PriorityMedium]
}

func (t SubmissionType) Label() string {
	if l, ok := submissionTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

type Assignment struct {
	ID             core.ID        `json:"id"`
	Title          string         `json:"title"`
	Course         string         `json:"course"`
	Description    string         `json:"description"`
	Deadline       string         `json:"deadline"` // ISO date, optionally with a time
	MaxScore       int            `json:"maxScore"`
	SubmissionType SubmissionType `json:"submissionType"`
	Criteria       []string       `json:"criteria"`
	StudentGroups  []string       `json:"studentGroups"`
	TeacherLogin   string         `json:"teacherLogin"`
	// TeacherName is a cached copy of the owner's name, used when the owner can no longer be found.
	TeacherName string   `json:"teacherName"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	CreatedAt   string   `json:"createdAt"` // YYYY-MM-DD

	// derived caches, recomputed from the submissions; never accepted as input
	SubmissionsCount int `json:"submissionsCount"`
	PendingCount     int `json:"pendingCount"`
}

// VisibleTo reports whether group is one of the assignment's student groups.
// An assignment with no groups is visible to nobody.
func (a Assignment) VisibleTo(group string) bool {
	for _, g := range a.StudentGroups {
		if core.SameGroup(g, group) {
			return true
		}
	}
	return false
}

func (a Assignment) OwnedBy(teacherLogin string) bool {
	return teacherLogin != "" && strings.EqualFold(a.TeacherLogin, teacherLogin)
}

// NewAssignment contains the information a teacher provides to create an Assignment.
// The owner, id, dates, status and counters are stamped by the Service.
type NewAssignment struct {
	Title          string         `json:"title" validate:"notblank,min=3,max=200"`
	Course         string         `json:"course" validate:"notblank,max=200"`
	Description    string         `json:"description" validate:"max=5000"`
	Deadline       string         `json:"deadline" validate:"required,deadline"`
	MaxScore       int            `json:"maxScore" validate:"min=1,max=1000"`
	SubmissionType SubmissionType `json:"submissionType" validate:"omitempty,oneof=file demo"`
	Criteria       []string       `json:"criteria" validate:"dive,notblank,max=500"`
	StudentGroups  []string       `json:"studentGroups" validate:"dive,required,max=20,group"`
	Priority       Priority       `json:"priority" validate:"omitempty,oneof=low medium high"`
	// Group is the single-group shortcut of the assignment form; it is folded into StudentGroups.
	Group string `json:"group"`
}

func (na *NewAssignment) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Course = core.CleanString(na.Course)
	na.Description = core.CleanString(na.Description)
	na.Deadline = normalizeDeadline(core.CleanString(na.Deadline))
	na.Criteria = cleanList(na.Criteria)
	if len(na.StudentGroups) == 0 && na.Group != "" && na.Group != AllGroups {
		na.StudentGroups = []string{na.Group}
	}
	na.StudentGroups = cleanList(na.StudentGroups)
	na.Group = ""
	if na.SubmissionType == "" {
		na.SubmissionType = SubmissionFile
	}
	if na.Priority == "" {
		na.Priority = PriorityMedium
	}
}

func (na *NewAssignment) Validate() error {
	na.Clean()
	return core.ValidateStruct(na)
}

// AllGroups is the form placeholder meaning "no group selected".
const AllGroups = "Все группы"

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
// nil fields are left unchanged. Ownership and counters cannot be changed.
type UpdateAssignment struct {
	Title          *string         `json:"title" validate:"omitempty,notblank,min=3,max=200"`
	Course         *string         `json:"course" validate:"omitempty,notblank,max=200"`
	Description    *string         `json:"description" validate:"omitempty,max=5000"`
	Deadline       *string         `json:"deadline" validate:"omitempty,deadline"`
	MaxScore       *int            `json:"maxScore" validate:"omitempty,min=1,max=1000"`
	SubmissionType *SubmissionType `json:"submissionType" validate:"omitempty,oneof=file demo"`
	Criteria       []string        `json:"criteria" validate:"omitempty,dive,notblank,max=500"`
	StudentGroups  []string        `json:"studentGroups" validate:"omitempty,dive,required,max=20,group"`
	Priority       *Priority       `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status         *Status         `json:"status" validate:"omitempty,oneof=draft active"`
}

func (ua *UpdateAssignment) Validate() error {
	for _, fld := range []*string{ua.Title, ua.Course, ua.Description, ua.Deadline} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if ua.Deadline != nil {
		*ua.Deadline = normalizeDeadline(*ua.Deadline)
	}
	if ua.Criteria != nil {
		ua.Criteria = cleanList(ua.Criteria)
	}
	if ua.StudentGroups != nil {
		ua.StudentGroups = cleanList(ua.StudentGroups)
	}
	return core.ValidateStruct(ua)
}

func (ua UpdateAssignment) apply(a Assignment) Assignment {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.Title, ua.Title)
	set(&a.Course, ua.Course)
	set(&a.Description, ua.Description)
	set(&a.Deadline, ua.Deadline)
	if ua.MaxScore != nil {
		a.MaxScore = *ua.MaxScore
	}
	if ua.SubmissionType != nil {
		a.SubmissionType = *ua.SubmissionType
	}
	if ua.Criteria != nil {
		a.Criteria = ua.Criteria
	}
	if ua.StudentGroups != nil {
		a.StudentGroups = ua.StudentGroups
	}
	if ua.Priority != nil {
		a.Priority = *ua.Priority
	}
	if ua.Status != nil {
		a.Status = *ua.Status
	}
	return a
}

// cleanList trims every item and drops the blank ones.
func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		if it = core.CleanString(it); it != "" {
			cleaned = append(cleaned, it)
		}
	}
	return cleaned
}
