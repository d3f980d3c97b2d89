package submission

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusGraded    Status = "graded"
	StatusReturned  Status = "returned"
)

var (
	statusLabels = map[Status]string{
		StatusSubmitted: "На проверке",
		StatusGraded:    "Зачтена",
		StatusReturned:  "Возвращена",
	}

	// legacyStatuses maps the display literals older records were saved with.
	legacyStatuses = map[string]Status{
		"на проверке": StatusSubmitted,
		"зачтена":     StatusGraded,
		"возвращена":  StatusReturned,
	}
)

// ParseStatus maps a stored status, canonical or legacy, to a Status.
// legacy is true when s was one of the old display literals.
func ParseStatus(s string) (status Status, legacy bool, ok bool) {
	st := Status(strings.TrimSpace(s))
	if _, ok := statusLabels[st]; ok {
		return st, false, true
	}
	if st, ok := legacyStatuses[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, true, true
	}
	return "", false, false
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Submission struct {
	ID             core.ID   `json:"id"`
	AssignmentID   core.ID   `json:"assignmentId"`
	StudentID      core.ID   `json:"studentId"`
	StudentName    string    `json:"studentName"`
	Group          string    `json:"group"`
	SubmissionDate time.Time `json:"submissionDate"`
	Status         Status    `json:"status"`
	// Score is set iff Status is StatusGraded.
	Score        *int   `json:"score"`
	Comment      string `json:"comment,omitempty"`
	MaxScore     int    `json:"maxScore"`
	TeacherLogin string `json:"teacherLogin"`
	FileName     string `json:"fileName,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"` // bytes

	// legacyStatus is the non-canonical status literal the record was decoded from, if any.
	legacyStatus string
}

// LegacyStatus returns the old display literal the record's status was stored as, or "".
func (s Submission) LegacyStatus() string { return s.legacyStatus }

func (s Submission) IsGraded() bool { return s.Status == StatusGraded }

// UnmarshalJSON canonicalizes legacy status literals and tolerates file sizes stored as display strings ("2.4 MB").
// An unrecognized status is kept as stored (Status.Valid reports false) and an unreadable file size decodes as 0,
// so one odd record never makes its whole collection unreadable.
func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	aux := struct {
		*plain
		Status   json.RawMessage `json:"status"`
		FileSize json.RawMessage `json:"fileSize"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var stored string
	if len(aux.Status) > 0 && json.Unmarshal(aux.Status, &stored) != nil {
		stored = string(aux.Status)
	}
	st, legacy, ok := ParseStatus(stored)
	if !ok {
		st = Status(strings.TrimSpace(stored))
	}
	s.Status = st
	s.legacyStatus = ""
	if legacy {
		s.legacyStatus = stored
	}

	size, err := parseFileSize(aux.FileSize)
	if err != nil {
		size = 0
	}
	s.FileSize = size
	return nil
}

var sizeUnits = map[string]float64{
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
}

func parseFileSize(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int64(n), nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, errors.Wrap(err, "decoding fileSize")
	}
	fields := strings.Fields(strings.ToLower(str))
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseFloat(strings.Replace(fields[0], ",", ".", 1), 64)
	if err != nil {
		return 0, errors.Errorf("invalid fileSize %q", str)
	}
	unit := 1.0
	if len(fields) > 1 {
		if u, ok := sizeUnits[fields[1]]; ok {
			unit = u
		}
	}
	return int64(n * unit), nil
}

// NewSubmission contains what a student provides when submitting work.
type NewSubmission struct {
	AssignmentID core.ID `json:"assignmentId" validate:"required"`
	FileName     string  `json:"fileName" validate:"max=255"`
	FileSize     int64   `json:"fileSize" validate:"min=0"`
	Comment      string  `json:"comment" validate:"max=2000"`
}

func (ns *NewSubmission) Validate() error {
	ns.FileName = core.CleanString(ns.FileName)
	ns.Comment = core.CleanString(ns.Comment)
	return core.ValidateStruct(ns)
}
