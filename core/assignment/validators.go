package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
)

var (
	deadlineTag  = "deadline"
	deadlineText = "deadline must be a date (YYYY-MM-DD)"

	deadlineLayouts = []string{dateLayout, deadlineLayout, time.RFC3339}
)

const (
	dateLayout     = "2006-01-02"
	deadlineLayout = "2006-01-02T15:04:05"
	// deadlines given as a bare date end at the close of that day
	endOfDay = "T23:59:00"
)

func init() {
	_ = core.Validate.RegisterValidation(deadlineTag, deadlineValidation)
	core.RegisterCustomTranslation(deadlineTag, deadlineText)
}

func deadlineValidation(fl validator.FieldLevel) bool {
	_, ok := ParseDeadline(fl.Field().String())
	return ok
}

// ParseDeadline parses the stored deadline formats.
func ParseDeadline(s string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDeadline turns a bare date into the end of that day.
func normalizeDeadline(s string) string {
	if _, err := time.Parse(dateLayout, s); err == nil {
		return s + endOfDay
	}
	return s
}
