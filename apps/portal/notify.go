package portal

import (
	"net/mail"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/core/view"
)

const reviewedTemplate = "submission_reviewed"

func init() {
	core.RegisterTemplate(reviewedTemplate, `Здравствуйте, {{.Data.StudentName}}!

Ваша работа по заданию «{{.Data.AssignmentTitle}}» проверена.
Статус: {{.Data.Status}}
{{- if .Data.Score}}
Оценка: {{.Data.Score}} из {{.Data.MaxScore}}
{{- end}}
{{- if .Data.Comment}}
Комментарий преподавателя: {{.Data.Comment}}
{{- end}}

{{.AppName}}
`)
}

type reviewedData struct {
	StudentName     string
	AssignmentTitle string
	Status          string
	Score           string
	MaxScore        int
	Comment         string
}

// notifyReviewed emails the student of sub when they opted in to email notifications.
// Failing to notify never fails the review.
func (p *Portal) notifyReviewed(sub submission.Submission) {
	if p.mailSvc == nil {
		return
	}

	student, err := p.users.GetByID(sub.StudentID)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			p.logger.Warn("portal: loading student to notify", err)
		}
		return
	}
	if !student.Notifications.Email || student.Email == "" {
		return
	}

	data := reviewedData{
		StudentName:     student.Name,
		AssignmentTitle: view.Unknown,
		Status:          sub.Status.Label(),
		MaxScore:        sub.MaxScore,
		Comment:         sub.Comment,
	}
	if a, err := p.asgSvc.GetByID(sub.AssignmentID); err == nil {
		data.AssignmentTitle = a.Title
	}
	if sub.Score != nil {
		data.Score = strconv.Itoa(*sub.Score)
	}

	p.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Работа проверена: " + data.AssignmentTitle,
		TemplateName: reviewedTemplate,
		TemplateData: data,
	})
}
