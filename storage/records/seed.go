package records

import (
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/kvstore"
)

// DefaultPassword is the password of the seeded accounts.
const DefaultPassword = "Password123"

func defaultUsers() []user.User {
	return []user.User{
		{
			ID:               1,
			Login:            "student_ivanov",
			Email:            "ivanov@college.ru",
			Name:             "Иванов Алексей Петрович",
			Role:             user.RoleStudent,
			Group:            "ИСП-401",
			TeacherLogin:     "teacher_petrova",
			Phone:            "+7 (999) 111-22-33",
			Timezone:         "UTC+3",
			Bio:              "Студент 4 курса, интересы — веб-разработка и дизайн.",
			Theme:            "system",
			Notifications:    user.Notifications{Email: true, Push: true},
			IsActive:         true,
			RegistrationDate: "2024-01-15",
		},
		{
			ID:               2,
			Login:            "teacher_petrova",
			Email:            "petrova@college.ru",
			Name:             "Петрова Мария Сергеевна",
			Role:             user.RoleTeacher,
			Department:       "Информатика",
			Phone:            "+7 (999) 444-55-66",
			Timezone:         "UTC+3",
			Bio:              "Преподаватель дисциплин по программированию и базам данных.",
			Theme:            "system",
			Notifications:    user.Notifications{Email: true, Push: true, SMS: true},
			IsActive:         true,
			RegistrationDate: "2024-01-10",
		},
		{
			ID:               3,
			Login:            "admin_sidorov",
			Email:            "sidorov@college.ru",
			Name:             "Сидоров Андрей Васильевич",
			Role:             user.RoleAdmin,
			Phone:            "+7 (999) 777-88-99",
			Timezone:         "UTC+3",
			Bio:              "Администратор платформы, отвечает за безопасность и доступы.",
			Theme:            "system",
			Notifications:    user.Notifications{Email: true},
			IsActive:         true,
			RegistrationDate: "2024-01-01",
		},
	}
}

func defaultAssignments() []assignment.Assignment {
	return []assignment.Assignment{
		{
			ID:             1,
			Title:          "Курсовая работа по базам данных",
			Course:         "Базы данных",
			Description:    "Разработка схемы БД для информационной системы колледжа.",
			Deadline:       "2025-12-25T23:59:00",
			MaxScore:       100,
			SubmissionType: assignment.SubmissionFile,
			Criteria:       []string{"Качество проектирования БД - 40 баллов", "Нормализация - 30 баллов", "Документация - 30 баллов"},
			StudentGroups:  []string{"ИСП-401"},
			TeacherLogin:   "teacher_petrova",
			TeacherName:    "Петрова Мария Сергеевна",
			Status:         assignment.StatusActive,
			Priority:       assignment.PriorityHigh,
			CreatedAt:      "2024-09-01",
		},
		{
			ID:             2,
			Title:          "React приложение",
			Course:         "Веб-программирование",
			Description:    "Разработка клиентской части системы контроля учебных работ.",
			Deadline:       "2025-12-20T23:59:00",
			MaxScore:       100,
			SubmissionType: assignment.SubmissionDemo,
			Criteria:       []string{"Функциональность - 40 баллов", "Интерфейс - 30 баллов", "Код - 30 баллов"},
			StudentGroups:  []string{"ИСП-401"},
			TeacherLogin:   "teacher_petrova",
			TeacherName:    "Петрова Мария Сергеевна",
			Status:         assignment.StatusActive,
			Priority:       assignment.PriorityMedium,
			CreatedAt:      "2024-09-01",
		},
	}
}

func defaultSubmissions() []submission.Submission {
	return []submission.Submission{
		{
			ID:             3,
			AssignmentID:   1,
			StudentID:      1,
			StudentName:    "Иванов Алексей Петрович",
			Group:          "ИСП-401",
			SubmissionDate: time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC),
			Status:         submission.StatusSubmitted,
			MaxScore:       100,
			TeacherLogin:   "teacher_petrova",
			FileName:       "coursework_ivanov.pdf",
			FileSize:       2516582,
		},
	}
}

func defaultCourses() []course.Course {
	courses := []course.Course{
		{ID: 1, Name: "Базы данных", Teacher: "Петрова Мария Сергеевна", Status: course.StatusActive},
		{ID: 2, Name: "Веб-программирование", Teacher: "Петрова Мария Сергеевна", Status: course.StatusActive},
		{ID: 3, Name: "Веб-разработка", Teacher: "Козлов И.П.", Status: course.StatusInactive},
	}
	for i := range courses {
		courses[i].Slug = slug.Make(courses[i].Name)
	}
	return courses
}

// Seed writes the default collections under every key that is missing or empty.
// Collections that cannot be read are left as they are. It writes silently: nothing is mounted yet on first run.
func (db *DB) Seed() error {
	db.Lock()
	defer db.Unlock()

	var entries []kvstore.Entry
	if users, err := db.users(); err == nil && len(users) == 0 {
		users = defaultUsers()
		for i := range users {
			if err := users[i].SetPassword(DefaultPassword); err != nil {
				return errors.Wrap(err, "seeding users")
			}
		}
		entries = append(entries, kvstore.Entry{Key: kvstore.KeyUsers, Value: users})
	}

	subs, subsErr := db.submissions()
	if assignments, err := db.assignments(); err == nil && len(assignments) == 0 {
		entries = append(entries, kvstore.Entry{Key: kvstore.KeyAssignments, Value: refreshCounters(defaultAssignments(), defaultSubmissionsOr(subs))})
	}
	if subsErr == nil && len(subs) == 0 {
		entries = append(entries, kvstore.Entry{Key: kvstore.KeySubmissions, Value: defaultSubmissions()})
	}
	if courses, err := load[course.Course](db, kvstore.KeyCourses); err == nil && len(courses) == 0 {
		entries = append(entries, kvstore.Entry{Key: kvstore.KeyCourses, Value: defaultCourses()})
	}

	if _, ok := db.store.Stage(true /* silent */, entries...); !ok {
		return errors.Wrap(kvstore.ErrWriteFailed, "seeding")
	}
	return nil
}

func defaultSubmissionsOr(subs []submission.Submission) []submission.Submission {
	if len(subs) == 0 {
		return defaultSubmissions()
	}
	return subs
}
