package course_test

import (
	"testing"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/records"
	"github.com/trezcool/coursework/tests"
)

var admin = user.Actor{ID: 3, Login: "admin_sidorov", Role: user.RoleAdmin}

func newService(t *testing.T) *course.Service {
	db, _, _ := testutil.NewDB(t, nil)
	require.NoError(t, db.Seed())
	return course.NewService(records.NewCourseRepository(db))
}

func TestService_Create(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(user.Actor{ID: 2, Login: "teacher_petrova", Role: user.RoleTeacher}, course.NewCourse{Name: "Сети"})
	assert.True(t, core.IsPermissionDenied(err))

	tests := []struct {
		name      string
		nc        course.NewCourse
		assertErr func(t *testing.T, err error)
	}{
		{
			name:      "blank name",
			nc:        course.NewCourse{Name: "  "},
			assertErr: func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
		{
			name:      "unknown status",
			nc:        course.NewCourse{Name: "Сети", Status: "archived"},
			assertErr: func(t *testing.T, err error) { assert.True(t, core.IsValidationError(err)) },
		},
		{
			name:      "same slug as an existing course",
			nc:        course.NewCourse{Name: " базы   ДАННЫХ "},
			assertErr: func(t *testing.T, err error) { assert.True(t, core.IsConflict(err)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(admin, tt.nc)
			require.Error(t, err)
			tt.assertErr(t, err)
		})
	}

	c, err := svc.Create(admin, course.NewCourse{Name: " Компьютерные сети ", Teacher: "Козлов И.П."})
	require.NoError(t, err)
	assert.Equal(t, core.ID(4), c.ID)
	assert.Equal(t, "Компьютерные сети", c.Name)
	assert.Equal(t, slug.Make("Компьютерные сети"), c.Slug)
	assert.Equal(t, course.StatusActive, c.Status)
}

func TestService_Update(t *testing.T) {
	svc := newService(t)

	name := "Веб-программирование"
	_, err := svc.Update(admin, 1, course.UpdateCourse{Name: &name})
	assert.True(t, core.IsConflict(err))

	_, err = svc.Update(admin, 404, course.UpdateCourse{})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	name, inactive := "Базы данных II", course.StatusInactive
	c, err := svc.Update(admin, 1, course.UpdateCourse{Name: &name, Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Базы данных II", c.Name)
	assert.Equal(t, slug.Make(name), c.Slug)
	assert.Equal(t, "Неактивный", c.Status.Label())
	assert.Equal(t, "Петрова Мария Сергеевна", c.Teacher, "nil fields are unchanged")

	// renaming a course to its own name is not a conflict
	_, err = svc.Update(admin, 1, course.UpdateCourse{Name: &name})
	assert.NoError(t, err)
}
