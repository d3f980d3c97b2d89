package records_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/services/events"
	"github.com/trezcool/coursework/storage/kvstore"
	"github.com/trezcool/coursework/storage/records"
	"github.com/trezcool/coursework/tests"
)

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func record(bus *events.Bus) *keyRecorder {
	r := new(keyRecorder)
	bus.Subscribe(func(ev events.Event) {
		r.mu.Lock()
		r.keys = append(r.keys, ev.Key)
		r.mu.Unlock()
	})
	return r
}

func (r *keyRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func TestDB_Seed(t *testing.T) {
	db, bus, _ := testutil.NewDB(t, nil)
	rec := record(bus)

	require.NoError(t, db.Seed())
	assert.Empty(t, rec.get(), "seeding is silent")

	users, _ := records.NewUserRepository(db).QueryAllUsers()
	require.Len(t, users, 3)
	for _, u := range users {
		assert.NoError(t, u.CheckPassword(records.DefaultPassword), u.Login)
	}
	student := users[0]
	assert.Equal(t, "student_ivanov", student.Login)
	assert.Equal(t, "ИСП-401", student.Group)
	assert.Equal(t, "teacher_petrova", student.TeacherLogin)

	assignments, _ := records.NewAssignmentRepository(db).QueryAllAssignments()
	require.Len(t, assignments, 2)
	assert.Equal(t, 1, assignments[0].SubmissionsCount)
	assert.Equal(t, 1, assignments[0].PendingCount)
	assert.Equal(t, 0, assignments[1].SubmissionsCount)

	courses, _ := records.NewCourseRepository(db).QueryAllCourses()
	require.Len(t, courses, 3)
	assert.NotEmpty(t, courses[0].Slug)

	// existing collections are kept
	_, err := records.NewUserRepository(db).DeleteUser(3)
	require.NoError(t, err)
	require.NoError(t, db.Seed())
	users, _ = records.NewUserRepository(db).QueryAllUsers()
	assert.Len(t, users, 2)
}

func TestUserRepository(t *testing.T) {
	db, _, _ := testutil.NewDB(t, nil)
	repo := records.NewUserRepository(db)

	usr1 := testutil.CreateUser(t, repo, "Teacher", "teacher_one", "one@test.ru", "", user.RoleTeacher, true)
	usr2 := testutil.CreateUser(t, repo, "Student", "student_two", "two@test.ru", "", user.RoleStudent, true, "ИСП-401", "teacher_one")
	assert.Equal(t, core.ID(1), usr1.ID)
	assert.Equal(t, core.ID(2), usr2.ID)

	t.Run("uniqueness", func(t *testing.T) {
		tests := []struct {
			name     string
			login    string
			email    string
			excluded []core.ID
			wantErr  error
		}{
			{name: "free", login: "free", email: "free@test.ru"},
			{name: "login taken (case-insensitive)", login: "TEACHER_ONE", email: "free@test.ru", wantErr: user.ErrLoginExists},
			{name: "email taken (case-insensitive)", login: "free", email: "Two@Test.ru", wantErr: user.ErrEmailExists},
			{name: "own login", login: "teacher_one", email: "one@test.ru", excluded: []core.ID{usr1.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := repo.CheckLoginUniqueness(tt.login, tt.email, tt.excluded...)
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			})
		}
	})

	t.Run("lookups", func(t *testing.T) {
		got, err := repo.GetUserByLoginOrEmail("STUDENT_TWO")
		require.NoError(t, err)
		assert.Equal(t, usr2.ID, got.ID)

		got, err = repo.GetUserByLoginOrEmail("one@TEST.ru")
		require.NoError(t, err)
		assert.Equal(t, usr1.ID, got.ID)

		_, err = repo.GetUserByID(42)
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.UpdateUser(user.User{ID: 42})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.DeleteUser(42)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("update rewrites the current user", func(t *testing.T) {
		session := records.NewSession(db)
		require.NoError(t, session.SignIn(usr2))

		usr2.Name = "Renamed"
		_, err := repo.UpdateUser(usr2)
		require.NoError(t, err)

		current, ok := session.CurrentUser()
		require.True(t, ok)
		assert.Equal(t, "Renamed", current.Name)
		assert.Empty(t, current.PasswordHash)

		// another user's update leaves it alone
		usr1.Name = "Other"
		_, err = repo.UpdateUser(usr1)
		require.NoError(t, err)
		current, _ = session.CurrentUser()
		assert.Equal(t, usr2.ID, current.ID)

		require.NoError(t, session.SignOut())
		_, ok = session.CurrentUser()
		assert.False(t, ok)
	})

	t.Run("ids keep growing after deletes", func(t *testing.T) {
		_, err := repo.DeleteUser(usr1.ID)
		require.NoError(t, err)
		usr3 := testutil.CreateUser(t, repo, "Third", "third", "third@test.ru", "", user.RoleAdmin, true)
		assert.Equal(t, core.ID(3), usr3.ID)
	})
}

func seededRepos(t *testing.T) (*records.DB, *events.Bus, assignment.Repository, submission.Repository) {
	db, bus, _ := testutil.NewDB(t, nil)
	require.NoError(t, db.Seed())
	return db, bus, records.NewAssignmentRepository(db), records.NewSubmissionRepository(db)
}

func TestAssignmentRepository_DeleteCascades(t *testing.T) {
	db, bus, asgRepo, subRepo := seededRepos(t)

	other, err := subRepo.CreateSubmission(submission.Submission{
		AssignmentID: 2, StudentID: 1, Status: submission.StatusSubmitted, SubmissionDate: time.Now().UTC(),
	})
	require.NoError(t, err)

	// no listener may observe submissions of a deleted assignment
	var orphans []core.ID
	bus.Subscribe(func(ev events.Event) {
		var (
			assignments []assignment.Assignment
			subs        []submission.Submission
		)
		db.Store().Read(kvstore.KeyAssignments, &assignments)
		db.Store().Read(kvstore.KeySubmissions, &subs)
		ids := make(map[core.ID]bool)
		for _, a := range assignments {
			ids[a.ID] = true
		}
		for _, s := range subs {
			if !ids[s.AssignmentID] {
				orphans = append(orphans, s.ID)
			}
		}
	}, kvstore.KeyAssignments, kvstore.KeySubmissions)

	deleted, err := asgRepo.DeleteAssignment(1)
	require.NoError(t, err)
	assert.Equal(t, core.ID(1), deleted.ID)
	assert.Empty(t, orphans)

	subs, _ := subRepo.QueryAllSubmissions()
	require.Len(t, subs, 1)
	assert.Equal(t, other.ID, subs[0].ID)

	_, err = asgRepo.DeleteAssignment(1)
	assert.Equal(t, assignment.ErrNotFound, err)
}

func TestSubmissionRepository_Counters(t *testing.T) {
	_, _, asgRepo, subRepo := seededRepos(t)

	sub, err := subRepo.CreateSubmission(submission.Submission{
		AssignmentID: 2, StudentID: 1, Status: submission.StatusSubmitted, SubmissionDate: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.ID(4), sub.ID, "ids are shared with the assignments")

	a, _ := asgRepo.GetAssignmentByID(2)
	assert.Equal(t, 1, a.SubmissionsCount)
	assert.Equal(t, 1, a.PendingCount)

	score := 90
	sub.Status, sub.Score = submission.StatusGraded, &score
	_, err = subRepo.UpdateSubmission(sub)
	require.NoError(t, err)

	a, _ = asgRepo.GetAssignmentByID(2)
	assert.Equal(t, 1, a.SubmissionsCount)
	assert.Equal(t, 0, a.PendingCount)

	// updates never take counters from the caller
	a.SubmissionsCount, a.Title = 99, "Renamed"
	a, err = asgRepo.UpdateAssignment(a)
	require.NoError(t, err)
	assert.Equal(t, 1, a.SubmissionsCount)

	_, err = subRepo.UpdateSubmission(submission.Submission{ID: 999})
	assert.Equal(t, submission.ErrNotFound, err)
}

func TestSubmissionRepository_LegacyStatus(t *testing.T) {
	db, _, logger := testutil.NewDB(t, nil)
	raw := `[
		{"id": 1, "assignmentId": 1, "studentId": 1, "status": "зачтена", "score": 80, "fileSize": "2.4 MB",
		 "submissionDate": "2025-01-15T14:30:00Z"},
		{"id": 2, "assignmentId": 1, "studentId": 2, "status": "на проверке", "submissionDate": "2025-01-16T14:30:00Z"}
	]`
	require.True(t, db.Store().Write(kvstore.KeySubmissions, json.RawMessage(raw), true))

	repo := records.NewSubmissionRepository(db)
	subs, err := repo.QueryAllSubmissions()
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, submission.StatusGraded, subs[0].Status)
	assert.Equal(t, "зачтена", subs[0].LegacyStatus())
	assert.Equal(t, int64(2516582), subs[0].FileSize) // 2.4 MB
	assert.Equal(t, submission.StatusSubmitted, subs[1].Status)
	assert.Len(t, logger.Entries("WARN"), 2)

	// the next write stores canonical values
	_, err = repo.UpdateSubmission(subs[1])
	require.NoError(t, err)
	var stored []map[string]interface{}
	require.True(t, db.Store().Read(kvstore.KeySubmissions, &stored))
	assert.Equal(t, "graded", stored[0]["status"])
	assert.Equal(t, "submitted", stored[1]["status"])
}

func TestSubmissionRepository_UnrecognizedRecords(t *testing.T) {
	db, _, logger := testutil.NewDB(t, nil)
	require.NoError(t, db.Seed())
	raw := `[
		{"id": 3, "assignmentId": 1, "studentId": 1, "status": "submitted", "submissionDate": "2025-01-15T14:30:00Z"},
		{"id": 999, "assignmentId": 1, "studentId": 1, "status": "pending", "fileSize": "huge",
		 "submissionDate": "2025-01-16T14:30:00Z"},
		{"id": "abc", "assignmentId": "2", "studentId": 1, "status": 7, "submissionDate": "2025-01-17T14:30:00Z"}
	]`
	require.True(t, db.Store().Write(kvstore.KeySubmissions, json.RawMessage(raw), true))

	repo := records.NewSubmissionRepository(db)
	subs, err := repo.QueryAllSubmissions()
	require.NoError(t, err)
	require.Len(t, subs, 3, "one odd record does not hide the others")
	assert.Equal(t, submission.Status("pending"), subs[1].Status)
	assert.False(t, subs[1].Status.Valid())
	assert.Zero(t, subs[1].FileSize)
	assert.Equal(t, core.ID(0), subs[2].ID)
	assert.Equal(t, core.ID(2), subs[2].AssignmentID)
	assert.Equal(t, submission.Status("7"), subs[2].Status)
	assert.Len(t, logger.Entries("WARN"), 2)

	created, err := repo.CreateSubmission(submission.Submission{AssignmentID: 1, StudentID: 1, Status: submission.StatusSubmitted})
	require.NoError(t, err)
	assert.Equal(t, core.ID(1000), created.ID)

	var stored []map[string]interface{}
	require.True(t, db.Store().Read(kvstore.KeySubmissions, &stored))
	require.Len(t, stored, 4, "every record survives the write")
	assert.Equal(t, "pending", stored[1]["status"])
	assert.EqualValues(t, 999, stored[1]["id"])

	a, err := records.NewAssignmentRepository(db).GetAssignmentByID(1)
	require.NoError(t, err)
	assert.Equal(t, 3, a.SubmissionsCount)
	assert.Equal(t, 2, a.PendingCount, "unrecognized statuses are not pending")
}

func TestDB_UnreadableCollection(t *testing.T) {
	db, bus, _ := testutil.NewDB(t, nil)
	require.NoError(t, db.Seed())
	rec := record(bus)

	corrupted := json.RawMessage(`{"not": "a list"}`)
	require.True(t, db.Store().Write(kvstore.KeySubmissions, corrupted, true))
	require.True(t, db.Store().Write(kvstore.KeyUsers, corrupted, true))

	subRepo := records.NewSubmissionRepository(db)
	subs, err := subRepo.QueryAllSubmissions()
	require.NoError(t, err)
	assert.Empty(t, subs, "queries fall back to an empty collection")

	_, err = subRepo.CreateSubmission(submission.Submission{AssignmentID: 1, StudentID: 1, Status: submission.StatusSubmitted})
	assert.Equal(t, kvstore.ErrWriteFailed, errors.Cause(err))
	_, err = records.NewAssignmentRepository(db).DeleteAssignment(1)
	assert.Equal(t, kvstore.ErrWriteFailed, errors.Cause(err))
	_, err = records.NewUserRepository(db).CreateUser(user.User{Login: "new", Email: "new@test.ru", Role: user.RoleAdmin})
	assert.Equal(t, kvstore.ErrWriteFailed, errors.Cause(err))

	// seeding leaves unreadable collections alone too
	require.NoError(t, db.Seed())

	for _, key := range []string{kvstore.KeySubmissions, kvstore.KeyUsers} {
		var raw json.RawMessage
		require.True(t, db.Store().Read(key, &raw))
		assert.JSONEq(t, string(corrupted), string(raw), key)
	}
	_, err = records.NewAssignmentRepository(db).GetAssignmentByID(1)
	assert.NoError(t, err, "the cascade did not run")
	assert.Empty(t, rec.get())
}

func TestDB_ListenersReadThroughRepositories(t *testing.T) {
	db, bus, _ := testutil.NewDB(t, nil)
	require.NoError(t, db.Seed())
	asgRepo := records.NewAssignmentRepository(db)

	var seen []int
	bus.Subscribe(func(ev events.Event) {
		assignments, err := asgRepo.QueryAllAssignments()
		assert.NoError(t, err)
		seen = append(seen, len(assignments))
	}, kvstore.KeyAssignments)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := asgRepo.CreateAssignment(assignment.Assignment{Title: "Новое", TeacherLogin: "teacher_petrova"})
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("CreateAssignment did not return")
	}
	assert.Equal(t, []int{4}, seen, "listeners run after the write, outside the lock")
}

func TestDB_WriteFailure(t *testing.T) {
	backend := kvstore.NewMemoryBackend(2048)
	db, _, _ := testutil.NewDB(t, backend)
	repo := records.NewCourseRepository(db)

	c, err := repo.CreateCourse(course.Course{Name: "Базы данных", Status: course.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, core.ID(1), c.ID)

	huge := make([]byte, 4096)
	for i := range huge {
		huge[i] = 'x'
	}
	_, err = repo.CreateCourse(course.Course{Name: "Big", Description: string(huge)})
	assert.Equal(t, kvstore.ErrWriteFailed, errors.Cause(err))

	courses, _ := repo.QueryAllCourses()
	assert.Len(t, courses, 1, "prior state is retained")
}

func TestActivityRepository(t *testing.T) {
	db, _, _ := testutil.NewDB(t, nil)
	svc := activity.NewService(records.NewActivityRepository(db), 3)

	for _, details := range []string{"1", "2", "3", "4"} {
		_, err := svc.Record("admin_sidorov", activity.ActionUpdateUser, details)
		require.NoError(t, err)
	}
	_, err := svc.Record("", activity.ActionLogin, "5")
	require.NoError(t, err)

	entries, err := svc.GetAll()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "5", entries[0].Details, "newest first")
	assert.Equal(t, activity.SystemUser, entries[0].User)
	assert.Equal(t, "3", entries[2].Details)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}
