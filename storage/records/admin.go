package records

import (
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/activity"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/storage/kvstore"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) courses() ([]course.Course, error) {
	return load[course.Course](repo.db, kvstore.KeyCourses)
}

func (repo *courseRepository) QueryAllCourses() ([]course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	courses, _ := repo.courses()
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(id core.ID) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	courses, _ := repo.courses()
	for _, c := range courses {
		if c.ID == id {
			return c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CreateCourse(c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	courses, err := repo.courses()
	if err != nil {
		return course.Course{}, err
	}
	c.ID = kvstore.NextID(repo.db.store, kvstore.KeyCourses)
	if err := repo.db.write(kvstore.KeyCourses, append(courses, c)); err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) UpdateCourse(c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	courses, err := repo.courses()
	if err != nil {
		return course.Course{}, err
	}
	for i := range courses {
		if courses[i].ID == c.ID {
			courses[i] = c
			if err := repo.db.write(kvstore.KeyCourses, courses); err != nil {
				return course.Course{}, err
			}
			return c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

type activityRepository struct {
	db *DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) AppendEntry(e activity.Entry, max int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, err := load[activity.Entry](repo.db, kvstore.KeyActivity)
	if err != nil {
		return err
	}
	entries := append([]activity.Entry{e}, stored...)
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	return repo.db.write(kvstore.KeyActivity, entries)
}

func (repo *activityRepository) QueryEntries() ([]activity.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	entries, _ := load[activity.Entry](repo.db, kvstore.KeyActivity)
	return entries, nil
}
