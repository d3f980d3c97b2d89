package records

import (
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/storage/kvstore"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) QueryAllAssignments() ([]assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	assignments, _ := repo.db.assignments()
	return assignments, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id core.ID) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	assignments, _ := repo.db.assignments()
	for _, a := range assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	assignments, err := repo.db.assignments()
	if err != nil {
		return assignment.Assignment{}, err
	}
	a.ID = kvstore.GenerateID(repo.db.store)
	a.SubmissionsCount, a.PendingCount = 0, 0
	if err := repo.db.write(kvstore.KeyAssignments, append(assignments, a)); err != nil {
		return assignment.Assignment{}, err
	}
	return a, nil
}

// UpdateAssignment replaces the stored assignment, keeping its stored counters.
func (repo *assignmentRepository) UpdateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	assignments, err := repo.db.assignments()
	if err != nil {
		return assignment.Assignment{}, err
	}
	for i := range assignments {
		if assignments[i].ID == a.ID {
			a.SubmissionsCount = assignments[i].SubmissionsCount
			a.PendingCount = assignments[i].PendingCount
			assignments[i] = a
			if err := repo.db.write(kvstore.KeyAssignments, assignments); err != nil {
				return assignment.Assignment{}, err
			}
			return a, nil
		}
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) DeleteAssignment(id core.ID) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	assignments, err := repo.db.assignments()
	if err != nil {
		return assignment.Assignment{}, err
	}
	keptAssignments := make([]assignment.Assignment, 0, len(assignments))
	var (
		deleted assignment.Assignment
		found   bool
	)
	for _, a := range assignments {
		if a.ID == id {
			deleted, found = a, true
			continue
		}
		keptAssignments = append(keptAssignments, a)
	}
	if !found {
		return assignment.Assignment{}, assignment.ErrNotFound
	}

	subs, err := repo.db.submissions()
	if err != nil {
		return assignment.Assignment{}, err
	}
	keptSubs := make([]submission.Submission, 0, len(subs))
	for _, s := range subs {
		if s.AssignmentID != id {
			keptSubs = append(keptSubs, s)
		}
	}

	err = repo.db.writeBatch(
		kvstore.Entry{Key: kvstore.KeySubmissions, Value: keptSubs},
		kvstore.Entry{Key: kvstore.KeyAssignments, Value: keptAssignments},
	)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return deleted, nil
}

func (repo *assignmentRepository) RefreshCounters(ids ...core.ID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	assignments, err := repo.db.assignments()
	if err != nil {
		return err
	}
	subs, err := repo.db.submissions()
	if err != nil {
		return err
	}
	return repo.db.write(kvstore.KeyAssignments, refreshCounters(assignments, subs, ids...))
}
