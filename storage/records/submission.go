package records

import (
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/storage/kvstore"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) QueryAllSubmissions() ([]submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subs, _ := repo.db.submissions()
	return subs, nil
}

func (repo *submissionRepository) GetSubmissionByID(id core.ID) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subs, _ := repo.db.submissions()
	for _, s := range subs {
		if s.ID == id {
			return s, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

// save writes subs and the refreshed counters of the assignment in one batch.
func (repo *submissionRepository) save(subs []submission.Submission, assignmentID core.ID) error {
	assignments, err := repo.db.assignments()
	if err != nil {
		return err
	}
	return repo.db.writeBatch(
		kvstore.Entry{Key: kvstore.KeySubmissions, Value: subs},
		kvstore.Entry{Key: kvstore.KeyAssignments, Value: refreshCounters(assignments, subs, assignmentID)},
	)
}

func (repo *submissionRepository) CreateSubmission(s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subs, err := repo.db.submissions()
	if err != nil {
		return submission.Submission{}, err
	}
	s.ID = kvstore.GenerateID(repo.db.store)
	if err := repo.save(append(subs, s), s.AssignmentID); err != nil {
		return submission.Submission{}, err
	}
	return s, nil
}

func (repo *submissionRepository) UpdateSubmission(s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subs, err := repo.db.submissions()
	if err != nil {
		return submission.Submission{}, err
	}
	for i := range subs {
		if subs[i].ID == s.ID {
			subs[i] = s
			if err := repo.save(subs, s.AssignmentID); err != nil {
				return submission.Submission{}, err
			}
			return s, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}
