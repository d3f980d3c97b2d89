package records

import (
	"strings"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/kvstore"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckLoginUniqueness(login, email string, excluded ...core.ID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	isExcluded := func(id core.ID) bool {
		for _, ex := range excluded {
			if ex == id {
				return true
			}
		}
		return false
	}
	users, _ := repo.db.users()
	for _, usr := range users {
		if isExcluded(usr.ID) {
			continue
		}
		if login != "" && strings.EqualFold(usr.Login, login) {
			return user.ErrLoginExists
		}
		if email != "" && strings.EqualFold(usr.Email, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, err := repo.db.users()
	if err != nil {
		return user.User{}, err
	}
	usr.ID = kvstore.NextID(repo.db.store, kvstore.KeyUsers)
	if err := repo.db.write(kvstore.KeyUsers, append(users, usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, _ := repo.db.users()
	return users, nil
}

func (repo *userRepository) GetUserByID(id core.ID) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, _ := repo.db.users()
	for _, usr := range users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByLoginOrEmail(identifier string) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, _ := repo.db.users()
	for _, usr := range users {
		if strings.EqualFold(usr.Login, identifier) || strings.EqualFold(usr.Email, identifier) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// UpdateUser replaces the stored user. The signed-in copy is refreshed in the same write when it is the same user.
func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, err := repo.db.users()
	if err != nil {
		return user.User{}, err
	}
	found := false
	for i := range users {
		if users[i].ID == usr.ID {
			users[i] = usr
			found = true
			break
		}
	}
	if !found {
		return user.User{}, user.ErrNotFound
	}

	entries := []kvstore.Entry{{Key: kvstore.KeyUsers, Value: users}}
	var current *user.User
	if repo.db.store.Read(kvstore.KeyCurrentUser, &current) && current != nil && current.ID == usr.ID {
		entries = append(entries, kvstore.Entry{Key: kvstore.KeyCurrentUser, Value: usr.Sanitize()})
	}
	if err := repo.db.writeBatch(entries...); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(id core.ID) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	users, err := repo.db.users()
	if err != nil {
		return user.User{}, err
	}
	kept := make([]user.User, 0, len(users))
	var (
		deleted user.User
		found   bool
	)
	for _, usr := range users {
		if usr.ID == id {
			deleted, found = usr, true
			continue
		}
		kept = append(kept, usr)
	}
	if !found {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.db.write(kvstore.KeyUsers, kept); err != nil {
		return user.User{}, err
	}
	return deleted, nil
}
