package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("user not found")
	ErrLoginExists        = errors.New("a user with this login already exists")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInactive           = errors.New("this account is disabled")
	ErrRoleMismatch       = errors.New("this account does not have the requested role")
)

const (
	defaultTimezone = "Europe/Moscow"
	defaultTheme    = "light"
	dateLayout      = "2006-01-02"
)

type (
	Repository interface {
		// CheckLoginUniqueness returns ErrLoginExists or ErrEmailExists if another user (not in excluded) holds login or email.
		// The comparison is case-insensitive.
		CheckLoginUniqueness(login, email string, excluded ...core.ID) error
		// CreateUser assigns the next user id and persists usr.
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id core.ID) (User, error)
		// GetUserByLoginOrEmail does a case-insensitive exact match on User.Login or User.Email.
		GetUserByLoginOrEmail(identifier string) (User, error)
		UpdateUser(usr User) (User, error)
		DeleteUser(id core.ID) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(login, email string, excluded ...core.ID) error {
	if err := svc.repo.CheckLoginUniqueness(login, email, excluded...); err != nil {
		switch errors.Cause(err) {
		case ErrLoginExists:
			return core.NewConflictError("login", err.Error())
		case ErrEmailExists:
			return core.NewConflictError("email", err.Error())
		default:
			return err
		}
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(nu.Login, nu.Email); err != nil {
		return User{}, err
	}

	usr := User{
		Login:            nu.Login,
		Email:            nu.Email,
		Name:             nu.Name,
		Role:             nu.Role,
		Department:       nu.Department,
		Phone:            nu.Phone,
		Timezone:         nu.Timezone,
		Bio:              nu.Bio,
		Theme:            nu.Theme,
		Notifications:    DefaultNotifications,
		IsActive:         true,
		RegistrationDate: NowFunc().Format(dateLayout),
	}
	// affiliation to a group and a teacher only makes sense for students
	if usr.IsStudent() {
		usr.Group = nu.Group
		usr.TeacherLogin = nu.TeacherLogin
	}
	if nu.Notifications != nil {
		usr.Notifications = *nu.Notifications
	}
	if usr.Timezone == "" {
		usr.Timezone = defaultTimezone
	}
	if usr.Theme == "" {
		usr.Theme = defaultTheme
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) GetAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id core.ID) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) FindByLoginOrEmail(identifier string) (User, error) {
	identifier = core.CleanString(identifier)
	if identifier == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUserByLoginOrEmail(identifier)
}

// Update merges the set fields of uu into the stored user.
func (svc *Service) Update(id core.ID, uu UpdateUser) (User, error) {
	if err := uu.Validate(); err != nil {
		return User{}, err
	}
	origUsr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}

	usr := uu.apply(origUsr)
	if usr.Group != "" {
		if err := core.Validate.Var(usr.Group, "group"); err != nil {
			return User{}, core.NewFieldError("group", "invalid group name")
		}
	}
	if uu.Login != nil || uu.Email != nil {
		if err := svc.checkUniqueness(usr.Login, usr.Email, id); err != nil {
			return User{}, err
		}
	}
	if uu.Password != nil {
		if err := usr.SetPassword(*uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr)
}

// Delete removes the user only. Assignments and submissions referencing it are left in place.
func (svc *Service) Delete(id core.ID) (User, error) {
	return svc.repo.DeleteUser(id)
}

// Authenticate checks the credentials of an active user and stamps its last login.
// An empty role accepts any role.
func (svc *Service) Authenticate(identifier, pwd string, role Role) (User, error) {
	usr, err := svc.FindByLoginOrEmail(identifier)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrInactive
	}
	if role != "" && usr.Role != role {
		return User{}, ErrRoleMismatch
	}

	now := NowFunc().UTC()
	usr.LastLogin = &now
	return svc.repo.UpdateUser(usr)
}

func (svc *Service) ChangePassword(id core.ID, currentPwd, newPwd string) error {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := usr.CheckPassword(currentPwd); err != nil {
		return core.NewFieldError("currentPassword", "current password is incorrect")
	}
	if currentPwd == newPwd {
		return core.NewFieldError("password", "the new password must differ from the current one")
	}

	uu := UpdateUser{Name: &usr.Name, Login: &usr.Login, Email: &usr.Email, Password: &newPwd}
	if err := core.ValidateStruct(uu); err != nil {
		return err
	}
	if err := usr.SetPassword(newPwd); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(usr)
	return err
}
