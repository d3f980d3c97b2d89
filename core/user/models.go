package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coursework/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

	roleLabels = map[Role]string{
		RoleStudent: "Студент",
		RoleTeacher: "Преподаватель",
		RoleAdmin:   "Администратор",
	}
)

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label is the display name of the role; unknown roles display as students.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return roleLabels[RoleStudent]
}

type Notifications struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

var DefaultNotifications = Notifications{Email: true, Push: true, SMS: false}

// NotificationsUpdate is merged field by field into the stored Notifications.
type NotificationsUpdate struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
	SMS   *bool `json:"sms"`
}

func (nu NotificationsUpdate) apply(n Notifications) Notifications {
	if nu.Email != nil {
		n.Email = *nu.Email
	}
	if nu.Push != nil {
		n.Push = *nu.Push
	}
	if nu.SMS != nil {
		n.SMS = *nu.SMS
	}
	return n
}

type User struct {
	ID            core.ID       `json:"id"`
	Login         string        `json:"login"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Role          Role          `json:"role"`
	Group         string        `json:"group,omitempty"`
	TeacherLogin  string        `json:"teacherLogin,omitempty"`
	Department    string        `json:"department,omitempty"`
	Phone         string        `json:"phone"`
	Timezone      string        `json:"timezone"`
	Bio           string        `json:"bio"`
	Theme         string        `json:"theme"`
	Notifications Notifications `json:"notifications"`
	IsActive      bool          `json:"isActive"`
	// PasswordHash is persisted with the users collection but never with the current user.
	PasswordHash     string     `json:"passwordHash,omitempty"`
	RegistrationDate string     `json:"registrationDate"` // YYYY-MM-DD
	LastLogin        *time.Time `json:"lastLogin"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// Sanitize returns a copy safe to keep as the current user.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}

// Actor is what the core knows about whoever performs an operation. It is trusted as is.
type Actor struct {
	ID           core.ID `json:"id"`
	Login        string  `json:"login"`
	Role         Role    `json:"role"`
	Group        string  `json:"group,omitempty"`
	TeacherLogin string  `json:"teacherLogin,omitempty"`
	Department   string  `json:"department,omitempty"`
}

func (u User) Actor() Actor {
	return Actor{
		ID:           u.ID,
		Login:        u.Login,
		Role:         u.Role,
		Group:        u.Group,
		TeacherLogin: u.TeacherLogin,
		Department:   u.Department,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string         `json:"name" validate:"notblank,min=2,max=100"`
	Login           string         `json:"login" validate:"required,min=3,max=30,login"`
	Email           string         `json:"email" validate:"required,email,max=255"`
	Role            Role           `json:"role" validate:"required,allroles"`
	Group           string         `json:"group" validate:"omitempty,max=20,group"`
	TeacherLogin    string         `json:"teacherLogin" validate:"omitempty,login"`
	Department      string         `json:"department" validate:"max=100"`
	Phone           string         `json:"phone"`
	Timezone        string         `json:"timezone"`
	Bio             string         `json:"bio"`
	Theme           string         `json:"theme"`
	Notifications   *Notifications `json:"notifications"`
	Password        string         `json:"password" validate:"required"`
	PasswordConfirm string         `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Login = core.CleanString(nu.Login)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Group = core.CleanString(nu.Group)
	nu.TeacherLogin = core.CleanString(nu.TeacherLogin)
	nu.Department = core.CleanString(nu.Department)
}

// Validate checks the form fields. Uniqueness is checked by the Service against the stored users.
func (nu *NewUser) Validate() error {
	nu.Clean()
	return core.ValidateStruct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// nil fields are left unchanged; Notifications is merged into the stored preferences, not replaced.
type UpdateUser struct {
	Name          *string              `json:"name" validate:"omitempty,notblank,min=2,max=100"`
	Login         *string              `json:"login" validate:"omitempty,min=3,max=30,login"`
	Email         *string              `json:"email" validate:"omitempty,email,max=255"`
	Role          *Role                `json:"role" validate:"omitempty,allroles"`
	Group         *string              `json:"group" validate:"omitempty,max=20"`
	TeacherLogin  *string              `json:"teacherLogin"`
	Department    *string              `json:"department" validate:"omitempty,max=100"`
	Phone         *string              `json:"phone"`
	Timezone      *string              `json:"timezone"`
	Bio           *string              `json:"bio"`
	Theme         *string              `json:"theme"`
	IsActive      *bool                `json:"isActive"`
	Notifications *NotificationsUpdate `json:"notifications"`
	Password      *string              `json:"password"`
}

func (uu *UpdateUser) Validate() error {
	for _, fld := range []*string{uu.Name, uu.Login, uu.Group, uu.TeacherLogin, uu.Department} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if uu.Email != nil {
		*uu.Email = core.CleanString(*uu.Email, true /* lower */)
	}
	return core.ValidateStruct(uu)
}

// apply merges the set fields of uu into usr.
func (uu UpdateUser) apply(usr User) User {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&usr.Name, uu.Name)
	set(&usr.Login, uu.Login)
	set(&usr.Email, uu.Email)
	set(&usr.Group, uu.Group)
	set(&usr.TeacherLogin, uu.TeacherLogin)
	set(&usr.Department, uu.Department)
	set(&usr.Phone, uu.Phone)
	set(&usr.Timezone, uu.Timezone)
	set(&usr.Bio, uu.Bio)
	set(&usr.Theme, uu.Theme)
	if uu.Role != nil {
		usr.Role = *uu.Role
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Notifications != nil {
		usr.Notifications = uu.Notifications.apply(usr.Notifications)
	}
	return usr
}
