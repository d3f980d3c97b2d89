package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/coursework/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid role"

	groupRequiredTag  = "group_required"
	groupRequiredText = "a group is required for a student"

	teacherRequiredTag  = "teacher_required"
	teacherRequiredText = "a teacher must be selected for a student"

	// password policy
	pwdMinLen     = 8
	pwdMaxLen     = 128
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdMaxLenTag  = "pwdmaxlen"
	pwdMaxLenText = fmt.Sprintf("password must not exceed %d characters", pwdMaxLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 lowercase letter, 1 uppercase letter and 1 digit"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, allRolesText)

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{})
	core.RegisterCustomTranslation(groupRequiredTag, groupRequiredText)
	core.RegisterCustomTranslation(teacherRequiredTag, teacherRequiredText)
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdMaxLenTag, pwdMaxLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// allRolesValidation checks that the role is one of AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

// userStructValidation does struct level validation on NewUser and UpdateUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.Role == RoleStudent {
			if usr.Group == "" {
				sl.ReportError(usr.Group, "group", "Group", groupRequiredTag, "")
			}
			if usr.TeacherLogin == "" {
				sl.ReportError(usr.TeacherLogin, "teacherLogin", "TeacherLogin", teacherRequiredTag, "")
			}
		}
		validatePassword(usr.Password, usr.Name, usr.Login, usr.Email, sl)
	case UpdateUser:
		if usr.Password != nil {
			validatePassword(*usr.Password, deref(usr.Name), deref(usr.Login), deref(usr.Email), sl)
		}
	}
}

// validatePassword applies the password policy to provided password:
// - length: 8..128
// - no whitespace
// - complexity: 1 lower, 1 upper, 1 digit
// - no user attrs similarity
func validatePassword(pwd, name, login, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var hasUpper, hasLower, hasDigit bool

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	if pwdLen > pwdMaxLen {
		reportErr(pwdMaxLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !(hasUpper && hasLower && hasDigit) {
		reportErr(pwdComplexityTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, login) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
