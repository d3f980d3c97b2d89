package user

import (
	"sort"
	"strings"

	"github.com/trezcool/coursework/core"
)

// QueryFilter applies AND operation on its set fields.
// Search does a case-insensitive match on one of User.Name, User.Login, User.Email or User.Group.
type QueryFilter struct {
	Search   string
	Role     Role
	IsActive *bool
	Group    string
}

// Sort fields
const (
	SortByName             = "name"
	SortByLogin            = "login"
	SortByRole             = "role"
	SortByRegistrationDate = "registrationDate"
	SortByLastLogin        = "lastLogin"
)

// Filter returns the users matching filter, in their original order.
func Filter(users []User, filter QueryFilter) []User {
	search := strings.ToLower(core.CleanString(filter.Search))
	filtered := make([]User, 0, len(users))

	for _, u := range users {
		// users with search keyword matching any Name, Login, Email or Group ?
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Login), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Group), search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Group != "" && !core.SameGroup(u.Group, filter.Group) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}

// Sort orders users in place by field; unknown fields sort by name.
// Users that never logged in come first in ascending last login order.
func Sort(users []User, field string, desc bool) {
	less := func(a, b User) bool {
		switch field {
		case SortByLogin:
			return strings.ToLower(a.Login) < strings.ToLower(b.Login)
		case SortByRole:
			return a.Role < b.Role
		case SortByRegistrationDate:
			return a.RegistrationDate < b.RegistrationDate
		case SortByLastLogin:
			if a.LastLogin == nil || b.LastLogin == nil {
				return a.LastLogin == nil && b.LastLogin != nil
			}
			return a.LastLogin.Before(*b.LastLogin)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		if desc {
			return less(users[j], users[i])
		}
		return less(users[i], users[j])
	})
}
