package types

import "fmt"

// Role is the closed set of user roles. The storage layer keeps the legacy
// integer representation; the API boundary only ever sees the string form.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Int returns the storage representation of the role.
func (r Role) Int() int {
	if r == RoleAdmin {
		return 1
	}
	return 0
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RoleFromInt decodes the storage representation. Unknown values are an
// integrity failure, not a default.
func RoleFromInt(v int) (Role, error) {
	switch v {
	case 0:
		return RoleUser, nil
	case 1:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role value %d", v)
	}
}

// User is the core identity record. The password hash never leaves the
// auth package and is excluded from every JSON projection.
type User struct {
	ID             string `json:"user_id"`
	Name           string `json:"user_name"`
	Phone          string `json:"phone"`
	Role           Role   `json:"role"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profile_picture"`
	PasswordHash   string `json:"-"`
}

// Public returns the projection embedded in tokens and API responses.
func (u *User) Public() map[string]any {
	return map[string]any{
		"user_id":         u.ID,
		"user_name":       u.Name,
		"phone":           u.Phone,
		"role":            u.Role,
		"email":           u.Email,
		"profile_picture": u.ProfilePicture,
	}
}
