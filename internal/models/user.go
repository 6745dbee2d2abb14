package models

import "time"

// UserRole represents the available roles for the RBAC checks.
type UserRole string

const (
	RoleDean    UserRole = "Dean"
	RoleAdmin   UserRole = "Admin"
	RoleFaculty UserRole = "Faculty"
	RoleStudent UserRole = "Student"
)

// CanModerate reports whether the role may run lifecycle mutations.
func (r UserRole) CanModerate() bool {
	return r == RoleDean || r == RoleAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"user_id" json:"user_id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	Active       bool       `db:"is_active" json:"is_active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
}
