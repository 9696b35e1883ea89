package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role granted to a user
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// ParseRole normalizes a role name; an empty string yields RoleUser.
func ParseRole(s string) (UserRole, bool) {
	switch UserRole(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Authorities returns the roles implied by r. ADMIN implies USER.
func (r UserRole) Authorities() []UserRole {
	if r == RoleAdmin {
		return []UserRole{RoleAdmin, RoleUser}
	}
	return []UserRole{RoleUser}
}

// Grants reports whether r carries the authority of want.
func (r UserRole) Grants(want UserRole) bool {
	for _, a := range r.Authorities() {
		if a == want {
			return true
		}
	}
	return false
}

// User is a credential-bearing principal. Username is immutable once created.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance
func NewUser(username, passwordHash string, role UserRole) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
