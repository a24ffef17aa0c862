package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the identity domain.
// PasswordHash is only populated by the credential lookup and never leaves the
// application layer; use View for anything that is returned to a caller.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	AvatarURL    *string
	Roles        []string
	IsVerified   bool
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView is the sanitized representation of a User. It has no hash field.
type UserView struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      *string    `json:"phone"`
	AvatarURL  *string    `json:"avatar_url"`
	Roles      []string   `json:"roles"`
	IsVerified bool       `json:"is_verified"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// View strips the password hash.
func (u *User) View() UserView {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		AvatarURL:  u.AvatarURL,
		Roles:      roles,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// HasAnyRole reports whether u holds at least one of roles.
func (u *User) HasAnyRole(roles ...string) bool {
	return intersects(u.Roles, roles)
}

// NormalizeEmail is applied at every write and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfilePatch is a selective update. Nil fields are left untouched; an empty Phone clears it.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	AvatarURL *string
}

// AuthContext is the identity attached to one authenticated request.
type AuthContext struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
}

// NewAuthContext derives the request identity from a freshly loaded user.
func NewAuthContext(u *User) *AuthContext {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return &AuthContext{ID: u.ID, Email: u.Email, Roles: roles, FirstName: u.FirstName, LastName: u.LastName}
}

// LoginActivity is the informational record of the latest successful login.
type LoginActivity struct {
	UserID    string    `json:"user_id"`
	At        time.Time `json:"at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
}
