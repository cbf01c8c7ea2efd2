package types

import "time"

// UserRole gates what an account can do in the console.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleAuditor UserRole = "auditor"
	RoleViewer  UserRole = "viewer"
)

// KnownUserRole reports whether r is a role the server can return.
func KnownUserRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAuditor, RoleViewer:
		return true
	}
	return false
}

// User is an operator account.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Role      UserRole `json:"role"`
	Active    bool     `json:"active"`
	// TwoFactorEnabled arrives as the legacy 2fa_enabled wire field.
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// DisplayName returns the best human label for the account.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// UserRequest is the mutable subset accepted by create and update.
type UserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	FirstName string   `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  string   `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Role      UserRole `json:"role" validate:"required,oneof=admin manager auditor viewer"`
	// Password is only honored on create; updates go through the reset flow.
	Password string `json:"password,omitempty" validate:"omitempty,min=12"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresIn is the access token lifetime in seconds as reported by
	// the server; the authoritative expiry lives in the JWT claims.
	ExpiresIn int64 `json:"expiresIn,omitempty"`
}
