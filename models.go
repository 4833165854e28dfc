package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the administrative account status
type UserStatus = string

const (
	// UserStatusActive is the default status, the account can authenticate
	UserStatusActive UserStatus = "active"
	// UserStatusDisabled is set by an administrator, the account cannot authenticate
	UserStatusDisabled UserStatus = "disabled"
)

// User is the user model
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Roles            []UserRole `bun:"roles,notnull" json:"roles,omitempty"`
	FirstName        string     `bun:"first_name" json:"first_name,omitempty"`
	LastName         string     `bun:"last_name" json:"last_name,omitempty"`
	Username         string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone            string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash     string     `bun:"password_hash" json:"-"`
	EmailVerified    bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	VerificationCode *string    `bun:"verification_code,nullzero" json:"-"`
	CodeExpiresAt    *time.Time `bun:"code_expires_at,nullzero" json:"-"`
	Status           UserStatus `bun:"status" json:"status,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus normalizes a missing status to active
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// EnsureRoles normalizes an empty role set to the default role.
// Every user carries at least one role.
func (u *User) EnsureRoles() {
	if len(u.Roles) == 0 {
		u.Roles = []UserRole{RoleUser}
	}
}

// PrimaryRole returns the first role in the set, the one used as the
// top-level role claim in issued tokens.
func (u *User) PrimaryRole() UserRole {
	if len(u.Roles) == 0 {
		return RoleUser
	}
	return u.Roles[0]
}

// HasOutstandingCode reports whether a verification code is currently issued.
// The code and its expiry are set and cleared together.
func (u *User) HasOutstandingCode() bool {
	return u.VerificationCode != nil && u.CodeExpiresAt != nil
}

// CodeMatches compares the outstanding verification code against the given
// one. Exact string match, a user without an outstanding code matches nothing.
func (u *User) CodeMatches(code string) bool {
	if !u.HasOutstandingCode() || code == "" {
		return false
	}
	return *u.VerificationCode == code
}

// CodeExpiredAt reports whether the outstanding code has expired at the
// given instant. A user without an outstanding code counts as expired.
func (u *User) CodeExpiredAt(now time.Time) bool {
	if u.CodeExpiresAt == nil {
		return true
	}
	return now.After(*u.CodeExpiresAt)
}

// Summary returns the externally visible view of the user. No password
// hash, no verification code.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// UserSummary is the response shape for user facing payloads
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

// TokenTypeBearer is the token type we return on successful authentication
const TokenTypeBearer = "Bearer"

// AuthResult carries a freshly issued token plus the authenticated user
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *UserSummary `json:"user"`
}
