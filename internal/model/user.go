package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user as stored in the `users` table.
// Users belong to exactly one tenant and hold a set of roles through the
// user_roles join table.  Accounts are never hard-deleted: deactivation
// flips IsActive so analytics over historical visits keep resolving the
// row.
//
// Fields:
//
//	ID           – primary key identifier.
//	TenantID     – owning tenant.
//	Email        – unique per tenant.
//	Phone        – optional phone number.
//	FirstName    – optional given name.
//	LastName     – optional family name.
//	PasswordHash – bcrypt hashed password.
//	IsActive     – soft-delete flag.
//	LastLoginAt  – set on each successful login.
//	Roles        – role names resolved from user_roles.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uuid.UUID  // users.id
	TenantID     uuid.UUID  // users.tenant_id
	Email        string     // users.email
	Phone        *string    // users.phone (nullable)
	FirstName    *string    // users.first_name (nullable)
	LastName     *string    // users.last_name (nullable)
	PasswordHash string     // users.password_hash
	IsActive     bool       // users.is_active
	LastLoginAt  *time.Time // users.last_login_at (nullable)
	Roles        []Role     // resolved from user_roles
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// HasRole reports whether the user holds the exact role name.
func (u *User) HasRole(r Role) bool {
	for _, held := range u.Roles {
		if held == r {
			return true
		}
	}
	return false
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token value is stored.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the token value.
//	ExpiresAt – expiration timestamp.
//	RevokedAt – when the token was revoked (null if still active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uuid.UUID  // refresh_tokens.id
	UserID    uuid.UUID  // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
