package authd

import (
	"context"
	"strings"
	"time"
)

// User represents a registered account. The email is the unique,
// case-insensitive identifier; PasswordHash is never empty for a fully
// registered user.
type User struct {
	ID           string
	Email        string
	PasswordHash string

	// ParentID optionally groups this user under another existing user.
	// It is a weak reference, not ownership.
	ParentID string

	CreatedAt time.Time
}

// Profile is the caller-facing projection of a user. It never carries
// credential material.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		Email:     u.Email,
		ParentID:  u.ParentID,
		CreatedAt: u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an identifier so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore manages user records.
type UserStore interface {
	// FindByEmail retrieves a user by normalized email.
	// Fails with KindNotFound if no such user exists.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID retrieves a user by ID.
	// Fails with KindNotFound if no such user exists.
	FindByID(ctx context.Context, id string) (*User, error)

	// Create inserts a new user. The uniqueness check on the email is
	// atomic with the insert: concurrent creates for the same email yield
	// exactly one success and a KindConflict failure for the rest. A
	// non-empty ParentID that does not resolve fails with KindNotFound.
	Create(ctx context.Context, user *User) error

	// UpdatePasswordHash replaces the stored digest for a user.
	// Fails with KindNotFound if the user vanished.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error
}

// ResetToken authorizes one password change without re-proving the old
// password. It is single-use and time-bound.
type ResetToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if a token has expired
func (t *ResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// ResetTokenStore manages single-use password reset tokens.
type ResetTokenStore interface {
	// IssueFor invalidates any live token for the user, then creates a new
	// one with a fresh expiry. At most one unconsumed token exists per user.
	IssueFor(ctx context.Context, userID string, ttl time.Duration) (*ResetToken, error)

	// Consume atomically marks the token consumed and returns the user it
	// was bound to. Unknown, expired and already-consumed tokens fail with
	// KindInvalidToken. Concurrent consume attempts on the same token yield
	// exactly one success.
	Consume(ctx context.Context, token string) (userID string, err error)
}
