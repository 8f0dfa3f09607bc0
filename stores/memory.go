// Package stores provides the in-memory implementation of the authd store
// interfaces, suitable for tests and single-process deployments.
package stores

import (
	"context"
	"sync"
	"time"

	"github.com/sotkin/authd"
)

// MemoryStore keeps users and reset tokens in process memory. It implements
// both authd.UserStore and authd.ResetTokenStore and is safe for concurrent
// use. All data is lost on restart.
type MemoryStore struct {
	mu sync.Mutex

	byID    map[string]*authd.User
	byEmail map[string]*authd.User

	// tokens indexes reset tokens by value; byUser tracks the single live
	// token per user so issuing a new one can invalidate the old.
	tokens map[string]*authd.ResetToken
	byUser map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    map[string]*authd.User{},
		byEmail: map[string]*authd.User{},
		tokens:  map[string]*authd.ResetToken{},
		byUser:  map[string]string{},
	}
}

// FindByEmail retrieves a user by normalized email.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*authd.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[authd.NormalizeEmail(email)]
	if !ok {
		return nil, authd.NewAuthError(authd.KindNotFound, "User not found", "email")
	}
	out := *user
	return &out, nil
}

// FindByID retrieves a user by ID.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*authd.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, authd.NewAuthError(authd.KindNotFound, "User not found", "id")
	}
	out := *user
	return &out, nil
}

// Create inserts a new user. The email uniqueness check happens under the
// same lock as the insert, so concurrent creates for one email admit exactly
// one winner.
func (s *MemoryStore) Create(ctx context.Context, user *authd.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := authd.NormalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return authd.NewAuthError(authd.KindConflict, "Email already registered", "email")
	}
	if user.ParentID != "" {
		if _, ok := s.byID[user.ParentID]; !ok {
			return authd.NewAuthError(authd.KindNotFound, "Parent user not found", "parentId")
		}
	}

	stored := *user
	stored.Email = email
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.byID[stored.ID] = &stored
	s.byEmail[email] = &stored
	return nil
}

// UpdatePasswordHash replaces the stored digest for a user.
func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return authd.NewAuthError(authd.KindNotFound, "User not found", "id")
	}
	user.PasswordHash = newHash
	return nil
}

// IssueFor replaces any live reset token for the user with a fresh one.
func (s *MemoryStore) IssueFor(ctx context.Context, userID string, ttl time.Duration) (*authd.ResetToken, error) {
	value, err := authd.GenerateSecureToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byUser[userID]; ok {
		delete(s.tokens, old)
	}

	now := time.Now()
	token := &authd.ResetToken{
		Token:     value,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.tokens[value] = token
	s.byUser[userID] = value

	out := *token
	return &out, nil
}

// Consume removes the token and returns its owner. Unknown, expired and
// previously consumed tokens all fail the same way, so a caller cannot
// distinguish them.
func (s *MemoryStore) Consume(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tokens[token]
	if !ok {
		return "", authd.NewAuthError(authd.KindInvalidToken, "Invalid or expired reset token", "token")
	}
	delete(s.tokens, token)
	delete(s.byUser, rt.UserID)
	if rt.IsExpired() {
		return "", authd.NewAuthError(authd.KindInvalidToken, "Invalid or expired reset token", "token")
	}
	return rt.UserID, nil
}
