package authd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Service implements the credential authentication and password-lifecycle
// flows on top of injected collaborators. Every flow is a short-lived
// request/validate/act sequence; all shared state lives in the stores.
type Service struct {
	Users  UserStore
	Resets ResetTokenStore
	Hasher PasswordHasher
	Tokens TokenIssuer

	// Optional email sender for reset links
	EmailSender SendEmail

	// Base URL for generating reset links
	BaseURL string

	// Policy for registration and new-password checks; zero value applies
	// the defaults.
	Policy SignupPolicy

	// How long a reset token stays valid. Defaults to
	// TokenExpiryPasswordReset.
	ResetTokenTTL time.Duration
}

// SignInResult is what a successful sign-in returns.
type SignInResult struct {
	Token string   `json:"token"`
	User  *Profile `json:"user"`
}

// SignIn verifies a credential pair and issues a session token.
// An unknown identifier fails with KindNotFound and a wrong password with
// KindUnauthorized; the two are deliberately distinguishable, matching the
// public API this service replaces.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, NewAuthError(KindBadRequest, "Identifier and password are required", "")
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		return nil, NewAuthError(KindUnauthorized, "Invalid credentials", "password")
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &SignInResult{Token: token, User: user.Profile()}, nil
}

// SignUp registers a new user. A non-empty parentID groups the new user
// under an existing one and must resolve. Registration is synchronous: the
// user exists by the time SignUp returns, and no token is auto-issued.
func (s *Service) SignUp(ctx context.Context, email, password, parentID string) (*Profile, error) {
	email = NormalizeEmail(email)
	if authErr := s.Policy.ValidateRegistration(email, password); authErr != nil {
		return nil, authErr
	}

	if parentID != "" {
		if _, err := s.Users.FindByID(ctx, parentID); err != nil {
			return nil, err
		}
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		ParentID:     parentID,
		CreatedAt:    time.Now(),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("Created user %s", user.ID)
	return user.Profile(), nil
}

// ChangePassword replaces a user's password after re-proving the current
// one. This is the authenticated counterpart of ResetPassword.
func (s *Service) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || oldPassword == "" || newPassword == "" {
		return NewAuthError(KindBadRequest, "Identifier, old password and new password are required", "")
	}
	if authErr := s.Policy.ValidateNewPassword(newPassword); authErr != nil {
		return authErr
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if !s.Hasher.Verify(oldPassword, user.PasswordHash) {
		return NewAuthError(KindUnauthorized, "Invalid credentials", "oldPassword")
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.Users.UpdatePasswordHash(ctx, user.ID, hash)
}

// RequestPasswordReset issues a reset token for the account and hands it to
// the delivery collaborator. The outcome is identical whether or not the
// email is registered, so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return NewAuthError(KindBadRequest, "Email is required", "email")
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Kind == KindNotFound {
			// Still report success to avoid revealing if the email exists.
			log.Printf("password reset requested for unknown email")
			return nil
		}
		return err
	}

	ttl := s.ResetTokenTTL
	if ttl == 0 {
		ttl = TokenExpiryPasswordReset
	}
	token, err := s.Resets.IssueFor(ctx, user.ID, ttl)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.EmailSender != nil {
		resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", s.BaseURL, token.Token)
		if err := s.EmailSender.SendPasswordResetEmail(user.Email, resetLink); err != nil {
			log.Printf("Error sending reset email: %v", err)
		}
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// token is the one delivered by RequestPasswordReset; the email must belong
// to the user it was issued for, so knowledge of an email alone cannot
// overwrite a password. Consume is exactly-once: a concurrent duplicate of
// the same request fails with KindInvalidToken.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || token == "" || newPassword == "" {
		return NewAuthError(KindBadRequest, "Email, token and new password are required", "")
	}
	if authErr := s.Policy.ValidateNewPassword(newPassword); authErr != nil {
		return authErr
	}

	userID, err := s.Resets.Consume(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Email != email {
		return NewAuthError(KindInvalidToken, "Token does not match this account", "token")
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.Users.UpdatePasswordHash(ctx, user.ID, hash)
}

// EnsureExternalUser finds or creates an account for an identity asserted
// by an external provider. Accounts provisioned this way get a random
// password hash that no plaintext can match; such users authenticate
// through the provider until they set a password via the reset flow.
func (s *Service) EnsureExternalUser(ctx context.Context, email string) (*Profile, error) {
	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, NewAuthError(KindBadRequest, "Invalid email format", "email")
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err == nil {
		return user.Profile(), nil
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Kind != KindNotFound {
		return nil, err
	}

	random, err := GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	hash, err := s.Hasher.Hash(random)
	if err != nil {
		return nil, err
	}

	user = &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("Provisioned external user %s", user.ID)
	return user.Profile(), nil
}
