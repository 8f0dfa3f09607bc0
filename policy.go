package authd

import (
	"fmt"
	"regexp"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SignupPolicy defines what a registration must satisfy. The zero value
// applies the defaults.
type SignupPolicy struct {
	// Minimum password length. Defaults to 8.
	MinPasswordLength int
}

// DefaultSignupPolicy returns the default policy.
func DefaultSignupPolicy() SignupPolicy {
	return SignupPolicy{MinPasswordLength: 8}
}

// GetMinPasswordLength returns the configured minimum or the default.
func (p SignupPolicy) GetMinPasswordLength() int {
	if p.MinPasswordLength > 0 {
		return p.MinPasswordLength
	}
	return 8
}

// ValidateRegistration checks the shape of a registration before any store
// is touched.
func (p SignupPolicy) ValidateRegistration(email, password string) *AuthError {
	if email == "" {
		return NewAuthError(KindBadRequest, "Email is required", "email")
	}
	if !emailPattern.MatchString(email) {
		return NewAuthError(KindBadRequest, "Invalid email format", "email")
	}
	if password == "" {
		return NewAuthError(KindBadRequest, "Password is required", "password")
	}
	return p.ValidateNewPassword(password)
}

// ValidateNewPassword checks password strength for signup, change and reset.
func (p SignupPolicy) ValidateNewPassword(password string) *AuthError {
	minLen := p.GetMinPasswordLength()
	if len(password) < minLen {
		return NewAuthError(KindBadRequest, fmt.Sprintf("Password must be at least %d characters", minLen), "password")
	}
	return nil
}
