package authd

import "net/http"

// Kind classifies a failure from the service layer so the HTTP boundary can
// translate it to a status code in exactly one place.
type Kind int

const (
	// KindBadRequest marks malformed or inconsistent input.
	KindBadRequest Kind = iota + 1

	// KindUnauthorized marks a credential mismatch.
	KindUnauthorized

	// KindNotFound marks an unknown identifier.
	KindNotFound

	// KindConflict marks a duplicate identifier on create.
	KindConflict

	// KindInvalidToken marks an expired, consumed, tampered or malformed token.
	KindInvalidToken
)

// AuthError is the tagged failure variant returned by the service layer.
// Anything that is not an *AuthError is an internal fault and must never be
// shown to a caller.
type AuthError struct {
	Kind    Kind
	Message string
	Field   string // which input field caused the error, if known
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates a new AuthError
func NewAuthError(kind Kind, message, field string) *AuthError {
	return &AuthError{
		Kind:    kind,
		Message: message,
		Field:   field,
	}
}

// HTTPStatus returns the transport status for the error kind.
func (e *AuthError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidToken:
		// Reset tokens arrive in request bodies, so a bad one is a bad request.
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
