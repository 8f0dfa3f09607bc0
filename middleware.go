package authd

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

type contextKey string

const userIDContextKey contextKey = "authd.loggedInUserId"

// UserIDFromContext returns the user ID stashed by ExtractUser or
// EnsureUser, or "" when the request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDContextKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID returns a context carrying the authenticated user ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// Middleware resolves the authenticated user for a request, checking the
// server-side session first and falling back to a Bearer session token in
// the Authorization header or the auth cookie.
type Middleware struct {
	Tokens  TokenIssuer
	Session *scs.SessionManager

	SessionUserKey      string // defaults to DefaultSessionUserKey
	AuthTokenHeaderName string // defaults to "Authorization"
	AuthTokenCookieName string
}

// EnsureReasonableDefaults fills in defaults for unset config values.
func (m *Middleware) EnsureReasonableDefaults() {
	if m.SessionUserKey == "" {
		m.SessionUserKey = DefaultSessionUserKey
	}
	if m.AuthTokenHeaderName == "" {
		m.AuthTokenHeaderName = "Authorization"
	}
}

// GetLoggedInUserId resolves the user for the current request without
// mutating it.
func (m *Middleware) GetLoggedInUserId(r *http.Request) string {
	m.EnsureReasonableDefaults()

	if userID := UserIDFromContext(r.Context()); userID != "" {
		return userID
	}

	if m.Session != nil {
		if userID := m.Session.GetString(r.Context(), m.SessionUserKey); userID != "" {
			return userID
		}
	}

	if m.Tokens == nil {
		return ""
	}
	for _, candidate := range m.authTokens(r) {
		if userID, err := m.Tokens.Validate(candidate); err == nil && userID != "" {
			return userID
		}
	}
	return ""
}

// authTokens collects token candidates from the auth header and cookie.
func (m *Middleware) authTokens(r *http.Request) []string {
	var tokens []string
	for _, value := range r.Header.Values(m.AuthTokenHeaderName) {
		if after, found := strings.CutPrefix(value, "Bearer "); found {
			value = after
		}
		if value = strings.TrimSpace(value); value != "" {
			tokens = append(tokens, value)
		}
	}
	if m.AuthTokenCookieName != "" {
		for _, cookie := range r.Cookies() {
			if cookie.Name == m.AuthTokenCookieName && cookie.Value != "" {
				tokens = append(tokens, cookie.Value)
			}
		}
	}
	return tokens
}

// ExtractUser loads the user ID into the request context for downstream
// handlers. It does not enforce that a user exists; use EnsureUser for that.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.GetLoggedInUserId(r)
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

// EnsureUser rejects unauthenticated requests with a 401 and otherwise
// behaves like ExtractUser.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.GetLoggedInUserId(r)
		if userID == "" {
			writeError(w, NewAuthError(KindUnauthorized, "Authentication required", ""))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}
