package authd

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

// DefaultSessionUserKey is the session variable holding the signed-in user ID.
const DefaultSessionUserKey = "loggedInUserId"

// Handlers exposes the authentication flows over HTTP. Route shapes and
// failure bodies mirror the public API this service replaces, misspellings
// included ("sigIn", "sigUp").
type Handlers struct {
	Service *Service

	// Optional server-side session; when set, a successful sign-in records
	// the user ID under SessionUserKey.
	Session        *scs.SessionManager
	SessionUserKey string

	// Optional middleware guarding authenticated endpoints such as /auth/me.
	Middleware *Middleware
}

func (h *Handlers) sessionUserKey() string {
	if h.SessionUserKey != "" {
		return h.SessionUserKey
	}
	return DefaultSessionUserKey
}

// Register mounts the auth routes on the router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/auth/sigIn", h.HandleSignIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/newPasswordChange", h.HandleChangePassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/sigUp", h.HandleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/forgot-password", h.HandleForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset-password", h.HandleResetPassword).Methods(http.MethodPost)
	if h.Middleware != nil {
		r.Handle("/auth/me", h.Middleware.EnsureUser(http.HandlerFunc(h.HandleMe))).Methods(http.MethodGet)
	}
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	Identifier  string `json:"identifier"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// errorBody is the uniform failure shape for every route.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// HandleSignIn handles POST /auth/sigIn
func (h *Handlers) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewAuthError(KindBadRequest, "Invalid request body", ""))
		return
	}

	result, err := h.Service.SignIn(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Session != nil {
		h.Session.Put(r.Context(), h.sessionUserKey(), result.User.ID)
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleChangePassword handles POST /auth/newPasswordChange
func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewAuthError(KindBadRequest, "Invalid request body", ""))
		return
	}

	if err := h.Service.ChangePassword(r.Context(), req.Identifier, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password updated successfully",
	})
}

// HandleSignUp handles POST /auth/sigUp. An optional parentId query
// parameter groups the new user under an existing one.
func (h *Handlers) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewAuthError(KindBadRequest, "Invalid request body", ""))
		return
	}
	parentID := r.URL.Query().Get("parentId")

	profile, err := h.Service.SignUp(r.Context(), req.Email, req.Password, parentID)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Kind == KindConflict {
			// Duplicate registration has always reported 400 on this API.
			writeJSON(w, http.StatusBadRequest, errorBody{
				StatusCode: http.StatusBadRequest,
				Message:    authErr.Message,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// HandleForgotPassword handles POST /auth/forgot-password. The response is
// identical whether or not the email is registered.
func (h *Handlers) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewAuthError(KindBadRequest, "Invalid request body", ""))
		return
	}

	if err := h.Service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If that email exists, a reset link has been sent",
	})
}

// HandleResetPassword handles POST /auth/reset-password. The confirmation
// equality check happens here, before the service runs.
func (h *Handlers) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewAuthError(KindBadRequest, "Invalid request body", ""))
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		writeError(w, NewAuthError(KindBadRequest, "Passwords do not match", "confirmPassword"))
		return
	}

	if err := h.Service.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successfully",
	})
}

// HandleMe handles GET /auth/me for an authenticated caller.
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, NewAuthError(KindUnauthorized, "Authentication required", ""))
		return
	}

	user, err := h.Service.Users.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}

// writeError is the single place where service failures become transport
// statuses. Unrecognized failures collapse to a generic 500 so internals
// never leak to a caller.
func writeError(w http.ResponseWriter, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		status := authErr.HTTPStatus()
		writeJSON(w, status, errorBody{StatusCode: status, Message: authErr.Message})
		return
	}

	log.Printf("unexpected error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{
		StatusCode: http.StatusInternalServerError,
		Message:    "Unexpected error",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}
