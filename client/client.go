// Package client provides a Go client for the authd HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sotkin/authd"
)

// APIError is a non-2xx response from the server, decoded from the uniform
// error body.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authd: %s (HTTP %d)", e.Message, e.StatusCode)
}

// AuthClient talks to an authd server. After a successful SignIn it holds
// the session token and sends it as a bearer header on later calls.
type AuthClient struct {
	mu         sync.Mutex
	serverURL  string
	httpClient *http.Client
	token      string
}

// ClientOption configures an AuthClient
type ClientOption func(*AuthClient)

// WithHTTPClient sets a custom HTTP client (for timeouts, TLS config, etc.)
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AuthClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken seeds the client with an existing session token.
func WithToken(token string) ClientOption {
	return func(c *AuthClient) {
		c.token = token
	}
}

// NewAuthClient creates a new client for a server
func NewAuthClient(serverURL string, opts ...ClientOption) *AuthClient {
	// Normalize server URL
	u, err := url.Parse(serverURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}

	c := &AuthClient{
		serverURL:  serverURL,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ServerURL returns the server URL this client is configured for
func (c *AuthClient) ServerURL() string {
	return c.serverURL
}

// Token returns the current session token, empty if not signed in.
func (c *AuthClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SignIn authenticates with email and password and keeps the returned
// session token for later calls.
func (c *AuthClient) SignIn(ctx context.Context, email, password string) (*authd.SignInResult, error) {
	var result authd.SignInResult
	err := c.post(ctx, "/auth/sigIn", map[string]string{
		"identifier": email,
		"password":   password,
	}, &result)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = result.Token
	c.mu.Unlock()
	return &result, nil
}

// SignUp registers a new account, optionally scoped under a parent user.
func (c *AuthClient) SignUp(ctx context.Context, email, password, parentID string) (*authd.Profile, error) {
	path := "/auth/sigUp"
	if parentID != "" {
		path += "?parentId=" + url.QueryEscape(parentID)
	}
	var profile authd.Profile
	err := c.post(ctx, path, map[string]string{
		"email":    email,
		"password": password,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ChangePassword proves the old password and installs a new one.
func (c *AuthClient) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	return c.post(ctx, "/auth/newPasswordChange", map[string]string{
		"identifier":  email,
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}, nil)
}

// ForgotPassword requests a password reset email. The server responds the
// same way whether or not the account exists.
func (c *AuthClient) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/forgot-password", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword redeems a reset token for a new password.
func (c *AuthClient) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	return c.post(ctx, "/auth/reset-password", map[string]string{
		"email":           email,
		"token":           token,
		"newPassword":     newPassword,
		"confirmPassword": newPassword,
	}, nil)
}

// Me fetches the profile of the signed-in user.
func (c *AuthClient) Me(ctx context.Context) (*authd.Profile, error) {
	var profile authd.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *AuthClient) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *AuthClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
			apiErr.StatusCode = resp.StatusCode
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("invalid response from server: %w", err)
		}
	}
	return nil
}
