package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sotkin/authd"
)

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/sigIn", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"statusCode": 401, "message": "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(authd.SignInResult{
			Token: "session-token",
			User:  &authd.Profile{ID: "u1", Email: body["identifier"]},
		})
	})

	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"statusCode": 401, "message": "Not authenticated"})
			return
		}
		json.NewEncoder(w).Encode(authd.Profile{ID: "u1", Email: "alice@example.com"})
	})

	mux.HandleFunc("/auth/sigUp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(authd.Profile{
			ID:       "u2",
			Email:    body["email"],
			ParentID: r.URL.Query().Get("parentId"),
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSignInStoresToken(t *testing.T) {
	server := newFakeServer(t)
	c := NewAuthClient(server.URL)

	result, err := c.SignIn(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token != "session-token" {
		t.Errorf("expected session-token, got %q", result.Token)
	}
	if c.Token() != "session-token" {
		t.Errorf("expected client to keep the token, got %q", c.Token())
	}

	profile, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("unexpected error from Me: %v", err)
	}
	if profile.ID != "u1" {
		t.Errorf("expected profile u1, got %q", profile.ID)
	}
}

func TestSignInFailureIsAPIError(t *testing.T) {
	server := newFakeServer(t)
	c := NewAuthClient(server.URL)

	_, err := c.SignIn(context.Background(), "alice@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestSignUpWithParent(t *testing.T) {
	server := newFakeServer(t)
	c := NewAuthClient(server.URL)

	profile, err := c.SignUp(context.Background(), "bob@example.com", "secret123", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ParentID != "u1" {
		t.Errorf("expected parentId u1, got %q", profile.ParentID)
	}
}
