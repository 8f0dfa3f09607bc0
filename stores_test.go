package authd_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sotkin/authd"
)

func TestWireTypesUseCamelCase(t *testing.T) {
	now := time.Now()

	user := &authd.User{ID: "u1", Email: "a@example.com", ParentID: "p1", CreatedAt: now}
	profileJSON, err := json.Marshal(user.Profile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token := authd.ResetToken{Token: "t", UserID: "u1", CreatedAt: now, ExpiresAt: now}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, payload := range [][]byte{profileJSON, tokenJSON} {
		var keys map[string]any
		if err := json.Unmarshal(payload, &keys); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for key := range keys {
			if key != "id" && key != "token" && !isCamelCase(key) {
				t.Errorf("expected camelCase key, got %q in %s", key, payload)
			}
		}
	}
}

func isCamelCase(key string) bool {
	for _, r := range key {
		if r == '_' || r == '-' {
			return false
		}
	}
	return true
}
