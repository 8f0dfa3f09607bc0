// Package grpc provides authentication interceptors and context utilities
// for passing the authenticated user between authd and gRPC services via
// metadata.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Default metadata keys for authentication context.
// These can be customized via Config if needed.
const (
	// DefaultMetadataKeyAuthorization is the default gRPC metadata key
	// carrying a bearer session token.
	DefaultMetadataKeyAuthorization = "authorization"

	// DefaultMetadataKeyUserID is the default gRPC metadata key for a
	// pre-authenticated user ID, trusted only from internal callers.
	DefaultMetadataKeyUserID = "x-user-id"
)

// Config holds the metadata key configuration for auth context.
type Config struct {
	// MetadataKeyAuthorization is the gRPC metadata key for bearer tokens.
	// Defaults to "authorization".
	MetadataKeyAuthorization string

	// MetadataKeyUserID is the gRPC metadata key for a pre-authenticated
	// user ID. Defaults to "x-user-id".
	MetadataKeyUserID string

	// TrustUserIDHeader when true accepts MetadataKeyUserID without a token.
	// Should only be enabled behind a boundary that already authenticated
	// the caller.
	TrustUserIDHeader bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyAuthorization: DefaultMetadataKeyAuthorization,
		MetadataKeyUserID:        DefaultMetadataKeyUserID,
		TrustUserIDHeader:        false,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyAuthorization == "" {
		c.MetadataKeyAuthorization = DefaultMetadataKeyAuthorization
	}
	if c.MetadataKeyUserID == "" {
		c.MetadataKeyUserID = DefaultMetadataKeyUserID
	}
}

type contextKey string

const userIDContextKey = contextKey("authdGrpcUserID")

// UserIDFromContext extracts the authenticated user ID placed in the
// context by the interceptors. Returns empty string if no user is
// authenticated.
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDContextKey).(string); ok {
		return userID
	}
	return ""
}

// ContextWithUserID returns a context carrying the authenticated user ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// IsAuthenticated returns true if there is an authenticated user in the context.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// TokenToOutgoingContext adds a bearer session token to outgoing gRPC
// context metadata.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyAuthorization, "Bearer "+token)
}

// UserIDToOutgoingContext adds a pre-authenticated user ID to outgoing gRPC
// context metadata. Only honored by servers with TrustUserIDHeader set.
func UserIDToOutgoingContext(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyUserID, userID)
}
