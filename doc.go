// Package authd provides credential authentication and password-lifecycle
// flows for Go applications.
//
// The package separates concerns into small interfaces: a UserStore holds
// accounts, a ResetTokenStore holds single-use password reset tokens, a
// PasswordHasher turns plaintext into digests and a TokenIssuer mints and
// validates session tokens. Service composes them into the five flows:
// sign-in, sign-up, authenticated password change, forgot-password and
// reset-password.
//
// # Basic Usage
//
// Wire a Service from stores and collaborators:
//
//	import (
//	    "github.com/sotkin/authd"
//	    "github.com/sotkin/authd/stores"
//	)
//
//	memory := stores.NewMemoryStore()
//	issuer := &authd.JWTIssuer{SecretKey: secret, Issuer: "authd"}
//
//	service := &authd.Service{
//	    Users:       memory,
//	    Resets:      memory,
//	    Hasher:      &authd.BcryptHasher{},
//	    Tokens:      issuer,
//	    EmailSender: &authd.ConsoleEmailSender{},
//	    BaseURL:     "https://yourapp.com",
//	}
//
// Mount the HTTP surface:
//
//	router := mux.NewRouter()
//	h := &authd.Handlers{Service: service}
//	h.Register(router)
//
// Every failure response has the same shape, a JSON object with statusCode
// and message fields. Route names preserve the spelling of the API this
// package replaces ("sigIn", "sigUp").
//
// # Store Implementations
//
// The stores package provides an in-memory implementation suitable for
// development and tests. The stores/gorm package persists to any database
// GORM supports and is the production choice.
//
// # Security
//
// Passwords are hashed using bcrypt with default cost. Password reset
// tokens are cryptographically secure 32-byte values, hex-encoded to 64
// characters; they expire after 30 minutes and are consumed on first use.
// Session tokens are HS256-signed JWTs valid for 24 hours.
//
// # Testing
//
// Handlers can be tested without a running HTTP server using
// httptest.NewRequest and httptest.ResponseRecorder against the in-memory
// store.
package authd
