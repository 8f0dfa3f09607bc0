package authd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token expiry durations
const (
	TokenExpirySession       = 24 * time.Hour
	TokenExpiryPasswordReset = 30 * time.Minute
)

// TokenIssuer issues and validates session tokens. A session token proves a
// prior successful authentication and maps back to the user it was issued
// for until it expires.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Validate(token string) (userID string, err error)
}

// JWTIssuer issues stateless HS256-signed session tokens. Revocation is by
// expiry: tokens stay valid until their exp claim passes.
type JWTIssuer struct {
	SecretKey []byte
	Issuer    string

	// How long issued tokens stay valid. Defaults to TokenExpirySession.
	Expiry time.Duration
}

func (j *JWTIssuer) expiry() time.Duration {
	if j.Expiry != 0 {
		return j.Expiry
	}
	return TokenExpirySession
}

// Issue creates a signed session token bound to userID.
func (j *JWTIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(j.expiry()).Unix(),
	}
	if j.Issuer != "" {
		claims["iss"] = j.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.SecretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate returns the user ID a session token was issued for. Expired,
// tampered and malformed tokens all fail with a KindInvalidToken error;
// only unexpected internal faults surface as anything else.
func (j *JWTIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return "", NewAuthError(KindInvalidToken, "Invalid or expired token", "")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", NewAuthError(KindInvalidToken, "Invalid claims", "")
	}

	if j.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != j.Issuer {
			return "", NewAuthError(KindInvalidToken, "Invalid issuer", "")
		}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", NewAuthError(KindInvalidToken, "Missing subject", "")
	}
	return sub, nil
}

// GenerateSecureToken generates a cryptographically secure random token
func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
