//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sotkin/authd"
)

// AutoMigrate runs database migrations for all authd tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ResetTokenModel{},
	)
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements authd.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*authd.User, error) {
	var model UserModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", authd.NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, authd.NewAuthError(authd.KindNotFound, "User not found", "email")
	}
	if err != nil {
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*authd.User, error) {
	var model UserModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, authd.NewAuthError(authd.KindNotFound, "User not found", "id")
	}
	if err != nil {
		return nil, err
	}
	return model.ToUser(), nil
}

// Create inserts a new user. Email uniqueness is enforced by the unique
// index, so concurrent creates for the same email lose at the database
// rather than in a racy pre-check.
func (s *UserStore) Create(ctx context.Context, user *authd.User) error {
	if user.ParentID != "" {
		if _, err := s.FindByID(ctx, user.ParentID); err != nil {
			var authErr *authd.AuthError
			if errors.As(err, &authErr) && authErr.Kind == authd.KindNotFound {
				return authd.NewAuthError(authd.KindNotFound, "Parent user not found", "parentId")
			}
			return err
		}
	}

	model := UserToModel(user)
	model.Email = authd.NormalizeEmail(model.Email)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return authd.NewAuthError(authd.KindConflict, "Email already registered", "email")
		}
		return err
	}
	return nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	result := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", id).
		Update("password_hash", newHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return authd.NewAuthError(authd.KindNotFound, "User not found", "id")
	}
	return nil
}

// isDuplicateError detects unique constraint violations across drivers.
// With gorm.Config{TranslateError: true} this is gorm.ErrDuplicatedKey;
// the string checks cover drivers that do not translate.
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// =============================================================================
// ResetTokenStore
// =============================================================================

// ResetTokenStore implements authd.ResetTokenStore using GORM
type ResetTokenStore struct {
	db *gorm.DB
}

func NewResetTokenStore(db *gorm.DB) *ResetTokenStore {
	return &ResetTokenStore{db: db}
}

// IssueFor invalidates any live token for the user and creates a fresh one,
// inside a transaction so the user never briefly holds two usable tokens.
func (s *ResetTokenStore) IssueFor(ctx context.Context, userID string, ttl time.Duration) (*authd.ResetToken, error) {
	value, err := authd.GenerateSecureToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	model := &ResetTokenModel{
		Token:     value,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND consumed_at IS NULL", userID).
			Delete(&ResetTokenModel{}).Error; err != nil {
			return err
		}
		return tx.Create(model).Error
	})
	if err != nil {
		return nil, err
	}
	return model.ToResetToken(), nil
}

// Consume marks the token consumed with a guarded update. The WHERE clause
// requires the token to be live, so two racing consumers see exactly one
// affected row between them.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&ResetTokenModel{}).
		Where("token = ? AND consumed_at IS NULL AND expires_at > ?", token, now).
		Update("consumed_at", now)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", authd.NewAuthError(authd.KindInvalidToken, "Invalid or expired reset token", "token")
	}

	var model ResetTokenModel
	if err := s.db.WithContext(ctx).First(&model, "token = ?", token).Error; err != nil {
		return "", err
	}
	return model.UserID, nil
}
