//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	"github.com/sotkin/authd"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"size:255;uniqueIndex"`
	PasswordHash string    `gorm:"size:128"`
	ParentID     *string   `gorm:"size:64;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *authd.User {
	user := &authd.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
	if m.ParentID != nil {
		user.ParentID = *m.ParentID
	}
	return user
}

func UserToModel(u *authd.User) *UserModel {
	model := &UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	if u.ParentID != "" {
		parentID := u.ParentID
		model.ParentID = &parentID
	}
	return model
}

// ResetTokenModel is the GORM model for password reset tokens. ConsumedAt
// stays nil until the token is spent; consumption flips it exactly once.
type ResetTokenModel struct {
	Token      string    `gorm:"primaryKey;size:128"`
	UserID     string    `gorm:"size:64;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ExpiresAt  time.Time `gorm:"index"`
	ConsumedAt *time.Time
}

func (ResetTokenModel) TableName() string {
	return "reset_tokens"
}

func (m *ResetTokenModel) ToResetToken() *authd.ResetToken {
	return &authd.ResetToken{
		Token:     m.Token,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}
