//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the authd store
// interfaces. It supports any database that GORM supports (PostgreSQL,
// MySQL, SQLite, etc.) and is suitable for deployments requiring durable
// relational storage.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: User accounts with unique emails and optional parent links
//   - reset_tokens: Single-use password reset tokens
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	gormstore.AutoMigrate(db)
//	userStore := gormstore.NewUserStore(db)
//	resetStore := gormstore.NewResetTokenStore(db)
package gorm
