// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"docket/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserEmailTaken is returned by Create when the email is already registered.
	ErrUserEmailTaken = errors.New("user email already taken")
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID retrieves a single user by id.
	FindByID(ctx context.Context, id int64) (*entity.User, error)

	// FindByEmail retrieves a single user by email. Emails are compared case-insensitively.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByEmail reports whether an account with email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create persists a new user and fills in ID and timestamps.
	Create(ctx context.Context, user *entity.User) error

	// UpdatePasswordHash replaces the stored credential of the user.
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
