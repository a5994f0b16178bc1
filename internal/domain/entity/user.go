// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// User is an account that can log in with an email and password.
type User struct {
	ID           int64     // Serial primary key, always positive once persisted.
	Name         string    // Display name.
	Email        string    // Login identifier, unique across users.
	PasswordHash string    // Self-describing credential string produced by the PasswordHasher.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}
