// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher turns plaintext passwords into self-describing credential
// strings and checks plaintexts against them.
type PasswordHasher interface {
	// Hash returns a freshly salted credential for password. Empty or
	// whitespace-only input fails with ErrInvalidInput.
	Hash(password string) (string, error)

	// Verify reports whether password matches the stored credential, and whether
	// the credential was produced with parameters other than the current ones
	// and should be replaced. shouldRehash is only ever true when valid is true.
	// Malformed or unsupported credentials yield (false, false).
	Verify(stored, password string) (valid bool, shouldRehash bool)
}
