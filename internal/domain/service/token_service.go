package service

import "docket/internal/domain/entity"

// TokenService issues and validates signed, stateless bearer tokens.
type TokenService interface {
	// Issue signs a token for subject with the TTL of class.
	// subject must be positive and class must be valid, otherwise ErrInvalidInput.
	Issue(subject int64, class entity.TokenClass) (string, error)

	// Verify returns the subject of token if the token is well formed, correctly
	// signed, unexpired and of the expected class. Every rejection yields (0, false).
	Verify(token string, expected entity.TokenClass) (subject int64, ok bool)

	// ExtractSubject is Verify under the name the authorization layer uses.
	ExtractSubject(token string, expected entity.TokenClass) (subject int64, ok bool)
}
