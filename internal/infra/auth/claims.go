package auth

import (
	"bytes"
	"encoding/json"
	"fmt"

	"docket/internal/domain/entity"
	"docket/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

var errBadClaims = errors.New("unexpected claim set")

// tokenClaims is the complete claim set of a docket token. Anything else in
// the payload makes the token invalid.
type tokenClaims struct {
	Subject   string           `json:"sub"`
	Type      string           `json:"type"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

var (
	_ jwt.Claims          = (*tokenClaims)(nil)
	_ jwt.ClaimsValidator = (*tokenClaims)(nil)
)

// UnmarshalJSON rejects unknown and missing claims.
func (c *tokenClaims) UnmarshalJSON(data []byte) error {
	type plain tokenClaims

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var decoded plain
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("%w: %v", errBadClaims, err)
	}

	switch {
	case decoded.Subject == "":
		return fmt.Errorf("%w: missing sub", errBadClaims)
	case decoded.Type == "":
		return fmt.Errorf("%w: missing type", errBadClaims)
	case decoded.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat", errBadClaims)
	case decoded.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp", errBadClaims)
	}

	*c = tokenClaims(decoded)

	return nil
}

// Validate runs after the registered claims checks of the parser.
func (c *tokenClaims) Validate() error {
	if !entity.TokenClass(c.Type).IsValid() {
		return fmt.Errorf("%w: unknown type %q", errBadClaims, c.Type)
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return fmt.Errorf("%w: exp not after iat", errBadClaims)
	}

	return nil
}

func (c *tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.ExpiresAt, nil
}

func (c *tokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return c.IssuedAt, nil
}

func (c *tokenClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

func (c *tokenClaims) GetIssuer() (string, error) {
	return "", nil
}

func (c *tokenClaims) GetSubject() (string, error) {
	return c.Subject, nil
}

func (c *tokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
