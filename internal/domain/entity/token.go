package entity

// TokenClass separates short-lived access tokens from long-lived refresh tokens.
// A token of one class is never accepted where the other is expected.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// IsValid reports whether c is one of the known classes.
func (c TokenClass) IsValid() bool {
	return c == TokenClassAccess || c == TokenClassRefresh
}

func (c TokenClass) String() string {
	return string(c)
}

// TokenPair is what a successful login hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
