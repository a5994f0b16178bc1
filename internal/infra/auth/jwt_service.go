package auth

import (
	"log/slog"
	"strconv"
	"time"

	"docket/config"
	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/service"
	"docket/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
)

// Rejection reasons, used as the "reason" log attribute and metric label.
const (
	RejectMalformed  = "malformed"
	RejectSignature  = "signature"
	RejectExpired    = "expired"
	RejectWrongClass = "wrong_class"
	RejectBadSubject = "bad_subject"
	RejectBadClaims  = "bad_claims"
)

const recommendedSecretLength = 32

// RejectionObserver is told why a token was refused.
type RejectionObserver interface {
	ObserveTokenRejection(class entity.TokenClass, reason string)
}

// JWTService implements service.TokenService with HMAC signed JWTs carrying
// exactly sub, type, iat and exp.
type JWTService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
	parser     *jwt.Parser
	observer   RejectionObserver
	logger     *slog.Logger
}

// TokenOption customises a JWTService.
type TokenOption func(*JWTService)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(clock func() time.Time) TokenOption {
	return func(s *JWTService) {
		s.clock = clock
	}
}

// WithRejectionObserver reports each rejection reason to o.
func WithRejectionObserver(o RejectionObserver) TokenOption {
	return func(s *JWTService) {
		s.observer = o
	}
}

// NewJWTService validates cfg and builds the service.
func NewJWTService(cfg config.TokenConfig, logger *slog.Logger, opts ...TokenOption) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must be provided")
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.Errorf("unsupported token algorithm %q, want HS256, HS384 or HS512", cfg.Algorithm)
	}

	if cfg.AccessTTLMinutes <= 0 || cfg.RefreshTTLDays <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &JWTService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL(),
		refreshTTL: cfg.RefreshTTL(),
		clock:      time.Now,
		logger:     logger.With(slog.String("component", "token_service")),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock),
		jwt.WithStrictDecoding(),
	)

	if len(s.secret) < recommendedSecretLength {
		s.logger.Warn("Token secret is shorter than recommended", slog.Int("length", len(s.secret)), slog.Int("recommended", recommendedSecretLength))
	}
	if s.accessTTL >= s.refreshTTL {
		s.logger.Warn("Access token TTL is not shorter than refresh token TTL",
			slog.Duration("accessTTL", s.accessTTL),
			slog.Duration("refreshTTL", s.refreshTTL),
		)
	}

	return s, nil
}

// TokenServiceParams defines the dependencies of the fx provider.
type TokenServiceParams struct {
	fx.In

	Config   *config.Config
	Logger   *slog.Logger
	Observer RejectionObserver `optional:"true"`
}

// NewTokenService builds the JWT service from the token config section.
func NewTokenService(params TokenServiceParams) (service.TokenService, error) {
	var opts []TokenOption
	if params.Observer != nil {
		opts = append(opts, WithRejectionObserver(params.Observer))
	}

	svc, err := NewJWTService(params.Config.Token, params.Logger, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid token configuration")
	}

	return svc, nil
}

// TTL returns the lifetime of tokens of class, zero for unknown classes.
func (s *JWTService) TTL(class entity.TokenClass) time.Duration {
	switch class {
	case entity.TokenClassAccess:
		return s.accessTTL
	case entity.TokenClassRefresh:
		return s.refreshTTL
	default:
		return 0
	}
}

// Issue signs a new token for subject.
func (s *JWTService) Issue(subject int64, class entity.TokenClass) (string, error) {
	if subject <= 0 {
		return "", domainerrors.ErrInvalidInput.WrapMessage("token subject must be positive")
	}
	if !class.IsValid() {
		return "", domainerrors.ErrInvalidInput.WrapMessage("unknown token class")
	}

	issuedAt := jwt.NewNumericDate(s.clock())
	claims := &tokenClaims{
		Subject:   strconv.FormatInt(subject, 10),
		Type:      class.String(),
		IssuedAt:  issuedAt,
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.TTL(class))),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign token",
			slog.String("class", class.String()),
			slog.Any("error", err),
		)

		return "", domainerrors.ErrTokenIssuanceFailed.WrapMessage(err.Error())
	}

	return signed, nil
}

// Verify returns the subject of a valid token of the expected class.
func (s *JWTService) Verify(token string, expected entity.TokenClass) (int64, bool) {
	subject, reason := s.validate(token, expected)
	if reason != "" {
		s.logger.Warn("Token rejected",
			slog.String("reason", reason),
			slog.String("expected", expected.String()),
		)
		if s.observer != nil {
			s.observer.ObserveTokenRejection(expected, reason)
		}

		return 0, false
	}

	return subject, true
}

// ExtractSubject shares the validation path of Verify.
func (s *JWTService) ExtractSubject(token string, expected entity.TokenClass) (int64, bool) {
	return s.Verify(token, expected)
}

// validate returns the subject, or the reason the token is not acceptable.
func (s *JWTService) validate(token string, expected entity.TokenClass) (int64, string) {
	if token == "" {
		return 0, RejectMalformed
	}

	claims := &tokenClaims{}
	if _, err := s.parser.ParseWithClaims(token, claims, s.keyFunc); err != nil {
		return 0, classifyParseError(err)
	}

	if claims.Type != expected.String() {
		return 0, RejectWrongClass
	}

	// Only the canonical decimal form is accepted, so "+42" and "042" are refused.
	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject <= 0 || strconv.FormatInt(subject, 10) != claims.Subject {
		return 0, RejectBadSubject
	}

	return subject, ""
}

func (s *JWTService) keyFunc(_ *jwt.Token) (any, error) {
	return s.secret, nil
}

func classifyParseError(err error) string {
	switch {
	case errors.Is(err, errBadClaims):
		return RejectBadClaims
	case errors.Is(err, jwt.ErrTokenExpired):
		return RejectExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return RejectSignature
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return RejectBadClaims
	default:
		return RejectMalformed
	}
}
