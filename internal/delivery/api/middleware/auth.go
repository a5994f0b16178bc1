package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"docket/internal/delivery/api/response"
	deliverycontext "docket/internal/delivery/context"
	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/service"
	"docket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	// ContextKeyUserID holds the int64 id of the authenticated user.
	ContextKeyUserID = "userID"
	// ContextKeyUser holds the *entity.User loaded for the request.
	ContextKeyUser = "user"

	bearerScheme = "bearer"
)

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
	UserUC       usecase.UserUsecase
	Logger       *slog.Logger
}

// AuthMiddleware authenticates requests carrying an access token.
type AuthMiddleware struct {
	tokens service.TokenService
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: params.TokenService,
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// Authenticate resolves the bearer access token to a user. Every failure,
// including a token for a deleted user, gets the same 401 and challenge.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := BearerToken(c.Request())
		if !ok {
			return m.reject(c, "missing_bearer_token")
		}

		userID, ok := m.tokens.ExtractSubject(token, entity.TokenClassAccess)
		if !ok {
			return m.reject(c, "invalid_access_token")
		}

		user, err := m.userUC.CurrentUser(c.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrUserNotFound) {
				return m.reject(c, "unknown_subject")
			}

			return errors.WithStack(err)
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

func (m *AuthMiddleware) reject(c echo.Context, reason string) error {
	deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
		Debug("Authentication failed", slog.String("reason", reason), slog.String("path", c.Request().URL.Path))

	c.Response().Header().Set(echo.HeaderWWWAuthenticate, response.BearerChallenge)

	return response.Unauthorized(c, domainerrors.ErrInvalidToken.ErrorCode(), domainerrors.ErrInvalidToken.Message())
}

// BearerToken returns the credentials of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func BearerToken(req *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(req.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// GetUserID returns the id stored by Authenticate.
func GetUserID(c echo.Context) (int64, bool) {
	userID, ok := c.Get(ContextKeyUserID).(int64)

	return userID, ok && userID > 0
}

// GetUser returns the user stored by Authenticate.
func GetUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(ContextKeyUser).(*entity.User)

	return user, ok && user != nil
}
