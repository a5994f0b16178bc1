package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docket/config"
	apimiddleware "docket/internal/delivery/api/middleware"
	"docket/internal/delivery/api/router"
	"docket/internal/delivery/api/router/handler"
	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/infra/metrics"
	mockSvc "docket/internal/mocks/service"
	mockUC "docket/internal/mocks/usecase"
	"docket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serverFixtures struct {
	echo   *echo.Echo
	tokens *mockSvc.MockTokenService
	userUC *mockUC.MockUserUsecase
	taskUC *mockUC.MockTaskUsecase
}

func createTestServer(t *testing.T) serverFixtures {
	tokens := mockSvc.NewMockTokenService(t)
	userUC := mockUC.NewMockUserUsecase(t)
	taskUC := mockUC.NewMockTaskUsecase(t)
	logger := newDiscardLogger()

	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}

	reg := metrics.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)

	e := newEcho(ServerParams{
		Cfg:         cfg,
		Logger:      logger,
		HTTPMetrics: httpMetrics,
		RouterParams: router.RouterParams{
			UserHandler: handler.NewUserHandler(handler.UserHandlerParams{UserUC: userUC, Logger: logger}),
			TaskHandler: handler.NewTaskHandler(handler.TaskHandlerParams{TaskUC: taskUC, Logger: logger}),
			AuthMiddleware: apimiddleware.NewAuthMiddleware(apimiddleware.AuthMiddlewareParams{
				TokenService: tokens,
				UserUC:       userUC,
				Logger:       logger,
			}),
			Config:   cfg,
			Registry: reg,
		},
	})

	return serverFixtures{echo: e, tokens: tokens, userUC: userUC, taskUC: taskUC}
}

func (fx serverFixtures) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	fx.echo.ServeHTTP(rec, req)

	return rec
}

// authenticateAs makes "Bearer access-token" resolve to user.
func (fx serverFixtures) authenticateAs(user *entity.User) map[string]string {
	fx.tokens.EXPECT().ExtractSubject("access-token", entity.TokenClassAccess).Return(user.ID, true)
	fx.userUC.EXPECT().CurrentUser(mock.Anything, user.ID).Return(user, nil)

	return map[string]string{echo.HeaderAuthorization: "Bearer access-token"}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return env
}

func testUser() *entity.User {
	return &entity.User{
		ID:           42,
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$argon2id$secret",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestServer_HealthAndRequestID(t *testing.T) {
	fx := createTestServer(t)

	rec := fx.do(http.MethodGet, "/health", "", map[string]string{echo.HeaderXRequestID: "req-123"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, "req-123", decode(t, rec).Meta.RequestID)

	rec = fx.do(http.MethodGet, "/health", "", map[string]string{echo.HeaderXRequestID: "bad id\x01"})
	assert.NotEqual(t, "bad id\x01", rec.Header().Get(echo.HeaderXRequestID))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestServer_Register(t *testing.T) {
	fx := createTestServer(t)

	fx.userUC.EXPECT().
		Register(mock.Anything, usecase.RegisterInput{Name: "Ada Lovelace", Email: "ada@example.com", Password: "p@ssw0rd"}).
		Return(&usecase.RegisterOutput{User: testUser()}, nil)

	rec := fx.do(http.MethodPost, "/api/auth/register",
		`{"name":"Ada Lovelace","email":"ada@example.com","password":"p@ssw0rd"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "argon2id")

	var user handler.UserResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &user))
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestServer_Register_ValidationFailure(t *testing.T) {
	fx := createTestServer(t)

	rec := fx.do(http.MethodPost, "/api/auth/register", `{"name":"Al","email":"not-an-email","password":"123"}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), `"field":"email"`)
	assert.Contains(t, string(env.Error.Details), `"field":"password"`)
}

func TestServer_Register_Conflict(t *testing.T) {
	fx := createTestServer(t)

	fx.userUC.EXPECT().
		Register(mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrUserAlreadyExists.WrapMessage("registration failed"))

	rec := fx.do(http.MethodPost, "/api/auth/register",
		`{"name":"Ada Lovelace","email":"ada@example.com","password":"p@ssw0rd"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USER_ALREADY_EXISTS", decode(t, rec).Error.Code)
}

func TestServer_Login(t *testing.T) {
	fx := createTestServer(t)

	fx.userUC.EXPECT().
		Login(mock.Anything, usecase.LoginInput{Email: "ada@example.com", Password: "p@ssw0rd"}).
		Return(&usecase.LoginOutput{AccessToken: "access", RefreshToken: "refresh", User: testUser()}, nil)

	rec := fx.do(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"p@ssw0rd"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var out handler.LoginResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	assert.Equal(t, "access", out.AccessToken)
	assert.Equal(t, "refresh", out.RefreshToken)
	assert.Equal(t, "bearer", out.TokenType)
	assert.Equal(t, int64(42), out.User.ID)
}

func TestServer_Login_InvalidCredentials(t *testing.T) {
	fx := createTestServer(t)

	fx.userUC.EXPECT().
		Login(mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed"))

	rec := fx.do(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"nope"}`, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	assert.Equal(t, "invalid email or password", env.Error.Message)
	assert.Empty(t, env.Error.Details)
}

func TestServer_ProtectedRoutesRequireAccessToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		setup  func(fx serverFixtures)
	}{
		{name: "no header"},
		{name: "wrong scheme", header: "Basic YWRhOnB3"},
		{name: "empty bearer", header: "Bearer "},
		{
			name:   "refresh token presented",
			header: "Bearer refresh-token",
			setup: func(fx serverFixtures) {
				fx.tokens.EXPECT().ExtractSubject("refresh-token", entity.TokenClassAccess).Return(0, false)
			},
		},
		{
			name:   "user deleted",
			header: "Bearer access-token",
			setup: func(fx serverFixtures) {
				fx.tokens.EXPECT().ExtractSubject("access-token", entity.TokenClassAccess).Return(int64(9), true)
				fx.userUC.EXPECT().CurrentUser(mock.Anything, int64(9)).
					Return(nil, domainerrors.ErrUserNotFound.WrapMessage("gone"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestServer(t)
			if tt.setup != nil {
				tt.setup(fx)
			}

			headers := map[string]string{}
			if tt.header != "" {
				headers[echo.HeaderAuthorization] = tt.header
			}

			rec := fx.do(http.MethodGet, "/api/users/me", "", headers)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
			env := decode(t, rec)
			assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
			assert.Equal(t, "invalid or expired token", env.Error.Message)
		})
	}
}

func TestServer_Me(t *testing.T) {
	fx := createTestServer(t)
	headers := fx.authenticateAs(testUser())

	rec := fx.do(http.MethodGet, "/api/users/me", "", headers)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")

	var user handler.UserResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &user))
	assert.Equal(t, "Ada Lovelace", user.Name)
}

func TestServer_RefreshToken(t *testing.T) {
	t.Run("from header", func(t *testing.T) {
		fx := createTestServer(t)
		fx.userUC.EXPECT().RefreshToken(mock.Anything, "refresh-token").
			Return(&usecase.RefreshOutput{AccessToken: "new-access"}, nil)

		rec := fx.do(http.MethodPost, "/api/auth/refresh-token", "",
			map[string]string{echo.HeaderAuthorization: "Bearer refresh-token"})

		require.Equal(t, http.StatusOK, rec.Code)
		var out handler.RefreshTokenResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
		assert.Equal(t, "new-access", out.AccessToken)
	})

	t.Run("from body", func(t *testing.T) {
		fx := createTestServer(t)
		fx.userUC.EXPECT().RefreshToken(mock.Anything, "refresh-token").
			Return(&usecase.RefreshOutput{AccessToken: "new-access"}, nil)

		rec := fx.do(http.MethodPost, "/api/auth/refresh-token", `{"refresh_token":"refresh-token"}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		fx := createTestServer(t)

		rec := fx.do(http.MethodPost, "/api/auth/refresh-token", "", nil)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
		assert.Equal(t, "REFRESH_TOKEN_INVALID", decode(t, rec).Error.Code)
	})

	t.Run("rejected", func(t *testing.T) {
		fx := createTestServer(t)
		fx.userUC.EXPECT().RefreshToken(mock.Anything, "access-token").
			Return(nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token rejected"))

		rec := fx.do(http.MethodPost, "/api/auth/refresh-token", "",
			map[string]string{echo.HeaderAuthorization: "Bearer access-token"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	})
}

func TestServer_TaskCRUD(t *testing.T) {
	user := testUser()
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	task := &entity.Task{ID: 5, OwnerID: user.ID, Title: "write report", DueDate: &due}

	t.Run("create", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)
		fx.taskUC.EXPECT().
			CreateTask(mock.Anything, user.ID, usecase.CreateTaskInput{Title: "write report", DueDate: &due}).
			Return(task, nil)

		rec := fx.do(http.MethodPost, "/api/tasks", `{"title":"write report","due_date":"2026-11-01"}`, headers)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"due_date":"2026-11-01"`)
	})

	t.Run("create with bad date", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)

		rec := fx.do(http.MethodPost, "/api/tasks", `{"title":"x","due_date":"01/11/2026"}`, headers)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)
		fx.taskUC.EXPECT().ListTasks(mock.Anything, user.ID).Return([]*entity.Task{task}, nil)

		rec := fx.do(http.MethodGet, "/api/tasks", "", headers)

		require.Equal(t, http.StatusOK, rec.Code)
		var out []handler.TaskResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
		require.Len(t, out, 1)
		assert.Equal(t, int64(5), out[0].ID)
	})

	t.Run("get foreign task", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)
		fx.taskUC.EXPECT().GetTask(mock.Anything, user.ID, int64(77)).
			Return(nil, domainerrors.ErrTaskNotFound.WrapMessage("failed to find task"))

		rec := fx.do(http.MethodGet, "/api/tasks/77", "", headers)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "TASK_NOT_FOUND", decode(t, rec).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)

		rec := fx.do(http.MethodGet, "/api/tasks/abc", "", headers)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update clears due date", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)
		done := true
		fx.taskUC.EXPECT().
			UpdateTask(mock.Anything, user.ID, int64(5), mock.MatchedBy(func(p entity.TaskPatch) bool {
				return p.ClearDueDate && p.DueDate == nil && p.Title == nil && p.IsComplete != nil && *p.IsComplete
			})).
			Return(&entity.Task{ID: 5, OwnerID: user.ID, Title: "write report", IsComplete: done}, nil)

		rec := fx.do(http.MethodPut, "/api/tasks/5", `{"due_date":null,"is_complete":true}`, headers)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"due_date":null`)
	})

	t.Run("update leaves absent fields alone", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)
		fx.taskUC.EXPECT().
			UpdateTask(mock.Anything, user.ID, int64(5), mock.MatchedBy(func(p entity.TaskPatch) bool {
				return !p.ClearDueDate && p.DueDate == nil && p.Title != nil && *p.Title == "renamed"
			})).
			Return(task, nil)

		rec := fx.do(http.MethodPut, "/api/tasks/5", `{"title":"renamed"}`, headers)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("update rejects empty title", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)

		rec := fx.do(http.MethodPut, "/api/tasks/5", `{"title":""}`, headers)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		fx := createTestServer(t)
		headers := fx.authenticateAs(user)
		fx.taskUC.EXPECT().DeleteTask(mock.Anything, user.ID, int64(5)).Return(nil)

		rec := fx.do(http.MethodDelete, "/api/tasks/5", "", headers)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestServer_UnknownErrorsAreHidden(t *testing.T) {
	fx := createTestServer(t)
	headers := fx.authenticateAs(testUser())
	fx.taskUC.EXPECT().ListTasks(mock.Anything, int64(42)).Return(nil, errors.New("pq: password authentication failed"))

	rec := fx.do(http.MethodGet, "/api/tasks", "", headers)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rec).Error.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	fx := createTestServer(t)

	fx.do(http.MethodGet, "/health", "", nil)
	rec := fx.do(http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docket_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Metrics = config.MetricsConfig{Enabled: false, Path: "/metrics"}

	e := echo.New()
	router.NewRouter(router.RouterParams{Config: cfg, Registry: prometheus.NewRegistry()}).RegisterMetricsRoute(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
