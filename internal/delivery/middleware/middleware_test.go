package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docket/config"
	deliverycontext "docket/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptableRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "uuid", id: "7b1f2c3e-8f41-4a43-9b55-0d4f1c2e9a10", want: true},
		{name: "opaque token", id: "req_123:abc", want: true},
		{name: "empty", id: "", want: false},
		{name: "space", id: "a b", want: false},
		{name: "newline", id: "abc\ninjected=1", want: false},
		{name: "non ascii", id: "réq", want: false},
		{name: "max length", id: strings.Repeat("a", deliverycontext.MaxRequestIDLength), want: true},
		{name: "too long", id: strings.Repeat("a", deliverycontext.MaxRequestIDLength+1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptableRequestID(tt.id))
		})
	}
}

func TestRequestIDMiddleware_ScopesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mw := NewRequestIDMiddleware(logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw.Process(func(c echo.Context) error {
		assert.Equal(t, "abc-123", deliverycontext.GetRequestID(c))
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), nil).Info("inside")

		return nil
	})(c)

	require.NoError(t, err)
	assert.Equal(t, "abc-123", rec.Header().Get(deliverycontext.HeaderXRequestID))
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
}

func TestRequestIDMiddleware_ReplacesUnacceptableID(t *testing.T) {
	mw := NewRequestIDMiddleware(slog.New(slog.DiscardHandler))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, strings.Repeat("x", 500))
	rec := httptest.NewRecorder()

	err := mw.Process(func(echo.Context) error { return nil })(e.NewContext(req, rec))

	require.NoError(t, err)
	got := rec.Header().Get(deliverycontext.HeaderXRequestID)
	assert.Len(t, got, 36)
}

func TestLoggerMiddleware_RecordsRenderedStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mw := NewLoggerMiddleware(logger, &config.Config{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw.Handle(func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"uri":"/api/tasks"`)
}

func TestLoggerMiddleware_SuccessLevel(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		level string
	}{
		{name: "quiet", debug: false, level: `"level":"DEBUG"`},
		{name: "debug mode", debug: true, level: `"level":"INFO"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			cfg := &config.Config{}
			cfg.Env.Debug = tt.debug
			mw := NewLoggerMiddleware(logger, cfg)

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			err := mw.Handle(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.level)
		})
	}
}
