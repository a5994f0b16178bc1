package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docket/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHasher struct {
	valid, rehash bool
}

func (s stubHasher) Hash(string) (string, error) { return "$argon2id$stub", nil }

func (s stubHasher) Verify(string, string) (bool, bool) { return s.valid, s.rehash }

type stubTokens struct {
	ok bool
}

func (s stubTokens) Issue(int64, entity.TokenClass) (string, error) { return "token", nil }

func (s stubTokens) Verify(string, entity.TokenClass) (int64, bool) {
	if s.ok {
		return 1, true
	}

	return 0, false
}

func (s stubTokens) ExtractSubject(token string, class entity.TokenClass) (int64, bool) {
	return s.Verify(token, class)
}

func newTestAuthMetrics(t *testing.T) *AuthMetrics {
	t.Helper()

	m, err := NewAuthMetrics(NewRegistry())
	require.NoError(t, err)

	return m
}

func TestInstrumentPasswordHasher_CountsResults(t *testing.T) {
	m := newTestAuthMetrics(t)

	InstrumentPasswordHasher(stubHasher{valid: true}, m).Verify("h", "p")
	InstrumentPasswordHasher(stubHasher{valid: true, rehash: true}, m).Verify("h", "p")
	InstrumentPasswordHasher(stubHasher{}, m).Verify("h", "p")
	InstrumentPasswordHasher(stubHasher{}, m).Verify("h", "p")

	_, err := InstrumentPasswordHasher(stubHasher{}, m).Hash("p")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("rehash")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.verifications.WithLabelValues("invalid")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.hashDuration))
}

func TestInstrumentTokenService_CountsResults(t *testing.T) {
	m := newTestAuthMetrics(t)

	svc := InstrumentTokenService(stubTokens{ok: true}, m)
	_, err := svc.Issue(1, entity.TokenClassAccess)
	require.NoError(t, err)
	svc.Verify("t", entity.TokenClassAccess)
	InstrumentTokenService(stubTokens{}, m).ExtractSubject("t", entity.TokenClassRefresh)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokensIssued.WithLabelValues("access", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenChecks.WithLabelValues("access", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenChecks.WithLabelValues("refresh", "rejected")))
}

func TestAuthMetrics_ObserveTokenRejection(t *testing.T) {
	m := newTestAuthMetrics(t)

	m.ObserveTokenRejection(entity.TokenClassAccess, "expired")
	m.ObserveTokenRejection(entity.TokenClassAccess, "expired")
	m.ObserveTokenRejection(entity.TokenClassRefresh, "wrong_class")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokenRejections.WithLabelValues("access", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenRejections.WithLabelValues("refresh", "wrong_class")))
}

func TestNewAuthMetrics_DoubleRegistration(t *testing.T) {
	reg := NewRegistry()

	_, err := NewAuthMetrics(reg)
	require.NoError(t, err)

	_, err = NewAuthMetrics(reg)
	assert.Error(t, err)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	e := echo.New()
	e.Use(m.Middleware)
	e.GET("/api/tasks/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})
	e.GET("/metrics", echo.WrapHandler(Handler(reg)))

	for _, path := range []string{"/api/tasks/1", "/api/tasks/2", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/tasks/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/boom", "418")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "docket_http_requests_total"))
}
