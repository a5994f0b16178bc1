package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"docket/config"
	"docket/internal/infra/auth"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingLifecycle collects hooks instead of running an fx app.
type recordingLifecycle struct {
	hooks []fx.Hook
}

func (l *recordingLifecycle) Append(hook fx.Hook) {
	l.hooks = append(l.hooks, hook)
}

func newTestConfig(maxConcurrentHashes int64) *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			Secret:           "usecase_test_secret_that_is_long_enough",
			Algorithm:        "HS256",
			AccessTTLMinutes: 15,
			RefreshTTLDays:   7,
		},
		Auth: config.AuthConfig{
			MaxConcurrentHashes: maxConcurrentHashes,
			RehashTimeout:       5 * time.Second,
		},
	}
}

// cheapArgon2Params keeps real hashing fast enough for unit tests.
func cheapArgon2Params(timeCost uint32) auth.Argon2Params {
	return auth.Argon2Params{
		TimeCost:    timeCost,
		MemoryCost:  64,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newRealHasher(t *testing.T, timeCost uint32) *auth.Argon2Hasher {
	t.Helper()

	hasher, err := auth.NewArgon2Hasher(cheapArgon2Params(timeCost), newDiscardLogger())
	require.NoError(t, err)

	return hasher
}

func newRealTokenService(t *testing.T, cfg *config.Config) *auth.JWTService {
	t.Helper()

	tokens, err := auth.NewJWTService(cfg.Token, newDiscardLogger())
	require.NoError(t, err)

	return tokens
}
