package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"token": map[string]any{
			"secret":           "",
			"accessTTLMinutes": 15,
		},
		"hashing": map[string]any{
			"memoryCost": 65536,
		},
		"auth": map[string]any{
			"maxConcurrentHashes": 4,
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "TOKEN_SECRET", want: "token.secret"},
		{envKey: "TOKEN_ACCESSTTLMINUTES", want: "token.accessTTLMinutes"},
		{envKey: "HASHING_MEMORYCOST", want: "hashing.memoryCost"},
		{envKey: "AUTH_MAXCONCURRENTHASHES", want: "auth.maxConcurrentHashes"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
