package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	defaultTokenAlgorithm      = "HS256"
	defaultAccessTTLMinutes    = 15
	defaultRefreshTTLDays      = 7
	defaultHashTimeCost        = 3
	defaultHashMemoryCostKiB   = 64 * 1024
	defaultHashParallelism     = 2
	defaultHashSaltLength      = 16
	defaultHashKeyLength       = 32
	defaultMaxConcurrentHashes = 4
	defaultRehashTimeout       = 10 * time.Second
	defaultMetricsPath         = "/metrics"
	defaultMigrationsTableName = "goose_db_version"

	minimumTokenSecretLengthProd = 32
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Token TokenConfig `json:"token" yaml:"token"`

	Hashing HashingConfig `json:"hashing" yaml:"hashing"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	Migration MigrationConfig `json:"migration" yaml:"migration"`

	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// TokenConfig configures signing and lifetimes of bearer tokens.
type TokenConfig struct {
	Secret           string `json:"secret" yaml:"secret"`
	Algorithm        string `json:"algorithm" yaml:"algorithm"` // HS256, HS384 or HS512
	AccessTTLMinutes int    `json:"accessTTLMinutes" yaml:"accessTTLMinutes"`
	RefreshTTLDays   int    `json:"refreshTTLDays" yaml:"refreshTTLDays"`
}

// AccessTTL returns the access token lifetime.
func (c TokenConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (c TokenConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// HashingConfig holds the Argon2id target parameters. Credentials stored with
// other parameters are re-hashed on the next successful login.
type HashingConfig struct {
	TimeCost    uint32 `json:"timeCost" yaml:"timeCost"`
	MemoryCost  uint32 `json:"memoryCost" yaml:"memoryCost"` // KiB
	Parallelism uint8  `json:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `json:"saltLength" yaml:"saltLength"`
	KeyLength   uint32 `json:"keyLength" yaml:"keyLength"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	// Upper bound of password hash/verify calls running at once.
	MaxConcurrentHashes int64 `json:"maxConcurrentHashes" yaml:"maxConcurrentHashes"`
	// Budget for the background credential upgrade after a login.
	RehashTimeout time.Duration `json:"rehashTimeout" yaml:"rehashTimeout"`
}

type MigrationConfig struct {
	AutoMigrate bool   `json:"autoMigrate" yaml:"autoMigrate"`
	TableName   string `json:"tableName" yaml:"tableName"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// IsProduction reports whether the service runs with env "production" or "prod".
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env.Env) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	configFile, found := findConfigFile(currEnv, searchPaths)
	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Environment variables override the file.
	// TOKEN_ACCESSTTLMINUTES -> token.accessTTLMinutes
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func findConfigFile(name string, searchPaths []string) (string, bool) {
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Postgres != nil {
		// POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, ...
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if c.Token.Algorithm == "" {
		c.Token.Algorithm = defaultTokenAlgorithm
	}
	if c.Token.AccessTTLMinutes == 0 {
		c.Token.AccessTTLMinutes = defaultAccessTTLMinutes
	}
	if c.Token.RefreshTTLDays == 0 {
		c.Token.RefreshTTLDays = defaultRefreshTTLDays
	}

	if c.Hashing.TimeCost == 0 {
		c.Hashing.TimeCost = defaultHashTimeCost
	}
	if c.Hashing.MemoryCost == 0 {
		c.Hashing.MemoryCost = defaultHashMemoryCostKiB
	}
	if c.Hashing.Parallelism == 0 {
		c.Hashing.Parallelism = defaultHashParallelism
	}
	if c.Hashing.SaltLength == 0 {
		c.Hashing.SaltLength = defaultHashSaltLength
	}
	if c.Hashing.KeyLength == 0 {
		c.Hashing.KeyLength = defaultHashKeyLength
	}

	if c.Auth.MaxConcurrentHashes <= 0 {
		c.Auth.MaxConcurrentHashes = defaultMaxConcurrentHashes
	}
	if c.Auth.RehashTimeout <= 0 {
		c.Auth.RehashTimeout = defaultRehashTimeout
	}

	if c.Migration.TableName == "" {
		c.Migration.TableName = defaultMigrationsTableName
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}
}

// Validate rejects settings the service cannot start with. The auth components
// repeat their own checks; this only catches mistakes before anything is built.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token.Secret) == "" {
		return errors.New("token.secret must be set")
	}
	if c.IsProduction() && len(c.Token.Secret) < minimumTokenSecretLengthProd {
		return errors.Errorf("token.secret must be at least %d bytes in production", minimumTokenSecretLengthProd)
	}
	if c.Token.AccessTTLMinutes < 0 || c.Token.RefreshTTLDays < 0 {
		return errors.New("token TTLs must be positive")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.Errorf("metrics.path %q must start with /", c.Metrics.Path)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv reads POSTGRES_REPLICAS_{index}_{HOST,PORT,USERNAME,PASSWORD}
// until the first index without both host and port.
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
