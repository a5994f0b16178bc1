// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"docket/config"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/service"
	"docket/internal/errors"

	"go.uber.org/fx"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2idVariant = "argon2id"

	// storedParamsHeadroom caps how far a stored credential's cost may exceed
	// the current target before it is refused instead of recomputed.
	storedParamsHeadroom = 4
	minStoredSaltLength  = 8
	minStoredKeyLength   = 16
)

var (
	errMalformedCredential   = errors.New("malformed credential")
	errUnsupportedCredential = errors.New("unsupported credential algorithm")
	b64                      = base64.RawStdEncoding
)

// Argon2Params are the tunable Argon2id inputs. MemoryCost is in KiB.
type Argon2Params struct {
	TimeCost    uint32
	MemoryCost  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2ParamsFromConfig maps the hashing section of the config.
func Argon2ParamsFromConfig(cfg config.HashingConfig) Argon2Params {
	return Argon2Params{
		TimeCost:    cfg.TimeCost,
		MemoryCost:  cfg.MemoryCost,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	}
}

// Validate checks the minimums argon2 and a sane salt/key size need.
func (p Argon2Params) Validate() error {
	switch {
	case p.TimeCost < 1:
		return errors.New("argon2: time cost must be at least 1")
	case p.Parallelism < 1:
		return errors.New("argon2: parallelism must be at least 1")
	case p.MemoryCost < 8*uint32(p.Parallelism):
		return errors.Errorf("argon2: memory cost must be at least %d KiB for parallelism %d", 8*uint32(p.Parallelism), p.Parallelism)
	case p.SaltLength < 8:
		return errors.New("argon2: salt length must be at least 8 bytes")
	case p.KeyLength < 16:
		return errors.New("argon2: key length must be at least 16 bytes")
	}

	return nil
}

// Argon2Hasher implements service.PasswordHasher with Argon2id and PHC encoded
// credentials. Legacy bcrypt credentials are still accepted and always flagged
// for rehash.
type Argon2Hasher struct {
	params Argon2Params
	rand   io.Reader
	logger *slog.Logger
}

// HasherOption customises an Argon2Hasher.
type HasherOption func(*Argon2Hasher)

// WithRandReader replaces the salt source, crypto/rand by default.
func WithRandReader(r io.Reader) HasherOption {
	return func(h *Argon2Hasher) {
		h.rand = r
	}
}

// NewArgon2Hasher validates params and returns a hasher that targets them.
func NewArgon2Hasher(params Argon2Params, logger *slog.Logger, opts ...HasherOption) (*Argon2Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := &Argon2Hasher{
		params: params,
		rand:   rand.Reader,
		logger: logger.With(slog.String("component", "password_hasher")),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// HasherParams defines the dependencies of the fx provider.
type HasherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewPasswordHasher builds the Argon2id hasher from the hashing config section.
func NewPasswordHasher(params HasherParams) (service.PasswordHasher, error) {
	hasher, err := NewArgon2Hasher(Argon2ParamsFromConfig(params.Config.Hashing), params.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hashing configuration")
	}

	return hasher, nil
}

// Params returns the parameters new credentials are produced with.
func (h *Argon2Hasher) Params() Argon2Params {
	return h.params
}

// Hash derives a credential from password with a fresh random salt.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", domainerrors.ErrInvalidInput.WrapMessage("password is empty")
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		h.logger.Error("Failed to generate password salt", slog.Any("error", err))

		return "", domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	key := argon2.IDKey([]byte(password), salt, h.params.TimeCost, h.params.MemoryCost, h.params.Parallelism, h.params.KeyLength)

	return encodeArgon2id(h.params, salt, key), nil
}

// Verify checks password against stored. See service.PasswordHasher.
func (h *Argon2Hasher) Verify(stored, password string) (valid bool, shouldRehash bool) {
	if isBcryptHash(stored) {
		return h.verifyBcrypt(stored, password)
	}

	decoded, err := decodeArgon2id(stored)
	if err == nil {
		err = h.checkStoredParams(decoded.params)
	}
	if err != nil {
		if errors.Is(err, errUnsupportedCredential) {
			h.logger.Error("Unsupported credential algorithm", slog.Any("error", err))
		} else {
			h.logger.Error("Malformed credential", slog.Any("error", err))
		}

		return false, false
	}

	key := argon2.IDKey([]byte(password), decoded.salt, decoded.params.TimeCost, decoded.params.MemoryCost, decoded.params.Parallelism, decoded.params.KeyLength)
	if subtle.ConstantTimeCompare(key, decoded.key) != 1 {
		h.logger.Warn("Password mismatch")

		return false, false
	}

	return true, decoded.params != h.params
}

// checkStoredParams bounds the work a stored credential can demand, so a
// corrupted row cannot stall or exhaust memory inside argon2.IDKey.
func (h *Argon2Hasher) checkStoredParams(p Argon2Params) error {
	ceiling := func(target uint32) uint64 {
		return uint64(target) * storedParamsHeadroom
	}

	switch {
	case uint64(p.MemoryCost) > ceiling(h.params.MemoryCost):
		return errors.Wrapf(errMalformedCredential, "memory cost %d above limit %d", p.MemoryCost, ceiling(h.params.MemoryCost))
	case uint64(p.TimeCost) > ceiling(h.params.TimeCost):
		return errors.Wrapf(errMalformedCredential, "time cost %d above limit %d", p.TimeCost, ceiling(h.params.TimeCost))
	case uint64(p.Parallelism) > ceiling(uint32(h.params.Parallelism)):
		return errors.Wrapf(errMalformedCredential, "parallelism %d above limit %d", p.Parallelism, ceiling(uint32(h.params.Parallelism)))
	case p.SaltLength < minStoredSaltLength || uint64(p.SaltLength) > ceiling(h.params.SaltLength):
		return errors.Wrapf(errMalformedCredential, "salt length %d", p.SaltLength)
	case p.KeyLength < minStoredKeyLength || uint64(p.KeyLength) > ceiling(h.params.KeyLength):
		return errors.Wrapf(errMalformedCredential, "key length %d", p.KeyLength)
	}

	return nil
}

func (h *Argon2Hasher) verifyBcrypt(stored, password string) (bool, bool) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		h.logger.Warn("Password mismatch", slog.String("algorithm", "bcrypt"))
	default:
		h.logger.Error("Malformed credential", slog.String("algorithm", "bcrypt"), slog.Any("error", err))
	}

	return false, false
}

func isBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

type argon2Credential struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

// encodeArgon2id renders $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>.
func encodeArgon2id(p Argon2Params, salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idVariant, argon2.Version, p.MemoryCost, p.TimeCost, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

func decodeArgon2id(stored string) (*argon2Credential, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.Wrapf(errMalformedCredential, "expected 6 segments, got %d", len(parts))
	}

	if parts[1] != argon2idVariant {
		return nil, errors.Wrapf(errUnsupportedCredential, "variant %q", parts[1])
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.Wrap(errMalformedCredential, "missing version")
	}
	v, err := strconv.Atoi(version)
	if err != nil {
		return nil, errors.Wrapf(errMalformedCredential, "version %q", version)
	}
	if v != argon2.Version {
		return nil, errors.Wrapf(errUnsupportedCredential, "version %d", v)
	}

	params, err := parseArgon2Params(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, errors.Wrap(errMalformedCredential, "salt encoding")
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, errors.Wrap(errMalformedCredential, "digest encoding")
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return &argon2Credential{params: params, salt: salt, key: key}, nil
}

// parseArgon2Params reads "m=<KiB>,t=<iterations>,p=<lanes>" in that order.
func parseArgon2Params(segment string) (Argon2Params, error) {
	fields := strings.Split(segment, ",")
	if len(fields) != 3 {
		return Argon2Params{}, errors.Wrapf(errMalformedCredential, "parameters %q", segment)
	}

	values := make([]uint64, len(fields))
	for i, name := range []string{"m", "t", "p"} {
		raw, ok := strings.CutPrefix(fields[i], name+"=")
		if !ok {
			return Argon2Params{}, errors.Wrapf(errMalformedCredential, "parameter %q", fields[i])
		}

		bits := 32
		if name == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(raw, 10, bits)
		if err != nil || n == 0 {
			return Argon2Params{}, errors.Wrapf(errMalformedCredential, "parameter %q", fields[i])
		}
		values[i] = n
	}

	return Argon2Params{
		MemoryCost:  uint32(values[0]),
		TimeCost:    uint32(values[1]),
		Parallelism: uint8(values[2]),
	}, nil
}
