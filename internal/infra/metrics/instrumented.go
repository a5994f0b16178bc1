package metrics

import (
	"time"

	"docket/internal/domain/entity"
	"docket/internal/domain/service"
)

type instrumentedHasher struct {
	next    service.PasswordHasher
	metrics *AuthMetrics
}

// InstrumentPasswordHasher times Hash and Verify and counts verification results.
func InstrumentPasswordHasher(next service.PasswordHasher, m *AuthMetrics) service.PasswordHasher {
	return &instrumentedHasher{next: next, metrics: m}
}

func (h *instrumentedHasher) Hash(password string) (string, error) {
	start := time.Now()
	hash, err := h.next.Hash(password)
	h.metrics.observeHash("hash", time.Since(start))

	return hash, err
}

func (h *instrumentedHasher) Verify(stored, password string) (bool, bool) {
	start := time.Now()
	valid, rehash := h.next.Verify(stored, password)
	h.metrics.observeHash("verify", time.Since(start))

	result := "invalid"
	switch {
	case valid && rehash:
		result = "rehash"
	case valid:
		result = "valid"
	}
	h.metrics.verifications.WithLabelValues(result).Inc()

	return valid, rehash
}

type instrumentedTokenService struct {
	next    service.TokenService
	metrics *AuthMetrics
}

// InstrumentTokenService counts issued and verified tokens per class.
func InstrumentTokenService(next service.TokenService, m *AuthMetrics) service.TokenService {
	return &instrumentedTokenService{next: next, metrics: m}
}

func (s *instrumentedTokenService) Issue(subject int64, class entity.TokenClass) (string, error) {
	token, err := s.next.Issue(subject, class)
	s.metrics.tokensIssued.WithLabelValues(class.String(), resultLabel(err == nil)).Inc()

	return token, err
}

func (s *instrumentedTokenService) Verify(token string, expected entity.TokenClass) (int64, bool) {
	subject, ok := s.next.Verify(token, expected)
	s.metrics.tokenChecks.WithLabelValues(expected.String(), resultLabel(ok)).Inc()

	return subject, ok
}

func (s *instrumentedTokenService) ExtractSubject(token string, expected entity.TokenClass) (int64, bool) {
	subject, ok := s.next.ExtractSubject(token, expected)
	s.metrics.tokenChecks.WithLabelValues(expected.String(), resultLabel(ok)).Inc()

	return subject, ok
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}

	return "rejected"
}
