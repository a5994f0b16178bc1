package impl

import (
	"context"
	"testing"

	"docket/internal/domain/entity"
	mockRepo "docket/internal/mocks/repository"
	"docket/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// These tests run the user service against the real argon2 hasher and JWT
// service; only persistence is mocked.

func TestAuthFlow_LoginThenAuthorize(t *testing.T) {
	cfg := newTestConfig(2)
	hasher := newRealHasher(t, 1)
	tokens := newRealTokenService(t, cfg)
	userRepo := mockRepo.NewMockUserRepository(t)

	stored, err := hasher.Hash("p@ssw0rd")
	require.NoError(t, err)

	valid, shouldRehash := hasher.Verify(stored, "p@ssw0rd")
	require.True(t, valid)
	require.False(t, shouldRehash)

	user := &entity.User{ID: 42, Name: "Ada", Email: "ada@example.com", PasswordHash: stored}
	userRepo.EXPECT().FindByEmail(mock.Anything, "ada@example.com").Return(user, nil)

	svc := newUserService(UserServiceParams{
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokens,
		Config:       cfg,
		Logger:       newDiscardLogger(),
	})

	output, err := svc.Login(context.Background(), usecase.LoginInput{Email: "ada@example.com", Password: "p@ssw0rd"})
	require.NoError(t, err)
	assert.NotEqual(t, output.AccessToken, output.RefreshToken)

	subject, ok := tokens.ExtractSubject(output.AccessToken, entity.TokenClassAccess)
	require.True(t, ok)
	assert.Equal(t, int64(42), subject)

	_, ok = tokens.ExtractSubject(output.AccessToken, entity.TokenClassRefresh)
	assert.False(t, ok)

	subject, ok = tokens.ExtractSubject(output.RefreshToken, entity.TokenClassRefresh)
	require.True(t, ok)
	assert.Equal(t, int64(42), subject)
}

func TestAuthFlow_Refresh(t *testing.T) {
	cfg := newTestConfig(1)
	tokens := newRealTokenService(t, cfg)
	userRepo := mockRepo.NewMockUserRepository(t)

	user := &entity.User{ID: 7, Name: "Grace", Email: "grace@example.com"}
	userRepo.EXPECT().FindByID(mock.Anything, int64(7)).Return(user, nil)

	svc := newUserService(UserServiceParams{
		UserRepo:     userRepo,
		Hasher:       newRealHasher(t, 1),
		TokenService: tokens,
		Config:       cfg,
		Logger:       newDiscardLogger(),
	})

	refreshToken, err := tokens.Issue(7, entity.TokenClassRefresh)
	require.NoError(t, err)

	subject, ok := tokens.ExtractSubject(refreshToken, entity.TokenClassRefresh)
	require.True(t, ok)
	require.Equal(t, int64(7), subject)

	output, err := svc.RefreshToken(context.Background(), refreshToken)
	require.NoError(t, err)

	subject, ok = tokens.ExtractSubject(output.AccessToken, entity.TokenClassAccess)
	require.True(t, ok)
	assert.Equal(t, int64(7), subject)

	// An access token must never mint another access token.
	_, err = svc.RefreshToken(context.Background(), output.AccessToken)
	assert.Error(t, err)
}

func TestAuthFlow_StaleCredentialIsUpgraded(t *testing.T) {
	cfg := newTestConfig(2)
	oldHasher := newRealHasher(t, 1)
	currentHasher := newRealHasher(t, 2)
	userRepo := mockRepo.NewMockUserRepository(t)

	stale, err := oldHasher.Hash("correct horse")
	require.NoError(t, err)

	user := &entity.User{ID: 5, Email: "old@example.com", PasswordHash: stale}
	userRepo.EXPECT().FindByEmail(mock.Anything, "old@example.com").Return(user, nil)

	upgraded := make(chan string, 1)
	userRepo.EXPECT().
		UpdatePasswordHash(mock.Anything, int64(5), mock.AnythingOfType("string")).
		Run(func(_ context.Context, _ int64, hash string) {
			upgraded <- hash
		}).
		Return(nil)

	svc := newUserService(UserServiceParams{
		UserRepo:     userRepo,
		Hasher:       currentHasher,
		TokenService: newRealTokenService(t, cfg),
		Config:       cfg,
		Logger:       newDiscardLogger(),
	})

	_, err = svc.Login(context.Background(), usecase.LoginInput{Email: "old@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NoError(t, svc.drain(context.Background()))

	replacement := <-upgraded
	assert.NotEqual(t, stale, replacement)

	valid, shouldRehash := currentHasher.Verify(replacement, "correct horse")
	assert.True(t, valid)
	assert.False(t, shouldRehash)
}
