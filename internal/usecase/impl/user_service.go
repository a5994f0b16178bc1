// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docket/config"
	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/domain/repository"
	"docket/internal/domain/service"
	logs "docket/internal/infra/log"
	"docket/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/semaphore"
)

const (
	fallbackMaxConcurrentHashes = 1
	fallbackRehashTimeout       = 10 * time.Second

	// Verified against when the email is unknown, so both login failures cost one hash.
	timingEqualizerPlaintext = "docket-login-timing-equalizer"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager     repository.TransactionManager
	userRepo      repository.UserRepository
	hasher        service.PasswordHasher
	tokenService  service.TokenService
	hashSlots     *semaphore.Weighted
	rehashTimeout time.Duration
	equalizerMu   sync.Mutex
	equalizer     string
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	Lc           fx.Lifecycle `optional:"true"`
	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Config       *config.Config
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	srv := newUserService(params)

	if params.Lc != nil {
		params.Lc.Append(fx.Hook{
			OnStop: srv.drain,
		})
	}

	return srv
}

func newUserService(params UserServiceParams) *userService {
	maxHashes := int64(fallbackMaxConcurrentHashes)
	rehashTimeout := fallbackRehashTimeout
	if params.Config != nil {
		if params.Config.Auth.MaxConcurrentHashes > 0 {
			maxHashes = params.Config.Auth.MaxConcurrentHashes
		}
		if params.Config.Auth.RehashTimeout > 0 {
			rehashTimeout = params.Config.Auth.RehashTimeout
		}
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &userService{
		txManager:     params.TxManager,
		userRepo:      params.UserRepo,
		hasher:        params.Hasher,
		tokenService:  params.TokenService,
		hashSlots:     semaphore.NewWeighted(maxHashes),
		rehashTimeout: rehashTimeout,
		logger:        logger,
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return logs.FromContext(ctx, srv.logger)
}

// Register creates a new account with a freshly hashed credential.
func (srv *userService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	exists, err := srv.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check email availability")
	}
	if exists {
		srv.log(ctx).Warn("Registration rejected, email already registered", slog.String("email", email))

		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("registration failed")
	}

	hashedPassword, err := srv.hash(ctx, input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.NewUserRepository().Create(ctx, newUser); err != nil {
			if errors.Is(err, repository.ErrUserEmailTaken) {
				return domainerrors.ErrUserAlreadyExists.WrapMessage("registration failed")
			}

			return errors.Wrap(err, "failed to create user during registration")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Int64("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser}, nil
}

// Login checks the password and issues an access and a refresh token.
// An unknown email and a wrong password fail identically.
func (srv *userService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Debug("Starting user login", slog.String("email", email))

	loggedInUser, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to load login user")
	}

	if loggedInUser == nil {
		if verifyErr := srv.verifyEqualizer(ctx, input.Password); verifyErr != nil {
			return nil, verifyErr
		}
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.String("reason", "unknown_email"))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}

	valid, shouldRehash, err := srv.verify(ctx, loggedInUser.PasswordHash, input.Password)
	if err != nil {
		return nil, err
	}
	if !valid {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.String("reason", "password_mismatch"))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}

	accessToken, err := srv.tokenService.Issue(loggedInUser.ID, entity.TokenClassAccess)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue access token")
	}
	refreshToken, err := srv.tokenService.Issue(loggedInUser.ID, entity.TokenClassRefresh)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue refresh token")
	}

	if shouldRehash {
		srv.upgradeCredential(ctx, loggedInUser.ID, input.Password)
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Int64("userID", loggedInUser.ID))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         loggedInUser,
	}, nil
}

// RefreshToken handles the process of issuing a new access token using a refresh token.
// The refresh token remains unchanged and stays valid until it expires.
func (srv *userService) RefreshToken(ctx context.Context, refreshToken string) (*usecase.RefreshOutput, error) {
	srv.log(ctx).Info("Attempting to refresh access token")

	subject, ok := srv.tokenService.ExtractSubject(refreshToken, entity.TokenClassRefresh)
	if !ok {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token rejected")
	}

	user, err := srv.userRepo.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Refresh token subject no longer exists", slog.Int64("userID", subject))

			return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token rejected")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	accessToken, err := srv.tokenService.Issue(user.ID, entity.TokenClassAccess)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate new access token")
	}

	return &usecase.RefreshOutput{AccessToken: accessToken}, nil
}

// CurrentUser returns the account behind an authenticated request.
func (srv *userService) CurrentUser(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("authenticated user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// hash and verify share a bounded number of slots; argon2 is memory hungry.
func (srv *userService) hash(ctx context.Context, password string) (string, error) {
	if err := srv.acquireHashSlot(ctx); err != nil {
		return "", err
	}
	defer srv.hashSlots.Release(1)

	return srv.hasher.Hash(password)
}

func (srv *userService) verify(ctx context.Context, stored, password string) (bool, bool, error) {
	if err := srv.acquireHashSlot(ctx); err != nil {
		return false, false, err
	}
	defer srv.hashSlots.Release(1)

	valid, shouldRehash := srv.hasher.Verify(stored, password)

	return valid, shouldRehash, nil
}

// verifyEqualizer spends one verify on a credential nobody owns. The credential
// is derived on first use inside the hashing slot; a failed derivation is
// returned and retried on the next call rather than cached.
func (srv *userService) verifyEqualizer(ctx context.Context, password string) error {
	if err := srv.acquireHashSlot(ctx); err != nil {
		return err
	}
	defer srv.hashSlots.Release(1)

	stored, err := srv.equalizerCredential()
	if err != nil {
		srv.log(ctx).Error("Failed to prepare timing equalizer credential", slog.Any("error", err))

		return errors.Wrap(err, "failed to prepare timing equalizer credential")
	}

	srv.hasher.Verify(stored, password)

	return nil
}

func (srv *userService) equalizerCredential() (string, error) {
	srv.equalizerMu.Lock()
	defer srv.equalizerMu.Unlock()

	if srv.equalizer != "" {
		return srv.equalizer, nil
	}

	hashed, err := srv.hasher.Hash(timingEqualizerPlaintext)
	if err != nil {
		return "", err
	}
	srv.equalizer = hashed

	return hashed, nil
}

func (srv *userService) acquireHashSlot(ctx context.Context) error {
	if err := srv.hashSlots.Acquire(ctx, 1); err != nil {
		srv.log(ctx).Warn("Gave up waiting for a password hashing slot", slog.Any("error", err))

		return domainerrors.ErrServiceBusy.WrapMessage("password hashing capacity exhausted")
	}

	return nil
}

// upgradeCredential re-hashes password under the current parameters without
// delaying the login response. Failures are only logged; the old credential
// keeps working and the upgrade is retried on the next login.
func (srv *userService) upgradeCredential(ctx context.Context, userID int64, password string) {
	log := srv.log(ctx).With(slog.Int64("userID", userID))
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), srv.rehashTimeout)

	srv.pending.Add(1)
	go func() {
		defer srv.pending.Done()
		defer cancel()

		hashed, err := srv.hash(detached, password)
		if err != nil {
			log.Error("Failed to rehash credential", slog.Any("error", err))

			return
		}

		if err := srv.userRepo.UpdatePasswordHash(detached, userID, hashed); err != nil {
			log.Error("Failed to persist upgraded credential", slog.Any("error", err))

			return
		}

		log.Info("Credential upgraded to current hashing parameters")
	}()
}

// drain waits for in-flight credential upgrades, bounded by ctx.
func (srv *userService) drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		srv.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "credential upgrades still running at shutdown")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
