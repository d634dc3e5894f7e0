package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/shotplot/backend/internal/auth/service"
	"github.com/AlibekovAA/shotplot/backend/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/shotplot/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
	"github.com/AlibekovAA/shotplot/backend/internal/common/resilience"
	userdomain "github.com/AlibekovAA/shotplot/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/shotplot/backend/internal/user/repository"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *service.AuthService
	repo   *mockUserRepo
	hasher *mockHasher
	ids    *mockIDGenerator
	logs   *bytes.Buffer
}

func setupAuthService(t *testing.T, breaker *resilience.CircuitBreaker) fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	f := fixture{
		repo:   &mockUserRepo{},
		hasher: &mockHasher{},
		ids:    &mockIDGenerator{},
		logs:   logs,
	}
	f.svc = service.NewAuthService(service.Deps{
		Repo:        f.repo,
		Hasher:      f.hasher,
		IDGenerator: f.ids,
		Clock:       clock.NewMockClock(fixedNow),
		Breaker:     breaker,
		Log:         logger.NewWithWriter(logs, "test", "DEBUG"),
	})
	return f
}

func TestAuthService_Register_Success(t *testing.T) {
	f := setupAuthService(t, nil)

	user, err := f.svc.Register(context.Background(), service.RegisterInput{
		Username: "alice",
		Password: "s3cret",
		Email:    "a@x.io",
	})
	require.NoError(t, err)

	assert.Equal(t, userdomain.User{
		ID:           "user-123",
		Username:     "alice",
		PasswordHash: "hashed:s3cret",
		Email:        "a@x.io",
		CreatedAt:    fixedNow,
	}, user)
	require.Len(t, f.repo.created, 1)
	assert.NotEqual(t, "s3cret", f.repo.created[0].PasswordHash)
	assert.Contains(t, f.logs.String(), "register_success")
}

func TestAuthService_Register_EmailNotValidated(t *testing.T) {
	f := setupAuthService(t, nil)

	user, err := f.svc.Register(context.Background(), service.RegisterInput{
		Username: "alice",
		Password: "pw",
		Email:    "not an email",
	})
	require.NoError(t, err)
	assert.Equal(t, "not an email", user.Email)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   service.RegisterInput
		message string
	}{
		{"empty username", service.RegisterInput{Password: "pw"}, "Username is required"},
		{"empty password", service.RegisterInput{Username: "bob"}, "Password is required"},
		{"long username", service.RegisterInput{Username: strings.Repeat("u", 65), Password: "pw"}, "Username must be at most 64 characters"},
		{"long password", service.RegisterInput{Username: "bob", Password: strings.Repeat("p", 73)}, "Password must be at most 72 bytes"},
		{"long email", service.RegisterInput{Username: "bob", Password: "pw", Email: strings.Repeat("e", 255)}, "Email must be at most 254 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthService(t, nil)

			_, err := f.svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, service.ErrValidation)

			de, ok := commonerrors.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, 400, de.HTTPStatus())
			assert.Equal(t, tt.message, de.Message())
			assert.Empty(t, f.repo.created)
		})
	}
}

func TestAuthService_Register_PasswordByteLimitCountsBytes(t *testing.T) {
	f := setupAuthService(t, nil)

	// 36 two-byte runes: 72 bytes, accepted.
	_, err := f.svc.Register(context.Background(), service.RegisterInput{Username: "a", Password: strings.Repeat("é", 36)})
	require.NoError(t, err)

	// 37 two-byte runes: 74 bytes, rejected even though it is only 37 characters.
	_, err = f.svc.Register(context.Background(), service.RegisterInput{Username: "b", Password: strings.Repeat("é", 37)})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	f := setupAuthService(t, nil)
	f.repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		return userrepo.ErrUsernameAlreadyExists
	}

	_, err := f.svc.Register(context.Background(), service.RegisterInput{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, service.ErrUsernameTaken)

	de, _ := commonerrors.AsDomainError(err)
	assert.Equal(t, 409, de.HTTPStatus())
}

func TestAuthService_Register_PersistenceFailure(t *testing.T) {
	f := setupAuthService(t, nil)
	f.repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		return errors.New("connection reset")
	}

	_, err := f.svc.Register(context.Background(), service.RegisterInput{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, service.ErrRegistrationFailed)

	de, _ := commonerrors.AsDomainError(err)
	assert.Equal(t, 500, de.HTTPStatus())
	assert.Equal(t, "Failed to register user", de.Message())
}

func TestAuthService_Register_HashFailureDoesNotPersist(t *testing.T) {
	f := setupAuthService(t, nil)
	f.hasher.hashFunc = func(ctx context.Context, password string) (string, error) {
		return "", errors.New("hash failed")
	}

	_, err := f.svc.Register(context.Background(), service.RegisterInput{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, service.ErrRegistrationFailed)
	assert.Empty(t, f.repo.created)
}

func TestAuthService_Register_IDFailureDoesNotPersist(t *testing.T) {
	f := setupAuthService(t, nil)
	f.ids.newIDFunc = func() (string, error) {
		return "", errors.New("entropy")
	}

	_, err := f.svc.Register(context.Background(), service.RegisterInput{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, service.ErrRegistrationFailed)
	assert.Empty(t, f.repo.created)
}

func TestAuthService_Login_Success(t *testing.T) {
	f := setupAuthService(t, nil)
	f.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{ID: "user-123", Username: username, PasswordHash: "hashed:pw"}, nil
	}

	user, err := f.svc.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, userdomain.ID("user-123"), user.ID)
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	notFound := setupAuthService(t, nil)
	notFound.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}

	wrongPassword := setupAuthService(t, nil)
	wrongPassword.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{Username: username, PasswordHash: "hashed:right"}, nil
	}

	_, errA := notFound.svc.Login(context.Background(), service.LoginInput{Username: "ghost", Password: "pw"})
	_, errB := wrongPassword.svc.Login(context.Background(), service.LoginInput{Username: "alice", Password: "wrong"})

	for _, err := range []error{errA, errB} {
		require.ErrorIs(t, err, service.ErrLoginFailed)
		de, _ := commonerrors.AsDomainError(err)
		assert.Equal(t, 401, de.HTTPStatus())
		assert.Equal(t, "Login failed", de.Message())
	}

	assert.Contains(t, errA.Error(), "user not found")
	assert.Contains(t, errB.Error(), "invalid password")
	assert.Contains(t, notFound.logs.String(), "login_user_not_found")
	assert.Contains(t, wrongPassword.logs.String(), "login_invalid_password")
}

func TestAuthService_Login_ValidationFailureIsAuthFailure(t *testing.T) {
	f := setupAuthService(t, nil)

	_, err := f.svc.Login(context.Background(), service.LoginInput{Username: "", Password: "pw"})
	assert.ErrorIs(t, err, service.ErrLoginFailed)
}

func TestAuthService_Login_StoreFaultIsUnavailable(t *testing.T) {
	f := setupAuthService(t, nil)
	f.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{}, errors.New("db down")
	}

	_, err := f.svc.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, service.ErrServiceUnavailable)
	de, _ := commonerrors.AsDomainError(err)
	assert.Equal(t, 503, de.HTTPStatus())
}

func TestAuthService_Login_MalformedStoredHash(t *testing.T) {
	f := setupAuthService(t, nil)
	f.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{Username: username, PasswordHash: "garbage"}, nil
	}
	f.hasher.verifyFunc = func(ctx context.Context, password, hash string) (bool, error) {
		return false, errors.New("invalid stored hash")
	}

	_, err := f.svc.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, service.ErrLoginFailed)
}

func TestAuthService_BreakerOpensOnStoreFaults(t *testing.T) {
	breaker := service.NewStoreBreaker(resilience.CircuitBreakerConfig{
		Threshold:  2,
		ResetAfter: time.Minute,
	})
	f := setupAuthService(t, breaker)

	var calls atomic.Int32
	f.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		calls.Add(1)
		return userdomain.User{}, errors.New("db down")
	}

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"})
		require.ErrorIs(t, err, service.ErrServiceUnavailable)
	}

	_, err := f.svc.Login(context.Background(), service.LoginInput{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, service.ErrServiceUnavailable)
	assert.ErrorIs(t, err, commonerrors.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAuthService_BreakerIgnoresNotFound(t *testing.T) {
	breaker := service.NewStoreBreaker(resilience.CircuitBreakerConfig{
		Threshold:  1,
		ResetAfter: time.Minute,
	})
	f := setupAuthService(t, breaker)
	f.repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(context.Background(), service.LoginInput{Username: "ghost", Password: "pw"})
		require.ErrorIs(t, err, service.ErrLoginFailed)
	}
	assert.False(t, breaker.IsOpen())
}

func TestAuthService_RegisterThenLogin_WithRealComponents(t *testing.T) {
	repo := userrepo.NewMemoryRepository()
	svc := service.NewAuthService(service.Deps{
		Repo:   repo,
		Hasher: commoncrypto.NewBcryptHasher(4, 4),
		Log:    logger.NewWithWriter(&bytes.Buffer{}, "test", "ERROR"),
	})
	ctx := context.Background()

	user, err := svc.Register(ctx, service.RegisterInput{Username: "alice", Password: "s3cret", Email: "a@x.io"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NotEmpty(t, user.ID)

	_, err = svc.Login(ctx, service.LoginInput{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, service.LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrLoginFailed)
}

func TestAuthService_ConcurrentRegisterSameUsername(t *testing.T) {
	repo := userrepo.NewMemoryRepository()
	svc := service.NewAuthService(service.Deps{
		Repo:   repo,
		Hasher: commoncrypto.NewBcryptHasher(4, 4),
		Log:    logger.NewWithWriter(&bytes.Buffer{}, "test", "ERROR"),
	})

	const n = 8
	var wg sync.WaitGroup
	var ok, taken atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), service.RegisterInput{Username: "dup", Password: "pw"})
			if err == nil {
				ok.Add(1)
			} else if errors.Is(err, service.ErrUsernameTaken) {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), taken.Load())
	assert.Equal(t, 1, repo.Len())
}
