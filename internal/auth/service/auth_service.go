package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlibekovAA/shotplot/backend/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/shotplot/backend/internal/common/crypto"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
	"github.com/AlibekovAA/shotplot/backend/internal/common/resilience"
	userdomain "github.com/AlibekovAA/shotplot/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/shotplot/backend/internal/user/repository"
)

var (
	errUserNotFound    = errors.New("user not found")
	errInvalidPassword = errors.New("invalid password")
)

type AuthService struct {
	repo        userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	breaker     *resilience.CircuitBreaker
	validator   credentialValidator
	log         *logger.Logger
}

type Deps struct {
	Repo        userrepo.Repository
	Hasher      commoncrypto.PasswordHasher
	IDGenerator commoncrypto.IDGenerator
	Clock       clock.Clock
	// Breaker guards the user directory. nil disables it.
	Breaker *resilience.CircuitBreaker
	Log     *logger.Logger
}

func NewAuthService(deps Deps) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = commoncrypto.NewUUIDGenerator()
	}
	return &AuthService{
		repo:        deps.Repo,
		hasher:      deps.Hasher,
		idGenerator: idGen,
		clock:       clk,
		breaker:     deps.Breaker,
		validator:   newCredentialValidator(),
		log:         deps.Log,
	}
}

// NewStoreBreaker builds the breaker used around the user directory. Lookups
// that find nothing and inserts that hit a duplicate are not failures.
func NewStoreBreaker(cfg resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	cfg.IsExpected = isExpectedStoreError
	if cfg.Name == "" {
		cfg.Name = "user_directory"
	}
	return resilience.NewCircuitBreaker(cfg)
}

type RegisterInput struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,maxbytes"`
	Email    string `validate:"max=254"`
}

type LoginInput struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,maxbytes"`
}

// Register hashes the password and stores a new user. The returned record
// is what was persisted.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (userdomain.User, error) {
	fields := logger.Fields{"username": input.Username}
	s.log.WithFields(ctx, with(fields, "register_attempt")).Info("register attempt")

	if err := s.validator.validate(input); err != nil {
		s.log.WithFields(ctx, with(fields, "register_validation_failed")).Warnf("register validation failed: %v", err)
		incrementRegistrations(resultInvalid)
		return userdomain.User{}, err
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		s.log.WithFields(ctx, with(fields, "register_hash_failed")).Errorf("register failed: password hash error: %v", err)
		incrementRegistrations(resultFailed)
		return userdomain.User{}, ErrRegistrationFailed.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, with(fields, "register_id_generation_failed")).Errorf("register failed: id generation error: %v", err)
		incrementRegistrations(resultFailed)
		return userdomain.User{}, ErrRegistrationFailed.WithCause(err)
	}

	user := userdomain.User{
		ID:           userdomain.ID(id),
		Username:     input.Username,
		PasswordHash: hash,
		Email:        input.Email,
		CreatedAt:    s.clock.Now(),
	}

	err = s.withStore(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUsernameAlreadyExists) {
			s.log.WithFields(ctx, with(fields, "register_username_exists")).Warn("register failed: already exists")
			incrementRegistrations(resultConflict)
			return userdomain.User{}, ErrUsernameTaken.WithCause(err)
		}
		s.log.WithFields(ctx, with(fields, "register_create_failed")).Errorf("register failed: %v", err)
		incrementRegistrations(resultFailed)
		return userdomain.User{}, ErrRegistrationFailed.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "register_success",
	}).Info("register success")
	incrementRegistrations(resultSuccess)

	return user, nil
}

// Login checks the credentials. Unknown user and wrong password both return
// ErrLoginFailed; only the wrapped cause tells them apart.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (userdomain.User, error) {
	fields := logger.Fields{"username": input.Username}
	s.log.WithFields(ctx, with(fields, "login_attempt")).Info("login attempt")

	if err := s.validator.validate(input); err != nil {
		s.log.WithFields(ctx, with(fields, "login_validation_failed")).Warnf("login validation failed: %v", err)
		incrementLogins(resultInvalid)
		return userdomain.User{}, ErrLoginFailed.WithCause(err)
	}

	var user userdomain.User
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByUsername(ctx, input.Username)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, with(fields, "login_user_not_found")).Warn("login failed: not found")
			incrementLogins(resultFailed)
			return userdomain.User{}, ErrLoginFailed.WithCause(fmt.Errorf("%w: %w", errUserNotFound, err))
		}
		s.log.WithFields(ctx, with(fields, "login_fetch_failed")).Errorf("login failed: %v", err)
		incrementLogins(resultUnavailable)
		return userdomain.User{}, ErrServiceUnavailable.WithCause(err)
	}

	ok, err := s.hasher.Verify(ctx, input.Password, user.PasswordHash)
	if err != nil {
		if ctx.Err() != nil {
			s.log.WithFields(ctx, with(fields, "login_verify_cancelled")).Warnf("login aborted: %v", err)
			incrementLogins(resultUnavailable)
			return userdomain.User{}, ErrServiceUnavailable.WithCause(err)
		}
		s.log.WithFields(ctx, with(fields, "login_verify_failed")).Errorf("login failed: stored hash unusable: %v", err)
		incrementLogins(resultFailed)
		return userdomain.User{}, ErrLoginFailed.WithCause(err)
	}
	if !ok {
		s.log.WithFields(ctx, with(fields, "login_invalid_password")).Warn("login failed: invalid password")
		incrementLogins(resultFailed)
		return userdomain.User{}, ErrLoginFailed.WithCause(errInvalidPassword)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")
	incrementLogins(resultSuccess)

	return user, nil
}

func (s *AuthService) withStore(ctx context.Context, fn func(context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Call(ctx, fn)
}

func with(base logger.Fields, action string) logger.Fields {
	fields := make(logger.Fields, len(base)+1)
	for k, v := range base {
		fields[k] = v
	}
	fields["action"] = action
	return fields
}
