package service

import (
	"context"
	"errors"

	"github.com/messagely/backend/internal/common/clock"
	commoncrypto "github.com/messagely/backend/internal/common/crypto"
	"github.com/messagely/backend/internal/common/db"
	commonerrors "github.com/messagely/backend/internal/common/errors"
	"github.com/messagely/backend/internal/common/logger"
	"github.com/messagely/backend/internal/user/domain"
	userrepo "github.com/messagely/backend/internal/user/repository"
)

// Service is the credential store: the single owner of user records and
// the only component that ever sees a password or its hash.
type Service struct {
	repo   userrepo.Repository
	hasher commoncrypto.PasswordHasher
	clock  clock.Clock
	log    *logger.Logger
}

func NewService(
	repo userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		clock:  clk,
		log:    log,
	}
}

type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register hashes the password and persists a new user. The storage
// uniqueness constraint decides the winner of concurrent registrations
// for the same username.
func (s *Service) Register(ctx context.Context, input RegisterInput) (domain.Public, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if err := validateRegistration(input); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return domain.Public{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return domain.Public{}, commonerrors.ErrInternalError.WithCause(err)
	}

	now := s.clock.Now()
	user := domain.User{
		Username:     input.Username,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		JoinedAt:     now,
		LastLoginAt:  now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrUsernameAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_username_exists",
			}).Warn("register failed: already exists")
			return domain.Public{}, commonerrors.ErrUsernameTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_create_failed",
		}).Errorf("register failed: %v", err)
		return domain.Public{}, commonerrors.ErrStoreUnavailable.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"action":   "register_success",
	}).Info("register success")

	return user.Public(), nil
}

// Authenticate reports whether username/password is a valid pair. A
// missing user and a wrong password are indistinguishable in the result,
// so callers cannot enumerate usernames. Only store failures produce an
// error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return false, nil
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "authenticate_fetch_failed",
		}).Errorf("authenticate failed: %v", err)
		return false, commonerrors.ErrStoreUnavailable.WithCause(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return false, nil
	}

	return true, nil
}

// UpdateLoginTimestamp sets last_login_at to now. Absent users are
// tolerated silently; callers treat this as best-effort.
func (s *Service) UpdateLoginTimestamp(ctx context.Context, username string) error {
	if err := s.repo.UpdateLastLogin(ctx, username, s.clock.Now()); err != nil {
		if db.IsTransient(err) {
			return commonerrors.ErrStoreUnavailable.WithCause(err)
		}
		return commonerrors.ErrInternalError.WithCause(err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, username string) (domain.Public, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return domain.Public{}, commonerrors.ErrUserNotFound
		}
		return domain.Public{}, commonerrors.ErrStoreUnavailable.WithCause(err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Public, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, commonerrors.ErrStoreUnavailable.WithCause(err)
	}
	return users, nil
}
