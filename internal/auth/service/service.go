package service

import (
	"context"

	"github.com/messagely/backend/internal/common/constants"
	commonerrors "github.com/messagely/backend/internal/common/errors"
	"github.com/messagely/backend/internal/common/logger"
	"github.com/messagely/backend/internal/observability/metrics"
	userdomain "github.com/messagely/backend/internal/user/domain"
	userservice "github.com/messagely/backend/internal/user/service"
)

// CredentialStore is the slice of the user service the auth flow needs.
type CredentialStore interface {
	Register(ctx context.Context, input userservice.RegisterInput) (userdomain.Public, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	UpdateLoginTimestamp(ctx context.Context, username string) error
}

// TokenIssuer produces a signed identity token for a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

type AuthService struct {
	users  CredentialStore
	tokens TokenIssuer
	log    *logger.Logger
}

func NewAuthService(users CredentialStore, tokens TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
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

type LoginInput struct {
	Username string
	Password string
}

// Register creates the user and logs them in by issuing a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	user, err := s.users.Register(ctx, userservice.RegisterInput{
		Username:  input.Username,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	})
	if err != nil {
		return "", err
	}

	tokenString, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_token_issue_failed",
		}).Errorf("register failed: token issue error: %v", err)
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	metrics.RegistrationsTotal.Inc()
	return tokenString, nil
}

// Login verifies the credentials and issues a token. Failure is a uniform
// invalid-credentials error regardless of whether the username existed.
// The last-login timestamp update is detached and best-effort: it may
// complete after the response is sent, and its failure never affects the
// login result.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "login_attempt",
	}).Info("login attempt")

	ok, err := s.users.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_store_failed",
		}).Errorf("login failed: %v", err)
		return "", err
	}
	if !ok {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_invalid_credentials",
		}).Warn("login failed: invalid credentials")
		metrics.LoginFailuresTotal.Inc()
		return "", commonerrors.ErrInvalidCredentials
	}

	tokenString, err := s.tokens.Issue(input.Username)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	go s.updateLoginTimestamp(input.Username)

	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "login_success",
	}).Info("login success")

	metrics.LoginsTotal.Inc()
	return tokenString, nil
}

func (s *AuthService) updateLoginTimestamp(username string) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.LastLoginUpdateTimeout)
	defer cancel()

	if err := s.users.UpdateLoginTimestamp(ctx, username); err != nil {
		metrics.LastLoginUpdateFailures.Inc()
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "last_login_update_failed",
		}).Warnf("best-effort last login update failed: %v", err)
	}
}
