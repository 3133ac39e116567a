package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/messagely/backend/internal/common/clock"
	"github.com/messagely/backend/internal/observability/metrics"
)

// Verification failures. The authorization layer collapses all of these
// into a single unauthorized response; the distinction exists for logging
// and tests.
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrBadSignature   = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenClaims    = errors.New("token is missing required claims")
)

const usernameClaim = "usr"

// Service issues and verifies stateless HS256 identity tokens bound to the
// process-wide secret. It keeps no state beyond the secret, so a single
// instance is safe for concurrent use.
//
// Issued tokens carry no expiry claim. Verify still honors an exp claim if
// a token presents one, rejecting it with ErrTokenExpired once stale.
type Service struct {
	secret []byte
	clock  clock.Clock
}

func NewService(secret string, clk clock.Clock) *Service {
	return &Service{
		secret: []byte(secret),
		clock:  clk,
	}
}

// Issue signs an identity assertion for username. Same input and same
// secret produce a verifiable token; without the secret the signature is
// not forgeable.
func (s *Service) Issue(username string) (string, error) {
	claims := jwt.MapClaims{
		usernameClaim: username,
		"iat":         s.clock.Now().Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	metrics.TokensIssued.Inc()
	return tokenString, nil
}

// Verify parses and checks tokenString under the current secret and
// returns the bound username.
func (s *Service) Verify(tokenString string) (string, error) {
	metrics.TokenVerificationsTotal.Inc()

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrBadSignature
		}
		return s.secret, nil
	})
	if err != nil {
		metrics.TokenVerificationsFailed.Inc()
		return "", classifyParseError(err)
	}
	if !parsed.Valid {
		metrics.TokenVerificationsFailed.Inc()
		return "", ErrBadSignature
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		metrics.TokenVerificationsFailed.Inc()
		return "", ErrTokenClaims
	}

	username, _ := mapClaims[usernameClaim].(string)
	if username == "" {
		metrics.TokenVerificationsFailed.Inc()
		return "", ErrTokenClaims
	}

	return username, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrBadSignature
	}
}
