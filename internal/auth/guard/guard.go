package guard

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/messagely/backend/internal/common/errors"
	commonhttp "github.com/messagely/backend/internal/common/http"
	"github.com/messagely/backend/internal/common/logger"
	"github.com/messagely/backend/internal/observability/metrics"
)

// Identity is the authenticated caller, attached to the request context
// once a guard has verified a token.
type Identity struct {
	Username string
}

// Guard is one composable authorization check. Routes declare an ordered
// list of guards; a route with none is deliberately public.
type Guard interface {
	Check(r *http.Request) (Identity, error)
}

type contextKey string

const identityKey contextKey = "auth_identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// TokenVerifier checks a raw token and returns the bound username.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// LoggedIn requires a valid bearer token. Every token failure collapses
// into the same unauthorized error so callers learn nothing about why
// verification failed.
type LoggedIn struct {
	tokens TokenVerifier
	log    *logger.Logger
}

func NewLoggedIn(tokens TokenVerifier, log *logger.Logger) *LoggedIn {
	return &LoggedIn{tokens: tokens, log: log}
}

func (g *LoggedIn) Check(r *http.Request) (Identity, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		g.log.Warnf("auth failed path=%s: missing or invalid authorization header", r.URL.Path)
		metrics.GuardDenialsTotal.WithLabelValues("logged_in").Inc()
		return Identity{}, commonerrors.ErrUnauthorized
	}

	username, err := g.tokens.Verify(strings.TrimPrefix(raw, "Bearer "))
	if err != nil {
		g.log.Warnf("auth failed path=%s: %v", r.URL.Path, err)
		metrics.GuardDenialsTotal.WithLabelValues("logged_in").Inc()
		return Identity{}, commonerrors.ErrUnauthorized
	}

	return Identity{Username: username}, nil
}

// CorrectUser requires the authenticated username to match the {username}
// path segment, so only the resource owner reaches the handler. It
// composes after LoggedIn and reads the identity that guard attached.
type CorrectUser struct {
	log *logger.Logger
}

func NewCorrectUser(log *logger.Logger) *CorrectUser {
	return &CorrectUser{log: log}
}

func (g *CorrectUser) Check(r *http.Request) (Identity, error) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		// CorrectUser without a preceding LoggedIn is a wiring mistake;
		// fail closed.
		g.log.Errorf("correct-user guard reached without identity path=%s", r.URL.Path)
		metrics.GuardDenialsTotal.WithLabelValues("correct_user").Inc()
		return Identity{}, commonerrors.ErrUnauthorized
	}

	target, ok := UsernameFromPath(r.URL.Path)
	if !ok {
		metrics.GuardDenialsTotal.WithLabelValues("correct_user").Inc()
		return Identity{}, commonerrors.ErrForbidden
	}

	if id.Username != target {
		g.log.Warnf("forbidden path=%s: authenticated as %q", r.URL.Path, id.Username)
		metrics.GuardDenialsTotal.WithLabelValues("correct_user").Inc()
		return Identity{}, commonerrors.ErrForbidden
	}

	return id, nil
}

const usersPathPrefix = "/api/users/"

// UsernameFromPath extracts the {username} segment of a users route:
// /api/users/alice/to -> alice.
func UsernameFromPath(path string) (string, bool) {
	if !strings.HasPrefix(path, usersPathPrefix) {
		return "", false
	}

	remaining := strings.TrimPrefix(path, usersPathPrefix)
	parts := strings.Split(remaining, "/")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0], true
	}

	return "", false
}

// Protect applies guards in declared order, stashing each successful
// identity in the request context before the next guard or the handler
// runs.
func Protect(log *logger.Logger, guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range guards {
				id, err := g.Check(r)
				if err != nil {
					commonhttp.HandleError(w, r, err, log)
					return
				}
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
