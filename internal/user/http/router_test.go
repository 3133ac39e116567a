package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/messagely/backend/internal/common/clock"
	"github.com/messagely/backend/internal/common/config"
	"github.com/messagely/backend/internal/common/logger"
	messagedomain "github.com/messagely/backend/internal/message/domain"
	userdomain "github.com/messagely/backend/internal/user/domain"
	userhttp "github.com/messagely/backend/internal/user/http"
	userrepo "github.com/messagely/backend/internal/user/repository"
	userservice "github.com/messagely/backend/internal/user/service"
)

var joined = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// stubUserRepo serves a fixed directory of two users.
type stubUserRepo struct{}

func fixedUsers() []userdomain.User {
	return []userdomain.User{
		{
			Username:     "alice",
			PasswordHash: "$2a$04$notarealhash",
			FirstName:    "Alice",
			LastName:     "Anders",
			Phone:        "+15550000001",
			JoinedAt:     joined,
			LastLoginAt:  joined,
		},
		{
			Username:     "bob",
			PasswordHash: "$2a$04$notarealhash",
			FirstName:    "Bob",
			LastName:     "Brown",
			Phone:        "+15550000002",
			JoinedAt:     joined,
			LastLoginAt:  joined,
		},
	}
}

func (stubUserRepo) Create(ctx context.Context, user userdomain.User) error {
	return nil
}

func (stubUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	for _, u := range fixedUsers() {
		if u.Username == username {
			return u, nil
		}
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (r stubUserRepo) Get(ctx context.Context, username string) (userdomain.Public, error) {
	u, err := r.FindByUsername(ctx, username)
	if err != nil {
		return userdomain.Public{}, err
	}
	return u.Public(), nil
}

func (stubUserRepo) List(ctx context.Context) ([]userdomain.Public, error) {
	var users []userdomain.Public
	for _, u := range fixedUsers() {
		users = append(users, u.Public())
	}
	return users, nil
}

func (stubUserRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	return nil
}

type stubMessageRepo struct {
	fromFunc func(ctx context.Context, username string) ([]messagedomain.MessageWithCounterpart, error)
	toFunc   func(ctx context.Context, username string) ([]messagedomain.MessageWithCounterpart, error)
}

func (r *stubMessageRepo) MessagesFrom(ctx context.Context, username string) ([]messagedomain.MessageWithCounterpart, error) {
	if r.fromFunc != nil {
		return r.fromFunc(ctx, username)
	}
	return nil, nil
}

func (r *stubMessageRepo) MessagesTo(ctx context.Context, username string) ([]messagedomain.MessageWithCounterpart, error) {
	if r.toFunc != nil {
		return r.toFunc(ctx, username)
	}
	return nil, nil
}

type stubVerifier struct{}

// Verify accepts tokens of the form "tok-<username>".
func (stubVerifier) Verify(tokenString string) (string, error) {
	const prefix = "tok-"
	if len(tokenString) > len(prefix) && tokenString[:len(prefix)] == prefix {
		return tokenString[len(prefix):], nil
	}
	return "", errors.New("bad token")
}

type noopHasher struct{}

func (noopHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (noopHasher) Compare(hash, password string) error  { return nil }

func newTestHandler(t *testing.T, messages *stubMessageRepo) http.Handler {
	t.Helper()
	log, err := logger.New("", "test", "ERROR")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	users := userservice.NewService(stubUserRepo{}, noopHasher{}, clock.NewRealClock(), log)
	cfg := config.Config{RequestTimeout: 5 * time.Second}
	return userhttp.NewHandler(users, messages, stubVerifier{}, cfg, log)
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestListUsers_RequiresToken(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	w := doRequest(t, handler, http.MethodGet, "/api/users", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	w = doRequest(t, handler, http.MethodGet, "/api/users", "garbage")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with garbage token, got %d", w.Code)
	}
}

func TestListUsers_AnyLoggedInUser(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	w := doRequest(t, handler, http.MethodGet, "/api/users", "tok-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Users []struct {
			Username     string `json:"username"`
			FirstName    string `json:"first_name"`
			PasswordHash string `json:"password_hash"`
		} `json:"users"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Users))
	}
	for _, u := range resp.Users {
		if u.PasswordHash != "" {
			t.Errorf("listing leaked a password hash for %s", u.Username)
		}
	}
}

func TestUserDetail_Public(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	// No token at all: the detail route carries no guard.
	w := doRequest(t, handler, http.MethodGet, "/api/users/alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "alice" || resp.User.FirstName != "Alice" {
		t.Errorf("unexpected user payload: %+v", resp.User)
	}
}

func TestUserDetail_NotFound(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	w := doRequest(t, handler, http.MethodGet, "/api/users/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMessagesTo_OwnerOnly(t *testing.T) {
	sentAt := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	messages := &stubMessageRepo{
		toFunc: func(ctx context.Context, username string) ([]messagedomain.MessageWithCounterpart, error) {
			if username != "alice" {
				t.Errorf("expected query for alice, got %q", username)
			}
			return []messagedomain.MessageWithCounterpart{
				{
					ID:     1,
					Body:   "hi alice",
					SentAt: sentAt,
					Counterpart: messagedomain.Counterpart{
						Username:  "bob",
						FirstName: "Bob",
						LastName:  "Brown",
						Phone:     "+15550000002",
					},
				},
			}, nil
		},
	}
	handler := newTestHandler(t, messages)

	w := doRequest(t, handler, http.MethodGet, "/api/users/alice/to", "tok-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Messages []struct {
			ID       int64      `json:"id"`
			Body     string     `json:"body"`
			ReadAt   *time.Time `json:"read_at"`
			FromUser *struct {
				Username string `json:"username"`
			} `json:"from_user"`
			ToUser *struct {
				Username string `json:"username"`
			} `json:"to_user"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(resp.Messages))
	}

	m := resp.Messages[0]
	if m.FromUser == nil || m.FromUser.Username != "bob" {
		t.Errorf("received messages must carry the sender, got %+v", m.FromUser)
	}
	if m.ToUser != nil {
		t.Error("received messages must not carry a to_user")
	}
	if m.ReadAt != nil {
		t.Error("unread message must have null read_at")
	}
}

func TestMessagesFrom_OwnerOnly(t *testing.T) {
	messages := &stubMessageRepo{
		fromFunc: func(ctx context.Context, username string) ([]messagedomain.MessageWithCounterpart, error) {
			return []messagedomain.MessageWithCounterpart{
				{
					ID:     2,
					Body:   "hi bob",
					SentAt: time.Now(),
					Counterpart: messagedomain.Counterpart{
						Username: "bob",
					},
				},
			}, nil
		},
	}
	handler := newTestHandler(t, messages)

	w := doRequest(t, handler, http.MethodGet, "/api/users/alice/from", "tok-alice")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Messages []struct {
			FromUser *struct{} `json:"from_user"`
			ToUser   *struct {
				Username string `json:"username"`
			} `json:"to_user"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(resp.Messages))
	}
	if resp.Messages[0].ToUser == nil || resp.Messages[0].ToUser.Username != "bob" {
		t.Errorf("sent messages must carry the recipient, got %+v", resp.Messages[0].ToUser)
	}
	if resp.Messages[0].FromUser != nil {
		t.Error("sent messages must not carry a from_user")
	}
}

func TestMessageRoutes_GuardMatrix(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	testCases := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"to without token", "/api/users/alice/to", "", http.StatusUnauthorized},
		{"to wrong user", "/api/users/alice/to", "tok-bob", http.StatusForbidden},
		{"to correct user", "/api/users/alice/to", "tok-alice", http.StatusOK},
		{"from without token", "/api/users/alice/from", "", http.StatusUnauthorized},
		{"from wrong user", "/api/users/alice/from", "tok-bob", http.StatusForbidden},
		{"from correct user", "/api/users/alice/from", "tok-alice", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, handler, http.MethodGet, tc.path, tc.token)
			if w.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUnknownSubroute_NotFound(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	w := doRequest(t, handler, http.MethodGet, "/api/users/alice/unknown", "tok-alice")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListUsers_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, &stubMessageRepo{})

	w := doRequest(t, handler, http.MethodPost, "/api/users", "tok-alice")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
