package token_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/messagely/backend/internal/common/clock"
	"github.com/messagely/backend/internal/token"
)

const testSecret = "test-secret-key-0123456789abcdef-xyz"

func newService(t *testing.T) *token.Service {
	t.Helper()
	mockClock := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return token.NewService(testSecret, mockClock)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newService(t)

	usernames := []string{"alice", "bob", "user_with-chars123"}
	for _, username := range usernames {
		t.Run(username, func(t *testing.T) {
			issued, err := svc.Issue(username)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}

			got, err := svc.Verify(issued)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if got != username {
				t.Errorf("expected username %q, got %q", username, got)
			}
		})
	}
}

func TestTokenService_Verify_Malformed(t *testing.T) {
	svc := newService(t)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "aaaa.bbbb"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(tc.token)
			if !errors.Is(err, token.ErrTokenMalformed) {
				t.Errorf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestTokenService_Verify_TamperedSignature(t *testing.T) {
	svc := newService(t)

	issued, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(issued, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(tampered)
	if !errors.Is(err, token.ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestTokenService_Verify_WrongKey(t *testing.T) {
	svc := newService(t)
	other := token.NewService("another-secret-key-with-enough-bytes", clock.NewRealClock())

	issued, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = svc.Verify(issued)
	if !errors.Is(err, token.ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestTokenService_Verify_WrongSigningMethod(t *testing.T) {
	svc := newService(t)

	// Signed with HS512 under the right secret: still rejected.
	claims := jwt.MapClaims{"usr": "alice"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestTokenService_Verify_MissingUsernameClaim(t *testing.T) {
	svc := newService(t)

	claims := jwt.MapClaims{"iat": time.Now().Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrTokenClaims) {
		t.Errorf("expected ErrTokenClaims, got %v", err)
	}
}

func TestTokenService_Verify_HonorsForeignExpiry(t *testing.T) {
	svc := newService(t)

	// Issued tokens carry no exp, but a validly signed token that does is
	// still rejected once stale.
	claims := jwt.MapClaims{
		"usr": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(signed)
	if !errors.Is(err, token.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_IssuedTokenHasNoExpiry(t *testing.T) {
	svc := newService(t)

	issued, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parsed, err := jwt.Parse(issued, func(tok *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	mapClaims := parsed.Claims.(jwt.MapClaims)
	if _, hasExp := mapClaims["exp"]; hasExp {
		t.Error("issued token must not carry an exp claim")
	}
	if _, hasIat := mapClaims["iat"]; !hasIat {
		t.Error("issued token should carry an iat claim")
	}
}
