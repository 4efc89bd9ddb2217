package web

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diasporabridge/bridge/internal/core"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestJWTAuthAuthorize(t *testing.T) {
	auth := NewJWTAuth("admin-secret")
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	t.Run("a valid token yields its subject", func(t *testing.T) {
		token := signHS256(t, "admin-secret", jwt.MapClaims{"sub": "ops@bridge", "exp": future})

		principal, err := auth.Authorize(context.Background(), token)
		if err != nil {
			t.Fatalf("Authorize failed: %v", err)
		}
		if principal.Subject != "ops@bridge" {
			t.Errorf("subject = %q", principal.Subject)
		}
	})

	t.Run("an empty credential is rejected", func(t *testing.T) {
		if _, err := auth.Authorize(context.Background(), ""); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("a token signed with another secret is rejected", func(t *testing.T) {
		token := signHS256(t, "other-secret", jwt.MapClaims{"sub": "ops", "exp": future})

		if _, err := auth.Authorize(context.Background(), token); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		token := signHS256(t, "admin-secret", jwt.MapClaims{"sub": "ops", "exp": past})

		if _, err := auth.Authorize(context.Background(), token); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("a token without a subject is rejected", func(t *testing.T) {
		token := signHS256(t, "admin-secret", jwt.MapClaims{"exp": future})

		if _, err := auth.Authorize(context.Background(), token); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("the none algorithm is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "ops", "exp": future})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build unsigned token: %v", err)
		}

		if _, err := auth.Authorize(context.Background(), unsigned); !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}
