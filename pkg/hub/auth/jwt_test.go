package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "test"})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewJWTService(JWTConfig{Secret: "short"})
		if !errors.Is(err, ErrInvalidSecretLength) {
			t.Errorf("got %v, want ErrInvalidSecretLength", err)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		svc := newTestJWTService(t)
		if svc.GetAccessTokenDuration() != 15*time.Minute {
			t.Errorf("got access duration %v", svc.GetAccessTokenDuration())
		}
		if svc.GetRefreshTokenDuration() != 7*24*time.Hour {
			t.Errorf("got refresh duration %v", svc.GetRefreshTokenDuration())
		}
	})
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := newTestJWTService(t)
	user := &models.User{ID: "user-123", Username: "alice", Role: "admin"}

	pair, err := svc.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("failed to generate tokens: %v", err)
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("got token type %q", pair.TokenType)
	}

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("failed to validate access token: %v", err)
	}
	if claims.UserID != "user-123" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.IsAdmin() {
		t.Error("expected admin claims")
	}

	if _, err := svc.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := svc.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Errorf("failed to validate refresh token: %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestJWTService(t)

	if _, err := svc.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}

	// Token signed with a different secret.
	other, err := NewJWTService(JWTConfig{Secret: "another-secret-that-is-also-32-chars!!"})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	pair, err := other.GenerateTokenPair(&models.User{ID: "u", Username: "bob", Role: "user"})
	if err != nil {
		t.Fatalf("failed to generate tokens: %v", err)
	}
	if _, err := svc.ValidateToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestAPITokenHelpers(t *testing.T) {
	secret, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if !LooksLikeAPIToken(secret) {
		t.Errorf("generated token %q missing prefix", secret)
	}

	hash := HashAPIToken(secret)
	if len(hash) != 64 {
		t.Errorf("got hash length %d, want 64", len(hash))
	}
	if hash != HashAPIToken(secret) {
		t.Error("hash not deterministic")
	}
	if hash == HashAPIToken(secret+"x") {
		t.Error("distinct secrets hashed equal")
	}
}
