package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	priv, pub, err := GenerateKeyPEM(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPEM: %v", err)
	}
	svc, err := NewAuthService(priv, pub, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := newTestService(t)
	pair, err := svc.GenerateTokenPair(42)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	access, err := svc.ValidateTokenType(pair.AccessToken, TokenTypeAccess)
	if err != nil || access.UserID != 42 {
		t.Fatalf("access claims = %+v, err = %v", access, err)
	}
	refresh, err := svc.ValidateTokenType(pair.RefreshToken, TokenTypeRefresh)
	if err != nil || refresh.ID != pair.RefreshID {
		t.Fatalf("refresh claims = %+v, err = %v", refresh, err)
	}
	if _, err := svc.ValidateTokenType(pair.RefreshToken, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestExpiredAndForeignTokensRejected(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.GenerateTokenPair(1)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.ValidateToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}

	other := newTestService(t)
	if _, err := other.ValidateToken(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token from another key accepted: %v", err)
	}
	if _, err := svc.ValidateToken(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token accepted: %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) || CheckPasswordHash("wrong", hash) {
		t.Fatal("password check mismatch")
	}
	if CheckPasswordHash("", "") {
		t.Fatal("empty hash must never match")
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	a, _ := RandomPassword(12)
	b, _ := RandomPassword(12)
	if a == b || len(a) != 16 {
		t.Fatalf("random passwords %q %q", a, b)
	}
}

func TestParseKeyPairRejectsMismatch(t *testing.T) {
	priv, _, err := GenerateKeyPEM(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPEM: %v", err)
	}
	_, otherPub, err := GenerateKeyPEM(2048)
	if err != nil {
		t.Fatalf("GenerateKeyPEM: %v", err)
	}
	if _, err := ParseKeyPair(priv, otherPub); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if _, err := ParseKeyPair(nil, otherPub); err == nil {
		t.Fatalf("expected error for missing private key")
	}
}

func TestTTLByTokenType(t *testing.T) {
	svc := newTestService(t)
	if svc.TTL(TokenTypeAccess) != time.Minute || svc.TTL(TokenTypeRefresh) != time.Hour {
		t.Fatalf("unexpected ttls %v %v", svc.TTL(TokenTypeAccess), svc.TTL(TokenTypeRefresh))
	}
}
