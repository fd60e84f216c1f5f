package jwt

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		Issuer:        "authcore-test",
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{RefreshSecret: []byte("r")}); err == nil {
		t.Fatal("expected error for missing access secret")
	}
	if _, err := NewManager(Config{AccessSecret: []byte("a")}); err == nil {
		t.Fatal("expected error for missing refresh secret")
	}
	m := newTestManager(t)
	if m.config.AccessTTL != DefaultAccessTTL {
		t.Fatalf("expected default access TTL, got %v", m.config.AccessTTL)
	}
	if m.config.RefreshTTL != DefaultRefreshTTL {
		t.Fatalf("expected default refresh TTL, got %v", m.config.RefreshTTL)
	}
}

func TestIssueAndParseAccess(t *testing.T) {
	m := newTestManager(t)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	pair, err := m.Issue(42, "user@example.com", "User Name", false)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if pair.RefreshToken != "" {
		t.Fatal("expected no refresh token when not requested")
	}

	wantExpiry := issued.Add(DefaultAccessTTL).UnixMilli()
	if pair.ExpiresAt != wantExpiry {
		t.Fatalf("expected ExpiresAt %d, got %d", wantExpiry, pair.ExpiresAt)
	}

	m.now = time.Now
	claims, err := m.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess error: %v", err)
	}
	if claims.Email != "user@example.com" || claims.Name != "User Name" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("expected subject 42, got %d (err %v)", id, err)
	}
	if got := claims.ExpiresAt.UnixMilli(); got/1000 != wantExpiry/1000 {
		t.Fatalf("expected claim expiry %d, got %d", wantExpiry, got)
	}
}

func TestIssueWithRefresh(t *testing.T) {
	m := newTestManager(t)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	pair, err := m.Issue(7, "user@example.com", "User Name", true)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if pair.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}

	m.now = time.Now
	claims, err := m.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh error: %v", err)
	}
	wantExpiry := issued.Add(DefaultRefreshTTL).Unix()
	if claims.ExpiresAt.Unix() != wantExpiry {
		t.Fatalf("expected refresh expiry %d, got %d", wantExpiry, claims.ExpiresAt.Unix())
	}
}

func TestSecretsDoNotCrossVerify(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.Issue(1, "user@example.com", "User", true)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := m.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for refresh token on access path, got %v", err)
	}
	if _, err := m.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for access token on refresh path, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := m.Issue(1, "user@example.com", "User", false)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	m.now = time.Now
	if _, err := m.ParseAccess(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ParseAccess("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
