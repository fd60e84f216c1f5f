package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/wibutime/authcore/internal/stores"
)

func TestChangePasswordFlow(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	if err := engine.RequestPasswordChange(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordChange error: %v", err)
	}
	delivered := env.notifier.last(t)
	if delivered.Purpose != stores.PurposeChangePassword {
		t.Fatalf("unexpected purpose: %v", delivered.Purpose)
	}

	if err := engine.VerifyChangePasswordCode(ctx, "alice@example.com", delivered.Code); err != nil {
		t.Fatalf("VerifyChangePasswordCode error: %v", err)
	}

	if err := engine.ChangePassword(ctx, "alice@example.com", encode("secret123"), encode("newsecret9")); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	if _, err := engine.Login(ctx, "alice@example.com", encode("newsecret9")); err != nil {
		t.Fatalf("expected new password to log in, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", encode("secret123")); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	err := engine.ChangePassword(ctx, "alice@example.com", encode("not-the-old"), encode("newsecret9"))
	if !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}

	// No mutation on mismatch.
	if _, err := engine.Login(ctx, "alice@example.com", encode("secret123")); err != nil {
		t.Fatalf("expected original password intact, got %v", err)
	}
}

func TestChangePasswordPolicy(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	err := engine.ChangePassword(ctx, "alice@example.com", encode("secret123"), encode("tiny"))
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
}

func TestVerifyChangePasswordCodeSingleUse(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	if err := engine.RequestPasswordChange(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordChange error: %v", err)
	}
	code := env.notifier.last(t).Code

	if err := engine.VerifyChangePasswordCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("VerifyChangePasswordCode error: %v", err)
	}
	if err := engine.VerifyChangePasswordCode(ctx, "alice@example.com", code); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound on replay, got %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.ChangePassword(context.Background(), "ghost@example.com", encode("whatever9"), encode("newsecret9"))
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
