package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/wibutime/authcore/internal/stores"
)

func TestForgotPasswordResetFlow(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	delivered := env.notifier.last(t)
	if delivered.Purpose != stores.PurposeForgotPassword {
		t.Fatalf("unexpected purpose: %v", delivered.Purpose)
	}

	proof, err := engine.VerifyForgotPasswordCode(ctx, "alice@example.com", delivered.Code)
	if err != nil {
		t.Fatalf("VerifyForgotPasswordCode error: %v", err)
	}
	if proof == "" {
		t.Fatal("expected reset proof")
	}

	if err := engine.ResetPassword(ctx, "alice@example.com", proof, encode("newsecret9")); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}

	// Old password no longer works, new one does.
	if _, err := engine.Login(ctx, "alice@example.com", encode("secret123")); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", encode("newsecret9")); err != nil {
		t.Fatalf("expected new password to log in, got %v", err)
	}
}

func TestResetPasswordRequiresProof(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	code := env.notifier.last(t).Code

	// Without the verify step there is no proof; the commit must fail and
	// the stored credential must survive.
	if err := engine.ResetPassword(ctx, "alice@example.com", "made-up-proof", encode("newsecret9")); !errors.Is(err, ErrResetProofInvalid) {
		t.Fatalf("expected ErrResetProofInvalid, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", encode("secret123")); err != nil {
		t.Fatalf("expected original password intact, got %v", err)
	}

	proof, err := engine.VerifyForgotPasswordCode(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("VerifyForgotPasswordCode error: %v", err)
	}

	if err := engine.ResetPassword(ctx, "alice@example.com", proof, encode("newsecret9")); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}

	// The proof is single-use.
	if err := engine.ResetPassword(ctx, "alice@example.com", proof, encode("another99")); !errors.Is(err, ErrResetProofInvalid) {
		t.Fatalf("expected proof replay rejected, got %v", err)
	}
}

func TestVerifyForgotPasswordCodeWrongCode(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	code := env.notifier.last(t).Code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	if _, err := engine.VerifyForgotPasswordCode(ctx, "alice@example.com", wrong); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
	if _, err := engine.VerifyForgotPasswordCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("expected correct code to verify after failed attempt, got %v", err)
	}
}

func TestResetPasswordPolicy(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "alice@example.com", "secret123")

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	proof, err := engine.VerifyForgotPasswordCode(ctx, "alice@example.com", env.notifier.last(t).Code)
	if err != nil {
		t.Fatalf("VerifyForgotPasswordCode error: %v", err)
	}

	if err := engine.ResetPassword(ctx, "alice@example.com", proof, encode("tiny")); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}

	// A policy rejection must not burn the proof.
	if err := engine.ResetPassword(ctx, "alice@example.com", proof, encode("newsecret9")); err != nil {
		t.Fatalf("expected proof to survive policy rejection, got %v", err)
	}
}

func TestForgotPasswordUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.ForgotPassword(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
