package stores

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*CodeStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCodeStore(client, "test"), mr
}

func TestIssueProducesSixDigitCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		code, err := store.Issue(ctx, PurposeEmailVerify, "user@example.com")
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestValidateConsumesOnMatch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeEmailVerify, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	outcome, err := store.Validate(ctx, PurposeEmailVerify, "user@example.com", code)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != Consumed {
		t.Fatalf("expected Consumed, got %v", outcome)
	}

	// Consumed exactly once.
	outcome, err = store.Validate(ctx, PurposeEmailVerify, "user@example.com", code)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != NotFound {
		t.Fatalf("expected NotFound after consumption, got %v", outcome)
	}
}

func TestValidateWrongCodeKeepsRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeForgotPassword, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	outcome, err := store.Validate(ctx, PurposeForgotPassword, "user@example.com", wrong)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != Invalid {
		t.Fatalf("expected Invalid, got %v", outcome)
	}

	// Failed attempt must not burn the live code.
	outcome, err = store.Validate(ctx, PurposeForgotPassword, "user@example.com", code)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != Consumed {
		t.Fatalf("expected Consumed after failed attempt, got %v", outcome)
	}
}

func TestValidateExpired(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeChangePassword, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(CodeTTL + time.Minute) }

	outcome, err := store.Validate(ctx, PurposeChangePassword, "user@example.com", code)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != Expired {
		t.Fatalf("expected Expired, got %v", outcome)
	}
}

func TestValidateMissingRecord(t *testing.T) {
	store, _ := newTestStore(t)

	outcome, err := store.Validate(context.Background(), PurposeEmailVerify, "nobody@example.com", "123456")
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != NotFound {
		t.Fatalf("expected NotFound, got %v", outcome)
	}
}

func TestIssueReplacesPriorCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, PurposeEmailVerify, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	second, err := store.Issue(ctx, PurposeEmailVerify, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if first != second {
		outcome, err := store.Validate(ctx, PurposeEmailVerify, "user@example.com", first)
		if err != nil {
			t.Fatalf("Validate error: %v", err)
		}
		if outcome != Invalid {
			t.Fatalf("expected stale code to be Invalid, got %v", outcome)
		}
	}

	outcome, err := store.Validate(ctx, PurposeEmailVerify, "user@example.com", second)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != Consumed {
		t.Fatalf("expected latest code to be Consumed, got %v", outcome)
	}
}

func TestPurposesAreDisjoint(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, PurposeEmailVerify, "user@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	outcome, err := store.Validate(ctx, PurposeForgotPassword, "user@example.com", code)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if outcome != NotFound {
		t.Fatalf("expected NotFound across purposes, got %v", outcome)
	}
}

func TestResetProofLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.IssueProof(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IssueProof error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty proof token")
	}

	outcome, err := store.ConsumeProof(ctx, "user@example.com", "wrong-token")
	if err != nil {
		t.Fatalf("ConsumeProof error: %v", err)
	}
	if outcome != Invalid {
		t.Fatalf("expected Invalid for wrong proof, got %v", outcome)
	}

	outcome, err = store.ConsumeProof(ctx, "user@example.com", token)
	if err != nil {
		t.Fatalf("ConsumeProof error: %v", err)
	}
	if outcome != Consumed {
		t.Fatalf("expected Consumed, got %v", outcome)
	}

	outcome, err = store.ConsumeProof(ctx, "user@example.com", token)
	if err != nil {
		t.Fatalf("ConsumeProof error: %v", err)
	}
	if outcome != NotFound {
		t.Fatalf("expected NotFound after consumption, got %v", outcome)
	}
}

func TestProofExpiresWithRedisTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.IssueProof(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IssueProof error: %v", err)
	}

	mr.FastForward(ProofTTL + time.Minute)

	outcome, err := store.ConsumeProof(ctx, "user@example.com", token)
	if err != nil {
		t.Fatalf("ConsumeProof error: %v", err)
	}
	if outcome != NotFound {
		t.Fatalf("expected NotFound after TTL, got %v", outcome)
	}
}
