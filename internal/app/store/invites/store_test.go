package invitestore_test

import (
	"errors"
	"sync"
	"testing"

	invitestore "github.com/dalemusser/taskhive/internal/app/store/invites"
	"github.com/dalemusser/taskhive/internal/app/system/indexes"
	"github.com/dalemusser/taskhive/internal/testutil"
)

func setup(t *testing.T) *invitestore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.Ensure(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return invitestore.New(db)
}

func TestIssue_ReturnsToken(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Issue(ctx, "owner@x.com", "Bea", "bea@x.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(token) != invitestore.TokenLength*2 {
		t.Errorf("token length: got %d hex chars, want %d", len(token), invitestore.TokenLength*2)
	}

	p, err := store.FindByToken(ctx, token)
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if p.Email != "bea@x.com" {
		t.Errorf("email: got %q, want %q", p.Email, "bea@x.com")
	}
	if p.InvitedBy != "owner@x.com" {
		t.Errorf("invited_by: got %q, want %q", p.InvitedBy, "owner@x.com")
	}
}

func TestIssue_NormalizesEmail(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Issue(ctx, "Owner@X.com", "Bea", "  BEA@X.COM ")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	p, err := store.FindByToken(ctx, token)
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if p.Email != "bea@x.com" {
		t.Errorf("email not normalized: got %q", p.Email)
	}
}

func TestIssue_DuplicateEmailConflicts(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Issue(ctx, "owner@x.com", "Bea", "bea@x.com"); err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}

	_, err := store.Issue(ctx, "owner@x.com", "Bea Again", "bea@x.com")
	if !errors.Is(err, invitestore.ErrDuplicateInvite) {
		t.Errorf("expected ErrDuplicateInvite, got %v", err)
	}
}

func TestIssue_EmptyInput(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Issue(ctx, "owner@x.com", "", "bea@x.com"); !errors.Is(err, invitestore.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := store.Issue(ctx, "owner@x.com", "Bea", "   "); !errors.Is(err, invitestore.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank email, got %v", err)
	}
}

func TestFindByToken_UnknownToken(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.FindByToken(ctx, "no-such-token"); !errors.Is(err, invitestore.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := store.FindByToken(ctx, ""); !errors.Is(err, invitestore.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestConsume_SingleUse(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Issue(ctx, "owner@x.com", "Bea", "bea@x.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	p, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if p.Email != "bea@x.com" {
		t.Errorf("email: got %q", p.Email)
	}

	// Second consumption must be indistinguishable from an unknown token.
	if _, err := store.Consume(ctx, token); !errors.Is(err, invitestore.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken on re-use, got %v", err)
	}
	if _, err := store.FindByToken(ctx, token); !errors.Is(err, invitestore.ErrInvalidToken) {
		t.Errorf("consumed token must not be findable, got %v", err)
	}
}

func TestConsume_ConcurrentExactlyOnce(t *testing.T) {
	store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	token, err := store.Issue(ctx, "owner@x.com", "Bea", "bea@x.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Consume(ctx, token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, invalid := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, invitestore.ErrInvalidToken):
			invalid++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("exactly one concurrent Consume must succeed, got %d", successes)
	}
	if invalid != attempts-1 {
		t.Errorf("remaining attempts must see ErrInvalidToken, got %d of %d", invalid, attempts-1)
	}
}
