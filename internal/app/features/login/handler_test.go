package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	"github.com/dalemusser/taskhive/internal/app/features/login"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	users := userstore.New(db)
	errLog := uierrors.NewErrorLogger(logger)
	return login.NewHandler(users, sessionMgr, errLog, logger), users
}

func postLogin(t *testing.T, h *login.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	// Error paths re-render the form, which may panic without initialized templates.
	func() {
		defer func() { _ = recover() }()
		h.HandleLoginPost(rec, req)
	}()
	return rec
}

func TestHandleLoginPost_Success(t *testing.T) {
	handler, users := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	rec := postLogin(t, handler, url.Values{
		"email":    {"ada@example.com"},
		"password": {"correct-horse"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/tasks" {
		t.Errorf("Location: got %q, want %q", loc, "/tasks")
	}

	// A session cookie must be issued.
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie after login")
	}
}

func TestHandleLoginPost_EmailCaseInsensitive(t *testing.T) {
	handler, users := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	rec := postLogin(t, handler, url.Values{
		"email":    {"  ADA@Example.COM  "},
		"password": {"correct-horse"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login with unnormalized email should succeed, got status %d", rec.Code)
	}
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	handler, users := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	rec := postLogin(t, handler, url.Values{
		"email":    {"ada@example.com"},
		"password": {"wrong"},
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("wrong password must not redirect to tasks")
	}
}

func TestHandleLoginPost_UnknownEmail(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postLogin(t, handler, url.Values{
		"email":    {"nobody@example.com"},
		"password": {"whatever"},
	})

	if rec.Code == http.StatusSeeOther {
		t.Error("unknown email must not redirect to tasks")
	}
}

func TestHandleLoginPost_SafeReturnURL(t *testing.T) {
	handler, users := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	// Absolute external URLs must not be honored as return destinations.
	rec := postLogin(t, handler, url.Values{
		"email":    {"ada@example.com"},
		"password": {"correct-horse"},
		"return":   {"https://evil.example.com/"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); strings.Contains(loc, "evil.example.com") {
		t.Errorf("open redirect: got Location %q", loc)
	}
}
