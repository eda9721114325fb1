package tasks_test

import (
	"net/http"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	"github.com/dalemusser/taskhive/internal/app/features/tasks"
	invitestore "github.com/dalemusser/taskhive/internal/app/store/invites"
	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/entitlement"
	"github.com/dalemusser/taskhive/internal/app/system/mailer"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/taskhive/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	handler *tasks.Handler
	tasks   *taskstore.Store
	users   *userstore.Store
	invites *invitestore.Store
	fix     *testutil.Fixtures
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	taskStore := taskstore.New(db)
	users := userstore.New(db)
	invites := invitestore.New(db)
	gate := entitlement.NewGate(taskStore)
	mail := mailer.New("", 0, "", "", "noreply@example.com", logger)
	errLog := uierrors.NewErrorLogger(logger)

	h := tasks.NewHandler(taskStore, users, invites, gate, mail, errLog, "http://localhost:8080", logger)
	return &env{
		handler: h,
		tasks:   taskStore,
		users:   users,
		invites: invites,
		fix:     testutil.NewFixtures(t, db),
	}
}

// do runs a handler func, swallowing template panics. Denial paths render
// error pages, and templates are not initialized in unit tests.
func do(fn http.HandlerFunc, rec *testutil.ResponseRecorder, req *http.Request) {
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
}

func (e *env) postTask(t *testing.T, fn http.HandlerFunc, taskID, path string, form url.Values, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewFormRequest(path, form, user)
	if taskID != "" {
		req = testutil.WithChiURLParam(req, "id", taskID)
	}
	rec := testutil.NewRecorder()
	do(fn, rec, req)
	return rec
}

func TestHandleCreate_Success(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.FreeUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleCreate, "", "/tasks", url.Values{"title": {"Buy milk"}}, user)

	rec.AssertRedirect(t, "/tasks")

	list, err := e.tasks.ListForIdentity(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("ListForIdentity: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Buy milk" {
		t.Errorf("expected one task titled %q, got %+v", "Buy milk", list)
	}
}

func TestHandleCreate_StripsMarkupFromTitle(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.FreeUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleCreate, "", "/tasks",
		url.Values{"title": {`<script>alert("x")</script>Pay rent`}}, user)

	rec.AssertRedirect(t, "/tasks")

	list, err := e.tasks.ListForIdentity(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("ListForIdentity: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one task, got %d", len(list))
	}
	if list[0].Title != "Pay rent" {
		t.Errorf("title: got %q, want %q", list[0].Title, "Pay rent")
	}
}

func TestHandleCreate_FreeUserAtLimitRedirectsToBilling(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < entitlement.FreeTaskLimit; i++ {
		e.fix.CreateTask(ctx, "existing", "owner@example.com")
	}

	user := testutil.FreeUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleCreate, "", "/tasks", url.Values{"title": {"One more"}}, user)

	rec.AssertRedirect(t, "/billing")

	count, err := e.tasks.CountOwned(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("CountOwned: %v", err)
	}
	if count != int64(entitlement.FreeTaskLimit) {
		t.Errorf("owned count: got %d, want %d", count, entitlement.FreeTaskLimit)
	}
}

func TestHandleCreate_PaidUserBypassesLimit(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < entitlement.FreeTaskLimit+1; i++ {
		e.fix.CreateTask(ctx, "existing", "owner@example.com")
	}

	user := testutil.PaidUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleCreate, "", "/tasks", url.Values{"title": {"One more"}}, user)

	rec.AssertRedirect(t, "/tasks")
}

func TestHandleEdit_EditorCanEditTitle(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := e.fix.CreateSharedTask(ctx, "Original", "owner@example.com",
		taskShare("editor@example.com", "editor"))

	user := testutil.FreeUser("editor@example.com")
	rec := e.postTask(t, e.handler.HandleEdit, task.ID.Hex(), "/tasks/"+task.ID.Hex()+"/edit",
		url.Values{"title": {"Renamed"}}, user)

	rec.AssertRedirect(t, "/tasks")

	got, err := e.tasks.ByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("title: got %q, want %q", got.Title, "Renamed")
	}
	if got.Owner != "owner@example.com" {
		t.Errorf("owner changed by edit: %q", got.Owner)
	}
}

func TestHandleEdit_ViewerDenied(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := e.fix.CreateSharedTask(ctx, "Original", "owner@example.com",
		taskShare("viewer@example.com", "viewer"))

	user := testutil.FreeUser("viewer@example.com")
	rec := e.postTask(t, e.handler.HandleEdit, task.ID.Hex(), "/tasks/"+task.ID.Hex()+"/edit",
		url.Values{"title": {"Hijacked"}}, user)

	if rec.Code == http.StatusSeeOther {
		t.Error("viewer edit must not succeed")
	}

	got, err := e.tasks.ByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Title != "Original" {
		t.Errorf("title changed by denied edit: %q", got.Title)
	}
}

func TestHandleEdit_StrangerDenied(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := e.fix.CreateTask(ctx, "Original", "owner@example.com")

	user := testutil.FreeUser("stranger@example.com")
	rec := e.postTask(t, e.handler.HandleEdit, task.ID.Hex(), "/tasks/"+task.ID.Hex()+"/edit",
		url.Values{"title": {"Hijacked"}}, user)

	if rec.Code == http.StatusSeeOther {
		t.Error("stranger edit must not succeed")
	}
}

func TestHandleDelete_OwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := e.fix.CreateSharedTask(ctx, "Keep me", "owner@example.com",
		taskShare("editor@example.com", "editor"))

	// Editor cannot delete.
	editor := testutil.FreeUser("editor@example.com")
	rec := e.postTask(t, e.handler.HandleDelete, task.ID.Hex(), "/tasks/"+task.ID.Hex()+"/delete", url.Values{}, editor)
	if rec.Code == http.StatusSeeOther {
		t.Error("editor delete must not succeed")
	}
	if _, err := e.tasks.ByID(ctx, task.ID); err != nil {
		t.Fatalf("task should survive editor delete attempt: %v", err)
	}

	// Owner can.
	owner := testutil.FreeUser("owner@example.com")
	rec = e.postTask(t, e.handler.HandleDelete, task.ID.Hex(), "/tasks/"+task.ID.Hex()+"/delete", url.Values{}, owner)
	rec.AssertRedirect(t, "/tasks")
	if _, err := e.tasks.ByID(ctx, task.ID); err == nil {
		t.Error("task should be gone after owner delete")
	}
}

func TestHandleToggle_FlipsCompletion(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := e.fix.CreateTask(ctx, "Flip me", "owner@example.com")

	user := testutil.FreeUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleToggle, task.ID.Hex(), "/tasks/"+task.ID.Hex()+"/toggle", url.Values{}, user)
	rec.AssertRedirect(t, "/tasks")

	got, err := e.tasks.ByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if !got.Completed {
		t.Error("task should be completed after toggle")
	}
}

func TestHandleInvite_IssuesInvitation(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.FreeUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleInvite, "", "/tasks/invite",
		url.Values{"name": {"Grace"}, "email": {"Grace@Example.com"}}, user)

	rec.AssertRedirect(t, "/tasks")

	people, err := e.invites.List(ctx)
	if err != nil {
		t.Fatalf("List invites: %v", err)
	}
	found := false
	for _, p := range people {
		if p.Email == "grace@example.com" {
			found = true
			if p.InviteToken == "" {
				t.Error("invitee should have a pending token")
			}
		}
	}
	if !found {
		t.Error("expected invitee record with normalized email")
	}
}

func TestHandleInvite_DuplicateDenied(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := e.invites.Issue(ctx, "owner@example.com", "Grace", "grace@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	user := testutil.FreeUser("owner@example.com")
	rec := e.postTask(t, e.handler.HandleInvite, "", "/tasks/invite",
		url.Values{"name": {"Grace"}, "email": {"grace@example.com"}}, user)

	if rec.Code == http.StatusSeeOther {
		t.Error("duplicate invite must not succeed")
	}
}

func taskShare(email, role string) models.ShareEntry {
	return models.ShareEntry{Email: email, Role: role}
}
