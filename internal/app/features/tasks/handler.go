// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	"github.com/dalemusser/taskhive/internal/app/policy/taskpolicy"
	invitestore "github.com/dalemusser/taskhive/internal/app/store/invites"
	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/authz"
	"github.com/dalemusser/taskhive/internal/app/system/entitlement"
	"github.com/dalemusser/taskhive/internal/app/system/mailer"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Tasks   *taskstore.Store
	Users   *userstore.Store
	Invites *invitestore.Store
	Gate    *entitlement.Gate
	Mailer  *mailer.Mailer
	BaseURL string
}

func NewHandler(
	tasks *taskstore.Store,
	users *userstore.Store,
	invites *invitestore.Store,
	gate *entitlement.Gate,
	mail *mailer.Mailer,
	errLog *uierrors.ErrorLogger,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  errLog,
		Tasks:   tasks,
		Users:   users,
		Invites: invites,
		Gate:    gate,
		Mailer:  mail,
		BaseURL: baseURL,
	}
}

// actor returns the signed-in user as a domain user. The plan comes from
// the per-request session load, so an upgrade applies immediately.
func actor(r *http.Request) (models.User, bool) {
	email, name, id, ok := authz.UserCtx(r)
	if !ok {
		return models.User{}, false
	}
	plan := models.PlanFree
	if authz.IsPaid(r) {
		plan = models.PlanPaid
	}
	return models.User{ID: id, Name: name, Email: email, Plan: plan}, true
}

// loadTaskForActor fetches the task from the URL and resolves the actor's
// role on it. A missing task and a task the actor has no part in produce
// the same denial, so outsiders cannot probe which ids exist. The bool
// result reports whether the caller may proceed; on false a response has
// already been written.
func (h *Handler) loadTaskForActor(w http.ResponseWriter, r *http.Request, cap taskpolicy.Capability) (models.Task, models.User, bool) {
	user, ok := actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return models.Task{}, models.User{}, false
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad task id", err, "Invalid task.", "/tasks")
		return models.Task{}, models.User{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, err := h.Tasks.ByID(ctx, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.RenderForbidden(w, r, "Task not found or you don't have access.", "/tasks")
		return models.Task{}, models.User{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB find task", err, "A database error occurred.", "/tasks")
		return models.Task{}, models.User{}, false
	}

	role := taskpolicy.RoleOf(&task, user.Email)
	if !taskpolicy.Can(role, cap) {
		uierrors.RenderForbidden(w, r, "Task not found or you don't have access.", "/tasks")
		return models.Task{}, models.User{}, false
	}

	return task, user, true
}
