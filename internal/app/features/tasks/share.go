// internal/app/features/tasks/share.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	"github.com/dalemusser/taskhive/internal/app/policy/taskpolicy"
	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	"github.com/dalemusser/taskhive/internal/app/system/entitlement"
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/{id}/share – add a share entry                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	task, user, ok := h.loadTaskForActor(w, r, taskpolicy.CapManageShares)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/tasks")
		return
	}

	target := normalize.Email(r.FormValue("email"))
	role := normalize.ShareRole(r.FormValue("role"))

	if target == "" || !taskpolicy.ValidShareRole(role) {
		h.ErrLog.LogBadRequest(w, r, "bad share input", nil, "Enter an email and pick viewer or editor.", "/tasks")
		return
	}

	// Granting editor access is a paid capability of the person sharing;
	// the recipient's plan never matters.
	if err := entitlement.CheckShareRole(user, role); err != nil {
		if errors.Is(err, entitlement.ErrUpgradeRequired) {
			http.Redirect(w, r, "/billing", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "share entitlement check", err, "A server error occurred.", "/tasks")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Tasks.AddShare(ctx, task.ID, target, role)
	switch {
	case errors.Is(err, taskstore.ErrSelfShare):
		uierrors.RenderForbidden(w, r, "You already own this task.", "/tasks")
		return
	case errors.Is(err, taskstore.ErrDuplicateShare):
		uierrors.RenderForbidden(w, r, "This task is already shared with that person.", "/tasks")
		return
	case errors.Is(err, taskstore.ErrInvalidRole), errors.Is(err, taskstore.ErrInvalidInput):
		h.ErrLog.LogBadRequest(w, r, "bad share input", err, "Enter an email and pick viewer or editor.", "/tasks")
		return
	case errors.Is(err, taskstore.ErrNotFound):
		uierrors.RenderForbidden(w, r, "Task not found or you don't have access.", "/tasks")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB add share", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("share added",
		zap.String("task_id", task.ID.Hex()),
		zap.String("owner", user.Email),
		zap.String("target", target),
		zap.String("role", role))
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/{id}/share/role – change an existing entry's role              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleShareRole(w http.ResponseWriter, r *http.Request) {
	task, user, ok := h.loadTaskForActor(w, r, taskpolicy.CapManageShares)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/tasks")
		return
	}

	target := normalize.Email(r.FormValue("email"))
	role := normalize.ShareRole(r.FormValue("role"))

	if target == "" || !taskpolicy.ValidShareRole(role) {
		h.ErrLog.LogBadRequest(w, r, "bad share input", nil, "Enter an email and pick viewer or editor.", "/tasks")
		return
	}

	// Raising someone to editor is gated the same as sharing as editor.
	if err := entitlement.CheckShareRole(user, role); err != nil {
		if errors.Is(err, entitlement.ErrUpgradeRequired) {
			http.Redirect(w, r, "/billing", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "share entitlement check", err, "A server error occurred.", "/tasks")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Tasks.ChangeShareRole(ctx, task.ID, target, role)
	switch {
	case errors.Is(err, taskstore.ErrNotShared):
		uierrors.RenderForbidden(w, r, "This task is not shared with that person.", "/tasks")
		return
	case errors.Is(err, taskstore.ErrNotFound):
		uierrors.RenderForbidden(w, r, "Task not found or you don't have access.", "/tasks")
		return
	case errors.Is(err, taskstore.ErrInvalidRole), errors.Is(err, taskstore.ErrInvalidInput):
		h.ErrLog.LogBadRequest(w, r, "bad share input", err, "Enter an email and pick viewer or editor.", "/tasks")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB change share role", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("share role changed",
		zap.String("task_id", task.ID.Hex()),
		zap.String("owner", user.Email),
		zap.String("target", target),
		zap.String("role", role))
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/{id}/unshare – idempotent revoke                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUnshare(w http.ResponseWriter, r *http.Request) {
	task, user, ok := h.loadTaskForActor(w, r, taskpolicy.CapManageShares)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/tasks")
		return
	}

	target := normalize.Email(r.FormValue("email"))
	if target == "" {
		h.ErrLog.LogBadRequest(w, r, "bad unshare input", nil, "Missing email.", "/tasks")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Revoking an absent entry succeeds; revoke converges on "not shared".
	if err := h.Tasks.RevokeShare(ctx, task.ID, target); err != nil {
		h.ErrLog.LogServerError(w, r, "DB revoke share", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("share revoked",
		zap.String("task_id", task.ID.Hex()),
		zap.String("owner", user.Email),
		zap.String("target", target))
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
