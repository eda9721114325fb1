// internal/app/features/tasks/delete.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/policy/taskpolicy"
	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/{id}/delete – owner only                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	task, user, ok := h.loadTaskForActor(w, r, taskpolicy.CapDelete)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// The owner filter travels with the delete, so a concurrent change
	// cannot widen it.
	err := h.Tasks.Delete(ctx, task.ID, user.Email)
	if err != nil && !errors.Is(err, taskstore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "DB delete task", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("task deleted",
		zap.String("task_id", task.ID.Hex()),
		zap.String("owner", user.Email))
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
