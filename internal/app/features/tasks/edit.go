// internal/app/features/tasks/edit.go
package tasks

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/taskhive/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhive/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type editPageData struct {
	viewdata.BaseVM
	ID        string
	TaskTitle string
	Completed bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tasks/{id}/edit                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	task, _, ok := h.loadTaskForActor(w, r, taskpolicy.CapEditTitle)
	if !ok {
		return
	}

	data := editPageData{
		BaseVM:    viewdata.NewBaseVM(r, "Edit task", "/tasks"),
		ID:        task.ID.Hex(),
		TaskTitle: task.Title,
		Completed: task.Completed,
	}

	templates.Render(w, r, "task_edit", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/{id}/edit – title, last writer wins                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	task, user, ok := h.loadTaskForActor(w, r, taskpolicy.CapEditTitle)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/tasks")
		return
	}

	title := htmlsanitize.StripTags(strings.TrimSpace(r.FormValue("title")))
	if title == "" {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tasks.UpdateTitle(ctx, task.ID, title); err != nil {
		h.ErrLog.LogServerError(w, r, "DB update title", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("task title updated",
		zap.String("task_id", task.ID.Hex()),
		zap.String("by", user.Email))
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/{id}/toggle – completion flag                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	task, _, ok := h.loadTaskForActor(w, r, taskpolicy.CapEditTitle)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tasks.SetCompleted(ctx, task.ID, !task.Completed); err != nil {
		h.ErrLog.LogServerError(w, r, "DB toggle completed", err, "A database error occurred.", "/tasks")
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
