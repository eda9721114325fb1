// internal/app/features/tasks/create.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	"github.com/dalemusser/taskhive/internal/app/system/entitlement"
	"github.com/dalemusser/taskhive/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks – create                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The quota check and the insert are separate steps; two simultaneous
	// creates can both pass the check. The limit is a soft product bound,
	// not a security property, so we accept the race instead of paying for
	// a transaction on every create.
	if err := h.Gate.CheckCreateQuota(ctx, user); err != nil {
		if errors.Is(err, entitlement.ErrQuotaExceeded) {
			http.Redirect(w, r, "/billing", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "quota check", err, "A database error occurred.", "/tasks")
		return
	}

	if _, err := h.Tasks.Create(ctx, title, user.Email); err != nil {
		if errors.Is(err, taskstore.ErrInvalidInput) {
			http.Redirect(w, r, "/tasks", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "DB create task", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("task created", zap.String("owner", user.Email))
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
