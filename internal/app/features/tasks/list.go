// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	"github.com/dalemusser/taskhive/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskhive/internal/app/system/entitlement"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/app/system/viewdata"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type shareVM struct {
	Email string
	Role  string
}

type taskVM struct {
	ID        string
	Title     string
	Completed bool
	Owner     string
	IsOwner   bool
	CanEdit   bool
	Shares    []shareVM
}

type listPageData struct {
	viewdata.BaseVM
	Tasks      []taskVM
	OwnedCount int
	TaskLimit  int
	AtLimit    bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tasks – owned and shared-with-me                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Tasks.ListForIdentity(ctx, user.Email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "DB list tasks", err, "A database error occurred.", "/")
		return
	}

	owned := 0
	vms := make([]taskVM, 0, len(list))
	for i := range list {
		t := &list[i]
		role := taskpolicy.RoleOf(t, user.Email)
		if role == taskpolicy.RoleOwner {
			owned++
		}

		vm := taskVM{
			ID:        t.ID.Hex(),
			Title:     t.Title,
			Completed: t.Completed,
			Owner:     t.Owner,
			IsOwner:   role == taskpolicy.RoleOwner,
			CanEdit:   taskpolicy.Can(role, taskpolicy.CapEditTitle),
		}
		// The share list is only shown to the owner, who manages it.
		if vm.IsOwner {
			for _, s := range t.SharedWith {
				vm.Shares = append(vm.Shares, shareVM{Email: s.Email, Role: s.Role})
			}
		}
		vms = append(vms, vm)
	}

	data := listPageData{
		BaseVM:     viewdata.NewBaseVM(r, "Your tasks", "/"),
		Tasks:      vms,
		OwnedCount: owned,
		TaskLimit:  entitlement.FreeTaskLimit,
		AtLimit:    user.Plan != models.PlanPaid && owned >= entitlement.FreeTaskLimit,
	}

	templates.Render(w, r, "tasks_list", data)
}
