package home

import (
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/system/authz"
	"github.com/dalemusser/taskhive/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		Log: logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot renders the landing page. Signed-in users are sent straight
// to their task list.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if _, _, _, signedIn := authz.UserCtx(r); signedIn {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}

	data := struct {
		viewdata.BaseVM
	}{
		BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
	}

	templates.Render(w, r, "home", data)
}
