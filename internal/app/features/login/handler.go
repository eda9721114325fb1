// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Users      *userstore.Store
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Users:      users,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Login", "/"),
		ReturnURL: ret,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		// Same message for unknown email and wrong password.
		h.renderFormWithError(w, r, "Invalid email or password.", email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if !userstore.VerifyPassword(u, password) {
		h.Log.Warn("login failed: bad password", zap.String("email", email))
		h.renderFormWithError(w, r, "Invalid email or password.", email, ret)
		return
	}

	sessUser := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Plan:  u.Plan,
	}
	if err := h.SessionMgr.SignIn(w, r, sessUser); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", email))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", email, ret)
		return
	}

	h.Log.Info("login success", zap.String("email", email))

	dest := urlutil.SafeReturn(ret, "", "/tasks")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Login", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
