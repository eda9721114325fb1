// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	invitestore "github.com/dalemusser/taskhive/internal/app/store/invites"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Users      *userstore.Store
	Invites    *invitestore.Store
}

func NewHandler(users *userstore.Store, invites *invitestore.Store, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Users:      users,
		Invites:    invites,
	}
}

type registerFormData struct {
	viewdata.BaseVM
	Error string
	Name  string
	Email string
	Token string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRegister renders the sign-up form. When a pending invite token is
// present in the query string, the invitee's name and email are pre-filled.
// Unknown tokens render the plain form; whether a token was never issued
// or already used is not revealed.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	token := query.Get(r, "token")

	data := registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Create account", "/"),
		Token:  token,
	}

	if token != "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		person, err := h.Invites.FindByToken(ctx, token)
		if err == nil {
			data.Name = person.Name
			data.Email = person.Email
		}
	}

	templates.Render(w, r, "register", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	name := htmlsanitize.StripTags(normalize.Name(r.FormValue("name")))
	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	token := r.FormValue("token")

	if name == "" || email == "" || password == "" {
		h.renderFormWithError(w, r, "Please fill in all fields.", name, email, token)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Validate the token read-only first. Consumption happens only after
	// the account exists, so a failed registration (duplicate email, bad
	// input) leaves the invitation redeemable.
	if token != "" {
		if _, err := h.Invites.FindByToken(ctx, token); err != nil {
			if errors.Is(err, invitestore.ErrInvalidToken) {
				h.renderFormWithError(w, r, "That invitation link is no longer valid.", name, email, "")
				return
			}
			h.ErrLog.LogServerError(w, r, "look up invite token", err, "A server error occurred.", "/register")
			return
		}
	}

	u, err := h.Users.Create(ctx, name, email, password)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.renderFormWithError(w, r, "An account with that email already exists.", name, email, token)
		return
	case errors.Is(err, userstore.ErrInvalidInput):
		h.renderFormWithError(w, r, "Please fill in all fields.", name, email, token)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB create user", err, "A server error occurred.", "/register")
		return
	}

	// The token is cleared only now that the account exists. Exactly one
	// concurrent registration wins the $unset; a loser still has its
	// account, and the invitation simply reads as redeemed.
	if token != "" {
		if _, err := h.Invites.Consume(ctx, token); err != nil {
			h.Log.Warn("consume invite token after registration",
				zap.Error(err), zap.String("email", u.Email))
		}
	}

	h.Log.Info("user registered",
		zap.String("email", u.Email),
		zap.Bool("via_invite", token != ""))

	sessUser := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Plan:  u.Plan,
	}
	if err := h.SessionMgr.SignIn(w, r, sessUser); err != nil {
		h.Log.Error("save session failed after register", zap.Error(err), zap.String("email", email))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, name, email, token string) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Create account", "/"),
		Error:  msg,
		Name:   name,
		Email:  email,
		Token:  token,
	})
}
