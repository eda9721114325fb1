// internal/app/features/tasks/invite.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/taskhive/internal/app/features/errors"
	invitestore "github.com/dalemusser/taskhive/internal/app/store/invites"
	"github.com/dalemusser/taskhive/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskhive/internal/app/system/mailer"
	"github.com/dalemusser/taskhive/internal/app/system/normalize"
	"github.com/dalemusser/taskhive/internal/app/system/timeouts"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tasks/invite – invite someone who doesn't have an account yet         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/tasks")
		return
	}

	name := htmlsanitize.StripTags(normalize.Name(r.FormValue("name")))
	email := normalize.Email(r.FormValue("email"))
	if name == "" || email == "" {
		h.ErrLog.LogBadRequest(w, r, "bad invite input", nil, "Enter the person's name and email.", "/tasks")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token, err := h.Invites.Issue(ctx, user.Email, name, email)
	switch {
	case errors.Is(err, invitestore.ErrDuplicateInvite):
		uierrors.RenderForbidden(w, r, "That person has already been invited.", "/tasks")
		return
	case errors.Is(err, invitestore.ErrInvalidInput):
		h.ErrLog.LogBadRequest(w, r, "bad invite input", err, "Enter the person's name and email.", "/tasks")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB issue invite", err, "A database error occurred.", "/tasks")
		return
	}

	h.Log.Info("invite issued",
		zap.String("inviter", user.Email),
		zap.String("invitee", email))

	// Delivery is fire and forget. The invitation exists either way and
	// can be re-sent; a slow SMTP server must not hold the response.
	link := h.BaseURL + "/register?token=" + url.QueryEscape(token)
	email2 := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:    models.DefaultSiteName,
		InviterName: user.Name,
		InviteLink:  link,
	})
	email2.To = email
	go func() {
		_ = h.Mailer.Send(email2)
	}()

	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
