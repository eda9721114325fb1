// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	nav "github.com/dalemusser/waffle/pantry/httpnav"
)

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	u, signed := auth.CurrentUser(r)
	name := ""
	if signed && u != nil {
		name = u.Name
	}
	if backURL == "" {
		backURL = "/login"
	}

	data := pageData{
		SiteName:   models.DefaultSiteName,
		Title:      "Sign in required",
		IsLoggedIn: signed,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_forbidden", data)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	u, signed := auth.CurrentUser(r)
	name := ""
	if signed && u != nil {
		name = u.Name
	}
	if backURL == "" {
		backURL = nav.ResolveBackURL(r, "/")
	}

	data := pageData{
		SiteName:   models.DefaultSiteName,
		Title:      "Access denied",
		IsLoggedIn: signed,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	templates.Render(w, r, "error_forbidden", data)
}
