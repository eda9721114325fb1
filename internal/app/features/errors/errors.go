// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/system/authz"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	SiteName   string
	Title      string
	IsLoggedIn bool
	UserName   string
	Message    string
	BackURL    string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	_, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		SiteName:   models.DefaultSiteName,
		Title:      "Access denied",
		IsLoggedIn: signedIn,
		UserName:   name,
		Message:    "You don't have permission to view this page.",
		BackURL:    "/",
	}

	templates.Render(w, r, "error_forbidden", data)
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	_, name, _, signedIn := authz.UserCtx(r)

	data := pageData{
		SiteName:   models.DefaultSiteName,
		Title:      "Sign in required",
		IsLoggedIn: signedIn,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    "/login",
	}

	templates.Render(w, r, "error_forbidden", data)
}
