// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/system/authz"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserName   string
	UserEmail  string
	IsPaid     bool

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	email, name, _, signedIn := authz.UserCtx(r)

	return BaseVM{
		SiteName:    models.DefaultSiteName,
		IsLoggedIn:  signedIn,
		UserName:    name,
		UserEmail:   email,
		IsPaid:      authz.IsPaid(r),
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
}
