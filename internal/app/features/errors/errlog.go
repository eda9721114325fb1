// internal/app/features/errors/errlog.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	nav "github.com/dalemusser/waffle/pantry/httpnav"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures and renders a friendly error page in
// one call, so handlers never leak internal error text to users.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

// LogServerError logs err at error level and renders a 500 page with
// userMsg. logMsg is the internal description; it is never shown to the
// user.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg,
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Error(err))
	e.render(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs err at warn level and renders a 400 page with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg,
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Error(err))
	e.render(w, r, http.StatusBadRequest, "Invalid request", userMsg, backURL)
}

func (e *ErrorLogger) render(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL string) {
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
		Title:      title,
		IsLoggedIn: signed,
		UserName:   name,
		Message:    userMsg,
		BackURL:    backURL,
	}

	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
