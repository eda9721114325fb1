// internal/app/system/auth/auth.go

// Package auth manages cookie sessions and the current-user request context.
//
// The SessionManager owns the gorilla cookie store. LoadSessionUser runs as
// global middleware and injects a SessionUser into the request context for
// signed-in requests; handlers read it back with CurrentUser. When a
// UserFetcher is configured, the session carries only the user id and the
// fetcher loads fresh user data on every request, so plan upgrades take
// effect immediately without re-login.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session value keys.
const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is what we inject into r.Context() for signed-in requests.
type SessionUser struct {
	ID    string
	Name  string
	Email string // normalized; the actor identity for every core operation
	Plan  string // free | paid
}

// UserFetcher loads fresh user data for the given user id on each request.
// Implementations return nil if the user no longer exists or any error
// occurs; a nil result is treated as signed-out.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager wraps the cookie store and auth middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher
}

// NewSessionManager builds a SessionManager. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used:
// production wants secure=true (Secure + SameSite=None for HTTPS),
// local dev over http://localhost needs secure=false.
func NewSessionManager(sessionKey, sessionName, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: sessionName, log: logger}, nil
}

// SetUserFetcher installs the per-request user loader.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Store exposes the underlying cookie store (logout needs its Options).
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the request's session, creating a fresh one if the
// cookie is absent or fails to decode. The decode error is returned so
// callers can log it; the session itself is always usable.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn marks the session authenticated for the given user and saves it.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			sm.log.Error("session store error during sign-in, using fresh session", zap.Error(err))
		}
	}

	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID

	return sess.Save(r, w)
}

// SignOut expires the session cookie immediately.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Warn("session decode failed during sign-out", zap.Error(err))
	}

	// The deletion-cookie must match the original store settings.
	if opts := sm.store.Options; opts != nil {
		sess.Options.Domain = opts.Domain
		sess.Options.Path = opts.Path
		sess.Options.Secure = opts.Secure
		sess.Options.HttpOnly = opts.HttpOnly
		sess.Options.SameSite = opts.SameSite
	}
	sess.Options.MaxAge = -1

	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user into the request context. Test helper only;
// production requests go through LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the user into context if they are logged in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.GetSession(r)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			id, _ := sess.Values[userIDKey].(string)
			if id != "" && sm.fetcher != nil {
				if u := sm.fetcher.FetchUser(r.Context(), id); u != nil {
					r = withUser(r, u)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(currentURI(r))

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login?return="+ret)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
