// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	billingfeature "github.com/dalemusser/taskhive/internal/app/features/billing"
	errorsfeature "github.com/dalemusser/taskhive/internal/app/features/errors"
	healthfeature "github.com/dalemusser/taskhive/internal/app/features/health"
	homefeature "github.com/dalemusser/taskhive/internal/app/features/home"
	loginfeature "github.com/dalemusser/taskhive/internal/app/features/login"
	logoutfeature "github.com/dalemusser/taskhive/internal/app/features/logout"
	registerfeature "github.com/dalemusser/taskhive/internal/app/features/register"
	tasksfeature "github.com/dalemusser/taskhive/internal/app/features/tasks"
	invitestore "github.com/dalemusser/taskhive/internal/app/store/invites"
	taskstore "github.com/dalemusser/taskhive/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhive/internal/app/store/users"
	"github.com/dalemusser/taskhive/internal/app/system/auth"
	"github.com/dalemusser/taskhive/internal/app/system/entitlement"
	"github.com/dalemusser/taskhive/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	// Feature view packages register their template sets in init.
	_ "github.com/dalemusser/taskhive/internal/app/features/billing/views"
	_ "github.com/dalemusser/taskhive/internal/app/features/home/views"
	_ "github.com/dalemusser/taskhive/internal/app/features/login/views"
	_ "github.com/dalemusser/taskhive/internal/app/features/register/views"
	_ "github.com/dalemusser/taskhive/internal/app/features/tasks/views"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// TaskHive initializes the template engine, applies session and CSRF
// middleware, and mounts feature routers for the public pages, auth flows,
// task lists, and billing. The /tasks and /billing areas require a
// signed-in user.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores shared by the feature handlers.
	users := userstore.New(deps.MongoDatabase)
	tasks := taskstore.New(deps.MongoDatabase)
	invites := invitestore.New(deps.MongoDatabase)

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. This makes plan upgrades take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(users))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Outbound email for invitations. An empty SMTP host disables sending;
	// invitations are still recorded and the register link still works.
	mail := mailer.New(appCfg.MailSMTPHost, appCfg.MailSMTPPort, appCfg.MailSMTPUser, appCfg.MailSMTPPass, appCfg.MailFrom, logger)

	// Payment gateway for plan upgrades. Unconfigured keys leave the
	// billing page up but order creation returns 503.
	gateway := billingfeature.NewGateway(appCfg.PaymentKeyID, appCfg.PaymentKeySecret, appCfg.PaymentBaseURL)

	gate := entitlement.NewGate(tasks)

	r := chi.NewRouter()

	// CSRF protection for all state-changing form posts.
	r.Use(csrf.Protect([]byte(appCfg.SessionKey), csrf.Secure(secure), csrf.Path("/")))

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.BaseURL, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication and onboarding
	loginHandler := loginfeature.NewHandler(users, sessionMgr, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	registerHandler := registerfeature.NewHandler(users, invites, sessionMgr, errLog, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Signed-in areas
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		tasksHandler := tasksfeature.NewHandler(tasks, users, invites, gate, mail, errLog, appCfg.BaseURL, logger)
		r.Mount("/tasks", tasksfeature.Routes(tasksHandler))

		billingHandler := billingfeature.NewHandler(users, gateway, errLog, logger)
		r.Mount("/billing", billingfeature.Routes(billingHandler))
	})

	return r, nil
}
