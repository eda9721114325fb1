// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, and request limits. AppConfig is
// where everything specific to TaskHive lives: the MongoDB connection,
// session cookies, outbound email, and the payment gateway.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: taskhive-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session lifetime (e.g., 720h for 30 days)

	// Email/SMTP configuration for invitation email
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@taskhive.app)

	// Base URL for links in outbound email (invitation links)
	BaseURL string // e.g., "https://taskhive.app" or "http://localhost:3000"

	// Payment gateway configuration for plan upgrades
	PaymentKeyID     string // Gateway API key id
	PaymentKeySecret string // Gateway API key secret (signs payment verification)
	PaymentBaseURL   string // Gateway API base URL
}
