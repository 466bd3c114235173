package agencykit

import "time"

// SiteConfig holds all configuration for an agencykit site. Fields carry
// env tags so cmd entrypoints can populate the struct straight from the
// environment.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "Studio")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Author name for JSON-LD

	Addr         string `env:"ADDR"`          // Listen address (default ":3000")
	DatabasePath string `env:"DATABASE_PATH"` // SQLite path (default "data/site.db")

	AdminPassword string `env:"ADMIN_PASSWORD"`       // Required: admin login password
	SessionSecret string `env:"ADMIN_SESSION_SECRET"` // Required: session encryption secret
	CookieSecure  bool   `env:"COOKIE_SECURE"`        // Set true for HTTPS

	// Bot-check secret for the public contact and proposal forms. When
	// empty, submissions are accepted without verification (development).
	CaptchaSecret   string  `env:"RECAPTCHA_SECRET_KEY"`
	CaptchaMinScore float64 `env:"RECAPTCHA_MIN_SCORE"`

	ContentCacheTTL time.Duration `env:"CONTENT_CACHE_TTL"` // Published-content cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Studio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.CaptchaMinScore == 0 {
		c.CaptchaMinScore = 0.5
	}
	if c.ContentCacheTTL == 0 {
		c.ContentCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads
// (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithVerifier overrides the bot-check verifier used on public
// submissions.
func WithVerifier(v Verifier) Option {
	return func(a *App) {
		a.verifier = v
	}
}
