// Package agencykit is the backend for a studio marketing site built
// with Go, Echo, and templ: public pages for work, blog, contact, and
// proposal intake, plus a session-guarded admin area whose management
// endpoints speak JSON.
//
// Users provide their own templ components via the ViewFuncs struct;
// agencykit owns the handlers, validation, persistence, and invariants.
package agencykit

import (
	"fmt"
	"net/http"
	"os"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// ViewFuncs holds user-provided templ components that the engine calls
// when rendering public pages. This is the inversion-of-control
// mechanism that lets users own and customize all templates.
type ViewFuncs struct {
	Home     func(projects []Project, posts []BlogPost, siteURL string) templ.Component
	Work     func(projects []Project) templ.Component
	Project  func(project Project, siteURL string) templ.Component
	Blog     func(posts []BlogPost, featured *BlogPost) templ.Component
	Post     func(post BlogPost, recent []BlogPost, siteURL string) templ.Component
	Contact  func(form Message, errs FieldErrors, alert, notice, csrfToken string) templ.Component
	Proposal func(form ProposalRequest, errs FieldErrors, alert, notice, csrfToken string) templ.Component

	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(csrfToken string) templ.Component

	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central agencykit application. It wires together the
// store, cache, limiters, verifier, handlers, and user templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *ContentCache
	Views  ViewFuncs

	verifier      Verifier
	loginLimiter  *RateLimiter
	submitLimiter *RateLimiter
	customRoutes  []func(*App)
	staticDir     string
}

// New creates a new agencykit App with the given configuration and view
// functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, middleware, and routes, then
// starts the server.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("agencykit: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("agencykit: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("agencykit: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewContentCache(store, a.Config.ContentCacheTTL)

	a.loginLimiter = NewRateLimiter(5, loginWindow)
	a.submitLimiter = NewRateLimiter(10, submitWindow)

	if a.verifier == nil {
		if a.Config.CaptchaSecret != "" {
			a.verifier = &RecaptchaVerifier{
				Secret:   a.Config.CaptchaSecret,
				MinScore: a.Config.CaptchaMinScore,
			}
		} else {
			a.verifier = AllowAll{}
		}
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/up", handleHealth)

	// Public pages
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/work/", a.handleWork)
	e.GET("/work/:slug/", a.handleProject)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/contact/", a.handleContactForm)
	e.POST("/contact/", a.handleContactSubmit)
	e.GET("/free-proposal/", a.handleProposalForm)
	e.POST("/free-proposal/", a.handleProposalSubmit)

	// Admin pages
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout, requireAdmin)

	// Admin JSON API
	api := e.Group("/admin/api", requireAdminAPI)
	api.GET("/projects", a.handleProjectList)
	api.POST("/projects", a.handleProjectCreate)
	api.GET("/projects/:id", a.handleProjectShow)
	api.PUT("/projects/:id", a.handleProjectUpdate)
	api.DELETE("/projects/:id", a.handleProjectDelete)
	api.POST("/projects/:id/image", a.handleProjectImageUpload)
	api.DELETE("/projects/:id/image", a.handleProjectImageDelete)

	api.GET("/posts", a.handlePostList)
	api.POST("/posts", a.handlePostCreate)
	api.GET("/posts/:id", a.handlePostShow)
	api.PUT("/posts/:id", a.handlePostUpdate)
	api.DELETE("/posts/:id", a.handlePostDelete)
	api.POST("/posts/:id/image", a.handlePostImageUpload)
	api.DELETE("/posts/:id/image", a.handlePostImageDelete)

	api.GET("/messages", a.handleMessageList)
	api.GET("/messages/:id", a.handleMessageShow)
	api.PUT("/messages/:id", a.handleMessageUpdate)
	api.DELETE("/messages/:id", a.handleMessageDelete)

	api.GET("/proposals", a.handleProposalList)
	api.GET("/proposals/:id", a.handleProposalShow)
	api.PUT("/proposals/:id", a.handleProposalUpdate)
	api.DELETE("/proposals/:id", a.handleProposalDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback
// if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
