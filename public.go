package agencykit

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	projects, err := a.Cache.Projects()
	if err != nil {
		return err
	}
	posts, err := a.Cache.Posts()
	if err != nil {
		return err
	}
	if len(posts) > homeRecentPosts {
		posts = posts[:homeRecentPosts]
	}
	return Render(c, a.Views.Home(projects, posts, a.Config.URL))
}

const homeRecentPosts = 3

func (a *App) handleWork(c echo.Context) error {
	projects, err := a.Cache.Projects()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Work(projects))
}

func (a *App) handleProject(c echo.Context) error {
	project, err := a.Cache.ProjectBySlug(c.Param("slug"))
	if err != nil {
		if err == ErrNotFound {
			return c.Redirect(http.StatusSeeOther, "/work/")
		}
		return err
	}
	return Render(c, a.Views.Project(project, a.Config.URL))
}

func (a *App) handleBlog(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return err
	}
	var featured *BlogPost
	for i := range posts {
		if posts[i].Featured {
			featured = &posts[i]
			break
		}
	}
	return Render(c, a.Views.Blog(posts, featured))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Cache.PostBySlug(c.Param("slug"))
	if err != nil {
		if err == ErrNotFound {
			return c.Redirect(http.StatusSeeOther, "/blog/")
		}
		return err
	}
	recent, err := a.Cache.Posts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(post, recent, a.Config.URL))
}

// --- Contact ---

func (a *App) handleContactForm(c echo.Context) error {
	return Render(c, a.Views.Contact(Message{}, nil, "", c.QueryParam("notice"), CsrfToken(c)))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	if !a.submitLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many submissions. Try again later.")
	}
	msg := Message{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Subject: c.FormValue("subject"),
		Content: c.FormValue("content"),
	}
	if !a.verifier.Verify(c.Request().Context(), c.FormValue(captchaField), c.RealIP()) {
		alert := "Please complete the security check and try again."
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Contact(msg, nil, alert, "", CsrfToken(c)))
	}
	if errs := msg.Validate(); errs.Any() {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Contact(msg, errs, "", "", CsrfToken(c)))
	}
	if err := a.Store.CreateMessage(&msg); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/contact/?notice=Thank+you+for+your+message!+We'll+get+back+to+you+soon.")
}

// --- Proposal intake ---

func (a *App) handleProposalForm(c echo.Context) error {
	return Render(c, a.Views.Proposal(ProposalRequest{}, nil, "", c.QueryParam("notice"), CsrfToken(c)))
}

func (a *App) handleProposalSubmit(c echo.Context) error {
	if !a.submitLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many submissions. Try again later.")
	}
	req := ProposalRequest{
		Name:                c.FormValue("name"),
		Email:               c.FormValue("email"),
		Company:             c.FormValue("company"),
		Phone:               c.FormValue("phone"),
		ProjectType:         c.FormValue("project_type"),
		BudgetRange:         c.FormValue("budget_range"),
		Timeline:            c.FormValue("timeline"),
		ProjectDescription:  c.FormValue("project_description"),
		ExistingWebsite:     c.FormValue("existing_website"),
		TargetAudience:      c.FormValue("target_audience"),
		SpecialRequirements: c.FormValue("special_requirements"),
		WhyCustom:           c.FormValue("why_custom"),
		SuccessMetrics:      c.FormValue("success_metrics"),
	}
	if !a.verifier.Verify(c.Request().Context(), c.FormValue(captchaField), c.RealIP()) {
		alert := "Please complete the security check and fix any errors below."
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Proposal(req, nil, alert, "", CsrfToken(c)))
	}
	if errs := req.Validate(); errs.Any() {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Proposal(req, errs, "", "", CsrfToken(c)))
	}
	if err := a.Store.CreateProposal(&req); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/free-proposal/?notice=Thank+you!+We've+received+your+proposal+request+and+will+get+back+to+you+within+24+hours.")
}

const captchaField = "g-recaptcha-response"

// --- Misc ---

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func handleHealth(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
