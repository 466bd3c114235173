package agencykit

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// adminListLimit caps the admin message and proposal list views at the
// most recent rows.
const adminListLimit = 50

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return Render(c, a.Views.AdminDashboard(CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// --- JSON helpers ---

func paramID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func jsonNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
}

func jsonValidationErrors(c echo.Context, errs FieldErrors) error {
	return c.JSON(http.StatusUnprocessableEntity, map[string]FieldErrors{"errors": errs})
}

// --- Projects ---

type projectParams struct {
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	WhatSpecial      string `json:"what_special"`
	LongDescription  string `json:"long_description"`
	URL              string `json:"url"`
	Published        bool   `json:"published"`
}

func (p projectParams) apply(dst *Project) {
	dst.Name = p.Name
	dst.ShortDescription = p.ShortDescription
	dst.WhatSpecial = p.WhatSpecial
	dst.LongDescription = p.LongDescription
	dst.URL = p.URL
	dst.Published = p.Published
}

func (a *App) adminProject(p Project) ProjectAdmin {
	return AdminProject(p, a.AttachmentURL(ownerProject, p.ID, fieldImage))
}

func (a *App) handleProjectList(c echo.Context) error {
	projects, err := a.Store.ListAllProjects()
	if err != nil {
		return err
	}
	out := make([]ProjectAdmin, 0, len(projects))
	for _, p := range projects {
		out = append(out, a.adminProject(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleProjectShow(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	project, err := a.Store.GetProject(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, a.adminProject(project))
}

func (a *App) handleProjectCreate(c echo.Context) error {
	var params projectParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	var project Project
	params.apply(&project)
	if errs := project.Validate(); errs.Any() {
		return jsonValidationErrors(c, errs)
	}
	if err := a.Store.CreateProject(&project); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, a.adminProject(project))
}

func (a *App) handleProjectUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	project, err := a.Store.GetProject(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	var params projectParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	params.apply(&project)
	if errs := project.Validate(); errs.Any() {
		return jsonValidationErrors(c, errs)
	}
	if err := a.Store.UpdateProject(&project); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, a.adminProject(project))
}

func (a *App) handleProjectDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	if err := a.Store.DeleteProject(id); err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleProjectImageUpload(c echo.Context) error {
	return a.handleImageUpload(c, ownerProject, fieldImage)
}

func (a *App) handleProjectImageDelete(c echo.Context) error {
	return a.handleImageDelete(c, ownerProject, fieldImage, func(id int64) error {
		_, err := a.Store.GetProject(id)
		return err
	})
}

// --- Blog posts ---

type postParams struct {
	Title     string `json:"title"`
	Teaser    string `json:"teaser"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	Featured  bool   `json:"featured"`
}

func (p postParams) apply(dst *BlogPost) {
	dst.Title = p.Title
	dst.Teaser = p.Teaser
	dst.Content = p.Content
	dst.Published = p.Published
	dst.Featured = p.Featured
}

func (a *App) adminPost(p BlogPost) BlogPostAdmin {
	return AdminBlogPost(p, a.AttachmentURL(ownerBlogPost, p.ID, fieldFeaturedImage))
}

func (a *App) handlePostList(c echo.Context) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	out := make([]BlogPostAdmin, 0, len(posts))
	for _, p := range posts {
		out = append(out, a.adminPost(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handlePostShow(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	post, err := a.Store.GetPostAny(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, a.adminPost(post))
}

func (a *App) handlePostCreate(c echo.Context) error {
	var params postParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	var post BlogPost
	params.apply(&post)
	if errs := post.Validate(); errs.Any() {
		return jsonValidationErrors(c, errs)
	}
	if err := a.Store.CreatePost(&post); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, a.adminPost(post))
}

func (a *App) handlePostUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	post, err := a.Store.GetPostAny(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	var params postParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	params.apply(&post)
	if errs := post.Validate(); errs.Any() {
		return jsonValidationErrors(c, errs)
	}
	if err := a.Store.UpdatePost(&post); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, a.adminPost(post))
}

func (a *App) handlePostDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	if err := a.Store.DeletePost(id); err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handlePostImageUpload(c echo.Context) error {
	return a.handleImageUpload(c, ownerBlogPost, fieldFeaturedImage)
}

func (a *App) handlePostImageDelete(c echo.Context) error {
	return a.handleImageDelete(c, ownerBlogPost, fieldFeaturedImage, func(id int64) error {
		_, err := a.Store.GetPostAny(id)
		return err
	})
}

// --- Attachment endpoints ---

func (a *App) handleImageUpload(c echo.Context, ownerType, field string) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	// The owner must exist before a file can occupy its slot.
	switch ownerType {
	case ownerProject:
		_, err = a.Store.GetProject(id)
	case ownerBlogPost:
		_, err = a.Store.GetPostAny(id)
	}
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image file provided")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	att, err := a.Attach(ownerType, id, field, src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, att)
}

func (a *App) handleImageDelete(c echo.Context, ownerType, field string, exists func(int64) error) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	if err := exists(id); err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	if err := a.Detach(ownerType, id, field); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

// --- Messages ---

func (a *App) handleMessageList(c echo.Context) error {
	messages, err := a.Store.ListMessages(adminListLimit)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

func (a *App) handleMessageShow(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	msg, err := a.Store.GetMessage(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

func (a *App) handleMessageUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	var params struct {
		Read bool `json:"read"`
	}
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	msg, err := a.Store.SetMessageRead(id, params.Read)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

func (a *App) handleMessageDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	if err := a.Store.DeleteMessage(id); err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Proposals ---

func (a *App) handleProposalList(c echo.Context) error {
	proposals, err := a.Store.ListProposals(adminListLimit)
	if err != nil {
		return err
	}
	out := make([]ProposalAdmin, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, AdminProposal(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleProposalShow(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	proposal, err := a.Store.GetProposal(id)
	if err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, AdminProposal(proposal))
}

func (a *App) handleProposalUpdate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	var params struct {
		Status        string `json:"status"`
		InternalNotes string `json:"internal_notes"`
	}
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	proposal, err := a.Store.UpdateProposalReview(id, params.Status, params.InternalNotes)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidStatus):
			return jsonValidationErrors(c, FieldErrors{"status": {msgBadStatus}})
		case err == ErrNotFound:
			return jsonNotFound(c)
		}
		return err
	}
	return c.JSON(http.StatusOK, AdminProposal(proposal))
}

func (a *App) handleProposalDelete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return jsonNotFound(c)
	}
	if err := a.Store.DeleteProposal(id); err != nil {
		if err == ErrNotFound {
			return jsonNotFound(c)
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
