package agencykit

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return err
	}
	projects, err := a.Cache.Projects()
	if err != nil {
		return err
	}
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "work")},
		{Loc: BuildURL(base, "blog")},
		{Loc: BuildURL(base, "contact")},
		{Loc: BuildURL(base, "free-proposal")},
	}
	for _, p := range projects {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "work", p.Slug)})
	}
	for _, p := range posts {
		u := sitemapURL{Loc: BuildURL(base, "blog", p.Slug)}
		if p.PublishedAt != nil {
			u.LastMod = p.PublishedAt.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
