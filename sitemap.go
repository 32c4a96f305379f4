package newsdesk

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/content"
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

func (a *App) buildSitemap(articles []content.Article) sitemapURLSet {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "categories")},
		{Loc: BuildURL(base, "trending")},
	}
	seen := make(map[string]bool)
	for _, art := range articles {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "news", art.Slug),
			LastMod: art.UpdatedAt.UTC().Format("2006-01-02"),
		})
		if !seen[art.Category] {
			seen[art.Category] = true
			urls = append(urls, sitemapURL{Loc: BuildURL(base, "category", art.Category)})
		}
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, articles []content.Article) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(a.buildSitemap(articles))
}
