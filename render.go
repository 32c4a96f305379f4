package newsdesk

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// layout assembles the page chrome. It consumes pending flash messages, so
// it must run before the response is written.
func (a *App) layout(c echo.Context, meta PageMeta) Layout {
	if meta.OGType == "" {
		meta.OGType = "website"
	}
	l := Layout{
		SiteName:      a.Config.Name,
		SiteURL:       a.Config.URL,
		Meta:          meta,
		NavCategories: a.Categories.Get(c.Request().Context(), a.now()),
		CSRFToken:     CsrfToken(c),
		Flash:         popFlashes(c),
	}
	if u, ok := CurrentUser(c); ok {
		l.User = &u
	}
	return l
}
