package newsdesk

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/content"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(AdminLoginPage{
			Layout: a.layout(c, PageMeta{Title: "Admin login"}),
		}))
	}
	articles, err := a.Store.ListArticles(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(AdminDashboardPage{
		Layout:   a.layout(c, PageMeta{Title: "Dashboard"}),
		Articles: articles,
	}))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := SignIn(c, Identity{ID: "admin", Name: "Administrator", Role: RoleAdmin}); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(AdminLoginPage{
		Layout:    a.layout(c, PageMeta{Title: "Admin login"}),
		ShowError: true,
	}))
}

func (a *App) handleLogout(c echo.Context) error {
	if err := SignOut(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleAdminNew(c echo.Context) error {
	return Render(c, a.Views.AdminForm(AdminFormPage{
		Layout: a.layout(c, PageMeta{Title: "New article"}),
		IsNew:  true,
	}))
}

func (a *App) handleAdminEdit(c echo.Context) error {
	article, err := a.Store.GetArticle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminForm(AdminFormPage{
		Layout:  a.layout(c, PageMeta{Title: "Edit " + article.Title}),
		Article: article,
	}))
}

func (a *App) handleAdminCreate(c echo.Context) error {
	cover, uploaded, err := a.saveCoverUpload(c)
	if err != nil {
		return a.formError(c, "/admin/articles/new", err)
	}
	if !uploaded {
		cover = c.FormValue("coverImageUrl")
	}
	user, _ := CurrentUser(c)
	_, err = a.Publisher.Create(c.Request().Context(), content.CreateInput{
		Title:         c.FormValue("title"),
		Excerpt:       c.FormValue("excerpt"),
		ContentHTML:   c.FormValue("contentHtml"),
		CoverImageURL: cover,
		Tags:          c.FormValue("tags"),
		Category:      c.FormValue("category"),
		AuthorID:      user.ID,
	})
	if err != nil {
		return a.formError(c, "/admin/articles/new", err)
	}
	_ = addFlash(c, "Article published!")
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) handleAdminUpdate(c echo.Context) error {
	id := c.Param("id")
	editURL := "/admin/articles/" + id + "/edit"

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	in := content.UpdateInput{
		Title:       form.Get("title"),
		Excerpt:     form.Get("excerpt"),
		ContentHTML: form.Get("contentHtml"),
		Tags:        form.Get("tags"),
		Category:    form.Get("category"),
	}
	if _, ok := form["published"]; ok {
		in.Published = content.Some(content.ParseBool(form.Get("published")))
	}

	cover, uploaded, err := a.saveCoverUpload(c)
	if err != nil {
		return a.formError(c, editURL, err)
	}
	if uploaded {
		in.CoverImageURL = content.Some(cover)
	} else if _, ok := form["coverImageUrl"]; ok {
		in.CoverImageURL = content.Some(form.Get("coverImageUrl"))
	}

	if _, err := a.Publisher.Update(c.Request().Context(), id, in); err != nil {
		return a.formError(c, editURL, err)
	}
	_ = addFlash(c, "Article updated.")
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if err := a.Publisher.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	_ = addFlash(c, "Article deleted.")
	return c.Redirect(http.StatusSeeOther, "/admin")
}

// formError sends user-fixable errors back to the form as a flash message
// and hands everything else to the error handler.
func (a *App) formError(c echo.Context, formURL string, err error) error {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		_ = addFlash(c, ve.Message)
	case errors.Is(err, apperr.ErrConflict):
		_ = addFlash(c, "That slug was just taken. Please try again.")
	default:
		return err
	}
	return c.Redirect(http.StatusSeeOther, formURL)
}
