package newsdesk

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/ranking"
)

const (
	// CategoryPageSize is the number of articles per category page.
	CategoryPageSize = 12
	// CommentLimit caps the comments shown under an article.
	CommentLimit = 50
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	latest, err := a.Ranking.Latest(ctx, ranking.HomeLatestLimit)
	if err != nil {
		return err
	}
	trending, err := a.Ranking.Trending(ctx, a.now(), ranking.HomeTrendingLimit)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(HomePage{
		Layout:   a.layout(c, PageMeta{Title: a.Config.Name, Description: a.Config.Description, URL: BuildURL(a.Config.URL)}),
		Latest:   latest,
		Trending: trending,
	}))
}

func (a *App) handleCategories(c echo.Context) error {
	listing, err := a.Ranking.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Categories(CategoriesPage{
		Layout:     a.layout(c, PageMeta{Title: "Categories", URL: BuildURL(a.Config.URL, "categories")}),
		Categories: listing,
	}))
}

func (a *App) handleCategory(c echo.Context) error {
	// Echo routes on the decoded path unless the request needed a RawPath,
	// in which case params are still escaped.
	category := c.Param("category")
	if c.Request().URL.RawPath != "" {
		unescaped, err := url.PathUnescape(category)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
		}
		category = unescaped
	}
	page := ParsePage(c.QueryParam("page"))
	articles, total, err := a.Store.ListByCategory(c.Request().Context(), category, PageOffset(page, CategoryPageSize), CategoryPageSize)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Category(CategoryPage{
		Layout:     a.layout(c, PageMeta{Title: category, URL: BuildURL(a.Config.URL, "category", category)}),
		Category:   category,
		Articles:   articles,
		Page:       page,
		TotalPages: TotalPages(total, CategoryPageSize),
	}))
}

func (a *App) handleTrending(c echo.Context) error {
	articles, err := a.Ranking.Trending(c.Request().Context(), a.now(), ranking.TrendingPageLimit)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Trending(TrendingPage{
		Layout:   a.layout(c, PageMeta{Title: "Trending", URL: BuildURL(a.Config.URL, "trending")}),
		Articles: articles,
	}))
}

func (a *App) handleArticle(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := a.Store.GetArticleBySlug(ctx, c.Param("slug"), true)
	if err != nil {
		return err
	}

	_, article, err = a.Tracker.CountView(ctx, viewedSlugs(c), article, func(viewed []string) error {
		return saveViewedSlugs(c, viewed)
	})
	if err != nil {
		return err
	}

	comments, err := a.Store.ListComments(ctx, article.ID, CommentLimit)
	if err != nil {
		return err
	}

	layout := a.layout(c, PageMeta{
		Title:       article.Title,
		Description: article.Excerpt,
		URL:         BuildURL(a.Config.URL, "news", article.Slug),
		OGType:      "article",
	})
	hasLiked := false
	if layout.User != nil {
		hasLiked = article.LikedBy(layout.User.ID)
	}
	return Render(c, a.Views.Article(ArticlePage{
		Layout:   layout,
		Article:  article,
		Comments: comments,
		HasLiked: hasLiked,
	}))
}

func (a *App) handleLike(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := a.Store.GetArticleBySlug(ctx, c.Param("slug"), true)
	if err != nil {
		return err
	}
	user, _ := CurrentUser(c)
	if _, err := a.Tracker.ToggleLike(ctx, article.ID, user.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, article.Link())
}

func (a *App) handleComment(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := a.Store.GetArticleBySlug(ctx, c.Param("slug"), true)
	if err != nil {
		return err
	}
	user, _ := CurrentUser(c)
	_, err = a.Tracker.Comment(ctx, article, user.ID, c.FormValue("text"))
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		_ = addFlash(c, ve.Message)
	case err != nil:
		return err
	default:
		_ = addFlash(c, "Comment posted.")
	}
	return c.Redirect(http.StatusSeeOther, article.Link())
}

func (a *App) handleSitemap(c echo.Context) error {
	articles, err := a.Store.ListPublished(c.Request().Context(), time.Time{})
	if err != nil {
		return err
	}
	return a.renderSitemap(c, articles)
}

func (a *App) handleFeed(c echo.Context) error {
	articles, err := a.Ranking.Latest(c.Request().Context(), FeedLimit)
	if err != nil {
		return err
	}
	return a.renderRSS(c, articles)
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin\nSitemap: " + BuildURL(a.Config.URL) + "sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := apperr.Status(err)
	msg := http.StatusText(code)
	var he *echo.HTTPError
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = http.StatusText(code)
		if s, ok := he.Message.(string); ok && code < 500 {
			msg = s
		}
	case errors.As(err, &ve):
		msg = ve.Message
	case code == http.StatusConflict:
		msg = "That slug was just taken. Please try again."
	}
	if code >= 500 {
		a.Log.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
	}
	if c.Request().Method == http.MethodHead || a.Views.Error == nil {
		_ = c.String(code, msg)
		return
	}
	_ = RenderStatus(c, code, a.Views.Error(ErrorPage{
		Layout:  a.layout(c, PageMeta{Title: msg}),
		Status:  code,
		Message: msg,
	}))
}
