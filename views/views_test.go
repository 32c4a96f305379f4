package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk"
	"github.com/eringen/newsdesk/content"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testLayout() newsdesk.Layout {
	return newsdesk.Layout{
		SiteName:      "Daily",
		SiteURL:       "https://example.com",
		NavCategories: []string{"World", "Arts & Culture"},
		CSRFToken:     "tok123",
	}
}

func TestHomeEscapesText(t *testing.T) {
	out := render(t, Home(newsdesk.HomePage{
		Layout: testLayout(),
		Latest: []content.Article{{
			Title:    `<script>alert(1)</script>`,
			Slug:     "x",
			Excerpt:  "Fish & chips",
			Category: "World",
			Views:    1,
		}},
	}))
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Fish &amp; chips")
	assert.Contains(t, out, `href="/category/Arts%20&amp;%20Culture"`)
	assert.Contains(t, out, "1 view ·")
	assert.Contains(t, out, "Nothing trending yet.")
}

func TestArticleRendersSanitizedBodyAndForms(t *testing.T) {
	l := testLayout()
	l.User = &newsdesk.Identity{ID: "u1", Name: "Ada", Role: newsdesk.RoleReader}
	out := render(t, Article(newsdesk.ArticlePage{
		Layout: l,
		Article: content.Article{
			Title:         "Hello",
			Slug:          "hello",
			ContentHTML:   "<p><strong>bold</strong></p>",
			CoverImageURL: "javascript:alert(1)",
			Category:      "World",
			Likes:         []string{"u1"},
			CreatedAt:     time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		},
		Comments: []content.Comment{{Text: "<b>hi</b>"}},
		HasLiked: true,
	}))
	assert.Contains(t, out, "<p><strong>bold</strong></p>")
	assert.NotContains(t, out, "javascript:alert")
	assert.Contains(t, out, `action="/news/hello/like"`)
	assert.Contains(t, out, "Unlike (1)")
	assert.Contains(t, out, `action="/news/hello/comments"`)
	assert.Contains(t, out, `name="_csrf" value="tok123"`)
	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;")
	assert.Contains(t, out, "Feb 3, 2026")
	assert.Contains(t, out, `"@type":"NewsArticle"`)
}

func TestArticleHidesCommentFormForAnonymous(t *testing.T) {
	out := render(t, Article(newsdesk.ArticlePage{
		Layout:  testLayout(),
		Article: content.Article{Title: "Hello", Slug: "hello"},
	}))
	assert.NotContains(t, out, `name="text"`)
	assert.Contains(t, out, "Like (0)")
	assert.Contains(t, out, "0 comments")
}

func TestCategoryPagination(t *testing.T) {
	out := render(t, Category(newsdesk.CategoryPage{
		Layout:     testLayout(),
		Category:   "World",
		Page:       2,
		TotalPages: 3,
	}))
	assert.Contains(t, out, `href="/category/World?page=1"`)
	assert.Contains(t, out, `href="/category/World?page=3"`)
	assert.Contains(t, out, "Page 2 of 3")
}

func TestAdminFormModes(t *testing.T) {
	create := render(t, AdminForm(newsdesk.AdminFormPage{Layout: testLayout(), IsNew: true}))
	assert.Contains(t, create, `action="/admin/articles"`)
	assert.NotContains(t, create, `name="_method"`)
	assert.NotContains(t, create, `name="published"`)

	edit := render(t, AdminForm(newsdesk.AdminFormPage{
		Layout:  testLayout(),
		Article: content.Article{ID: "a1", Title: "T", Tags: []string{"x", "y"}, Published: false},
	}))
	assert.Contains(t, edit, `action="/admin/articles/a1"`)
	assert.Contains(t, edit, `name="_method" value="PUT"`)
	assert.Contains(t, edit, `value="x, y"`)
	assert.Contains(t, edit, `<option value="false" selected>`)
}

func TestLayoutFlashAndUser(t *testing.T) {
	l := testLayout()
	l.Flash = []string{"Article published!"}
	l.User = &newsdesk.Identity{ID: "admin", Name: "Administrator", Role: newsdesk.RoleAdmin}
	l.Meta = newsdesk.PageMeta{Title: "Dashboard"}
	out := render(t, AdminDashboard(newsdesk.AdminDashboardPage{Layout: l}))
	assert.Contains(t, out, "<title>Dashboard | Daily</title>")
	assert.Contains(t, out, "<li>Article published!</li>")
	assert.Contains(t, out, `href="/admin">Dashboard</a>`)
}
