package newsdesk

import "github.com/eringen/newsdesk/content"

// Roles carried by an Identity.
const (
	RoleReader = "reader"
	RoleAdmin  = "admin"
)

// Identity is the signed-in user attached to a session.
type Identity struct {
	ID   string
	Name string
	Role string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Layout is the chrome shared by every page.
type Layout struct {
	SiteName      string
	SiteURL       string
	Meta          PageMeta
	NavCategories []string
	User          *Identity
	CSRFToken     string
	Flash         []string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

type HomePage struct {
	Layout
	Latest   []content.Article
	Trending []content.Article
}

type CategoriesPage struct {
	Layout
	Categories []content.CategoryCount
}

type CategoryPage struct {
	Layout
	Category   string
	Articles   []content.Article
	Page       int
	TotalPages int
}

type TrendingPage struct {
	Layout
	Articles []content.Article
}

type ArticlePage struct {
	Layout
	Article  content.Article
	Comments []content.Comment
	HasLiked bool
}

type AdminLoginPage struct {
	Layout
	ShowError bool
}

type AdminDashboardPage struct {
	Layout
	Articles []content.Article
}

// AdminFormPage backs both the create and the edit form. Article is the
// zero value when IsNew.
type AdminFormPage struct {
	Layout
	Article content.Article
	IsNew   bool
}

type ErrorPage struct {
	Layout
	Status  int
	Message string
}
