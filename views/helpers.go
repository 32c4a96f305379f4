package views

import (
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/newsdesk"
	"github.com/eringen/newsdesk/content"
)

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *writer) text(s string) {
	p.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with value escaped.
func (p *writer) attr(name, value string) {
	p.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// href writes an href attribute, neutralizing unsafe URL schemes.
func (p *writer) href(u string) {
	p.attr("href", string(templ.URL(u)))
}

func (p *writer) csrf(token string) {
	p.raw(`<input type="hidden" name="_csrf"`)
	p.attr("value", token)
	p.raw(">")
}

func buildURL(base string, segments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(segments...))
	return u.String()
}

// CategoryPath is the URL path of a category page.
func CategoryPath(name string) string {
	return "/category/" + url.PathEscape(name)
}

// FormatDate renders a timestamp the way article bylines show it.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}

// JoinTags formats a tag slice as a comma-separated string for form fields.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}

// NewsArticleJsonLD produces a Schema.org NewsArticle JSON-LD block.
func NewsArticleJsonLD(l newsdesk.Layout, a content.Article) string {
	articleURL := buildURL(l.SiteURL, "news", a.Slug)
	data := map[string]any{
		"@context":       "https://schema.org",
		"@type":          "NewsArticle",
		"headline":       a.Title,
		"description":    a.Excerpt,
		"datePublished":  a.CreatedAt.UTC().Format(time.RFC3339),
		"dateModified":   a.UpdatedAt.UTC().Format(time.RFC3339),
		"articleSection": a.Category,
		"url":            articleURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  l.SiteName,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   articleURL,
		},
	}
	if a.CoverImageURL != "" {
		data["image"] = string(templ.URL(a.CoverImageURL))
	}
	if len(a.Tags) > 0 {
		data["keywords"] = strings.Join(a.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
