package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/newsdesk"
)

// page wraps body in the site chrome: head metadata, category nav, the
// signed-in user and pending flash messages.
func page(l newsdesk.Layout, head func(*writer), body func(*writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		title := l.SiteName
		if l.Meta.Title != "" && l.Meta.Title != l.SiteName {
			title = l.Meta.Title + " | " + l.SiteName
		}
		p.raw("<title>")
		p.text(title)
		p.raw("</title>")
		if l.Meta.Description != "" {
			p.raw(`<meta name="description"`)
			p.attr("content", l.Meta.Description)
			p.raw(">")
		}
		if l.Meta.URL != "" {
			p.raw(`<link rel="canonical"`)
			p.attr("href", l.Meta.URL)
			p.raw(`><meta property="og:url"`)
			p.attr("content", l.Meta.URL)
			p.raw(">")
		}
		p.raw(`<meta property="og:title"`)
		p.attr("content", title)
		p.raw(`><meta property="og:type"`)
		p.attr("content", l.Meta.OGType)
		p.raw(`><link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		p.raw(`<link rel="stylesheet" href="/public/site.css">`)
		if head != nil {
			head(p)
		}
		p.raw(`</head><body><header class="site-header"><a class="brand" href="/">`)
		p.text(l.SiteName)
		p.raw(`</a><nav class="categories"><a href="/trending">Trending</a><a href="/categories">All categories</a>`)
		for _, name := range l.NavCategories {
			p.raw("<a")
			p.href(CategoryPath(name))
			p.raw(">")
			p.text(name)
			p.raw("</a>")
		}
		p.raw(`</nav><div class="account">`)
		if l.User != nil {
			p.raw(`<span class="user">`)
			p.text(l.User.Name)
			p.raw("</span>")
			if l.User.IsAdmin() {
				p.raw(`<a href="/admin">Dashboard</a>`)
			}
			p.raw(`<form method="post" action="/admin/logout">`)
			p.csrf(l.CSRFToken)
			p.raw(`<button type="submit">Logout</button></form>`)
		}
		p.raw(`</div></header>`)
		if len(l.Flash) > 0 {
			p.raw(`<ul class="flash">`)
			for _, msg := range l.Flash {
				p.raw("<li>")
				p.text(msg)
				p.raw("</li>")
			}
			p.raw("</ul>")
		}
		p.raw(`<main>`)
		body(p)
		p.raw(`</main><footer><a href="/feed.xml">RSS</a></footer></body></html>`)
		return p.err
	})
}
