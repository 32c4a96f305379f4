package views

import (
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/newsdesk"
	"github.com/eringen/newsdesk/content"
)

// card renders one article teaser.
func card(p *writer, a content.Article, withExcerpt bool) {
	p.raw(`<article class="card">`)
	if a.CoverImageURL != "" {
		p.raw("<a")
		p.href(a.Link())
		p.raw("><img")
		p.attr("src", string(templ.URL(a.CoverImageURL)))
		p.attr("alt", a.Title)
		p.raw(` loading="lazy"></a>`)
	}
	p.raw(`<a class="category"`)
	p.href(CategoryPath(a.Category))
	p.raw(">")
	p.text(a.Category)
	p.raw("</a><h3><a")
	p.href(a.Link())
	p.raw(">")
	p.text(a.Title)
	p.raw("</a></h3>")
	if withExcerpt {
		p.raw("<p>")
		p.text(a.Excerpt)
		p.raw("</p>")
	}
	p.raw(`<p class="meta"><time>`)
	p.text(FormatDate(a.CreatedAt))
	p.raw("</time> · ")
	p.text(plural(int(a.Views), "view", "views"))
	p.raw(" · ")
	p.text(plural(a.LikeCount(), "like", "likes"))
	p.raw("</p></article>")
}

func cards(p *writer, articles []content.Article, withExcerpt bool, empty string) {
	if len(articles) == 0 {
		p.raw(`<p class="empty">`)
		p.text(empty)
		p.raw("</p>")
		return
	}
	p.raw(`<div class="grid">`)
	for _, a := range articles {
		card(p, a, withExcerpt)
	}
	p.raw("</div>")
}

func Home(d newsdesk.HomePage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw(`<section class="trending"><h2>Trending</h2>`)
		cards(p, d.Trending, false, "Nothing trending yet.")
		p.raw(`</section><section class="latest"><h2>Latest</h2>`)
		cards(p, d.Latest, true, "No articles published yet.")
		p.raw("</section>")
	})
}

func Categories(d newsdesk.CategoriesPage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw(`<h1>Categories</h1><ul class="category-list">`)
		for _, c := range d.Categories {
			p.raw("<li><a")
			p.href(CategoryPath(c.Name))
			p.raw(">")
			p.text(c.Name)
			p.raw("</a> <span>")
			p.text(strconv.Itoa(c.Count))
			p.raw("</span></li>")
		}
		p.raw("</ul>")
	})
}

func Category(d newsdesk.CategoryPage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw("<h1>")
		p.text(d.Category)
		p.raw("</h1>")
		cards(p, d.Articles, true, "No articles in this category yet.")
		if d.TotalPages > 1 {
			p.raw(`<nav class="pagination">`)
			if d.Page > 1 {
				p.raw("<a")
				p.href(CategoryPath(d.Category) + "?page=" + strconv.Itoa(d.Page-1))
				p.raw(` rel="prev">Newer</a>`)
			}
			p.raw("<span>Page ")
			p.text(strconv.Itoa(d.Page) + " of " + strconv.Itoa(d.TotalPages))
			p.raw("</span>")
			if d.Page < d.TotalPages {
				p.raw("<a")
				p.href(CategoryPath(d.Category) + "?page=" + strconv.Itoa(d.Page+1))
				p.raw(` rel="next">Older</a>`)
			}
			p.raw("</nav>")
		}
	})
}

func Trending(d newsdesk.TrendingPage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw("<h1>Trending this month</h1>")
		cards(p, d.Articles, true, "Nothing trending in the last 30 days.")
	})
}

func Article(d newsdesk.ArticlePage) templ.Component {
	a := d.Article
	head := func(p *writer) {
		p.raw(`<script type="application/ld+json">`)
		p.raw(NewsArticleJsonLD(d.Layout, a))
		p.raw("</script>")
	}
	return page(d.Layout, head, func(p *writer) {
		p.raw(`<article class="story"><a class="category"`)
		p.href(CategoryPath(a.Category))
		p.raw(">")
		p.text(a.Category)
		p.raw("</a><h1>")
		p.text(a.Title)
		p.raw(`</h1><p class="excerpt">`)
		p.text(a.Excerpt)
		p.raw(`</p><p class="meta"><time>`)
		p.text(FormatDate(a.CreatedAt))
		p.raw("</time> · ")
		p.text(plural(int(a.Views), "view", "views"))
		p.raw("</p>")
		if a.CoverImageURL != "" {
			p.raw("<img")
			p.attr("src", string(templ.URL(a.CoverImageURL)))
			p.attr("alt", a.Title)
			p.raw(">")
		}
		// ContentHTML is sanitized on every write.
		p.raw(`<div class="body">`)
		p.raw(a.ContentHTML)
		p.raw("</div>")
		if len(a.Tags) > 0 {
			p.raw(`<ul class="tags">`)
			for _, t := range a.Tags {
				p.raw("<li>")
				p.text(t)
				p.raw("</li>")
			}
			p.raw("</ul>")
		}
		p.raw(`<form class="like" method="post"`)
		p.attr("action", a.Link()+"/like")
		p.raw(">")
		p.csrf(d.CSRFToken)
		label := "Like"
		if d.HasLiked {
			label = "Unlike"
		}
		p.raw(`<button type="submit">`)
		p.text(label + " (" + strconv.Itoa(a.LikeCount()) + ")")
		p.raw("</button></form></article>")

		p.raw(`<section class="comments"><h2>`)
		p.text(plural(len(d.Comments), "comment", "comments"))
		p.raw("</h2>")
		if d.User != nil {
			p.raw(`<form method="post"`)
			p.attr("action", a.Link()+"/comments")
			p.raw(">")
			p.csrf(d.CSRFToken)
			p.raw(`<textarea name="text" maxlength="800" required></textarea><button type="submit">Post comment</button></form>`)
		}
		for _, c := range d.Comments {
			p.raw(`<div class="comment"><p>`)
			p.text(c.Text)
			p.raw(`</p><time>`)
			p.text(FormatDate(c.CreatedAt))
			p.raw("</time></div>")
		}
		p.raw("</section>")
	})
}

func Error(d newsdesk.ErrorPage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw(`<section class="error"><h1>`)
		p.text(strconv.Itoa(d.Status) + " " + http.StatusText(d.Status))
		p.raw("</h1><p>")
		p.text(d.Message)
		p.raw(`</p><a href="/">Back to the front page</a></section>`)
	})
}
