package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/newsdesk"
)

func AdminLogin(d newsdesk.AdminLoginPage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw(`<section class="login"><h1>Admin</h1>`)
		if d.ShowError {
			p.raw(`<p class="error">Invalid password.</p>`)
		}
		p.raw(`<form method="post" action="/admin/login">`)
		p.csrf(d.CSRFToken)
		p.raw(`<input type="password" name="password" autocomplete="current-password" required><button type="submit">Sign in</button></form></section>`)
	})
}

func AdminDashboard(d newsdesk.AdminDashboardPage) templ.Component {
	return page(d.Layout, nil, func(p *writer) {
		p.raw(`<h1>Dashboard</h1><a class="button" href="/admin/articles/new">New article</a>`)
		p.raw(`<table class="articles"><thead><tr><th>Title</th><th>Category</th><th>Status</th><th>Views</th><th>Likes</th><th>Created</th><th></th></tr></thead><tbody>`)
		for _, a := range d.Articles {
			p.raw("<tr><td><a")
			p.href(a.Link())
			p.raw(">")
			p.text(a.Title)
			p.raw("</a></td><td>")
			p.text(a.Category)
			p.raw("</td><td>")
			if a.Published {
				p.raw("Published")
			} else {
				p.raw("Draft")
			}
			p.raw("</td><td>")
			p.text(plural(int(a.Views), "view", "views"))
			p.raw("</td><td>")
			p.text(plural(a.LikeCount(), "like", "likes"))
			p.raw("</td><td>")
			p.text(FormatDate(a.CreatedAt))
			p.raw("</td><td><a")
			p.href("/admin/articles/" + a.ID + "/edit")
			p.raw(`>Edit</a><form method="post"`)
			p.attr("action", "/admin/articles/"+a.ID)
			p.raw(`><input type="hidden" name="_method" value="DELETE">`)
			p.csrf(d.CSRFToken)
			p.raw(`<button type="submit">Delete</button></form></td></tr>`)
		}
		p.raw("</tbody></table>")
	})
}

func AdminForm(d newsdesk.AdminFormPage) templ.Component {
	a := d.Article
	return page(d.Layout, nil, func(p *writer) {
		action := "/admin/articles"
		if d.IsNew {
			p.raw("<h1>New article</h1>")
		} else {
			action += "/" + a.ID
			p.raw("<h1>Edit article</h1>")
		}
		p.raw(`<form class="article-form" method="post" enctype="multipart/form-data"`)
		p.attr("action", action)
		p.raw(">")
		p.csrf(d.CSRFToken)
		if !d.IsNew {
			p.raw(`<input type="hidden" name="_method" value="PUT">`)
		}

		p.raw(`<label>Title <input name="title" maxlength="180" required`)
		p.attr("value", a.Title)
		p.raw(`></label><label>Excerpt <textarea name="excerpt" minlength="20" maxlength="400" required>`)
		p.text(a.Excerpt)
		p.raw(`</textarea></label><label>Category <input name="category" placeholder="General"`)
		p.attr("value", a.Category)
		p.raw(`></label><label>Tags <input name="tags" placeholder="comma, separated"`)
		p.attr("value", JoinTags(a.Tags))
		p.raw(`></label><label>Cover image URL <input name="coverImageUrl"`)
		p.attr("value", a.CoverImageURL)
		p.raw(`></label><label>or upload <input type="file" name="coverImageFile" accept="image/*"></label>`)
		p.raw(`<label>Content <textarea name="contentHtml" rows="20">`)
		p.text(a.ContentHTML)
		p.raw(`</textarea></label>`)
		if !d.IsNew {
			p.raw(`<label>Status <select name="published">`)
			if a.Published {
				p.raw(`<option value="true" selected>Published</option><option value="false">Draft</option>`)
			} else {
				p.raw(`<option value="true">Published</option><option value="false" selected>Draft</option>`)
			}
			p.raw(`</select></label>`)
		}
		p.raw(`<button type="submit">Save</button></form>`)
	})
}
