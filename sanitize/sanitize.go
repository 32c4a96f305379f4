// Package sanitize restricts submitted article HTML to a safe subset.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// Elements allowed in article bodies: basic formatting, block structure,
// tables, headings, blockquote and images.
var allowedElements = []string{
	"address", "article", "aside", "footer", "header", "hgroup", "main", "nav", "section",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"blockquote", "dd", "div", "dl", "dt", "figcaption", "figure", "hr", "li", "ol", "p", "pre", "ul",
	"a", "abbr", "b", "bdi", "bdo", "br", "cite", "code", "data", "dfn", "em", "i", "kbd", "mark",
	"q", "rb", "rp", "rt", "rtc", "ruby", "s", "samp", "small", "span", "strong", "sub", "sup",
	"time", "u", "var", "wbr",
	"caption", "col", "colgroup", "table", "tbody", "td", "tfoot", "th", "thead", "tr",
	"img",
}

// Inline style properties kept on any element. Each value is checked by
// bluemonday's CSS handlers, so nothing here can carry a url().
var allowedStyles = []string{
	"color", "background-color",
	"font-family", "font-size", "font-style", "font-weight", "line-height",
	"text-align", "text-decoration", "text-indent", "vertical-align", "white-space",
	"width", "height", "float",
	"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
	"border-collapse", "list-style-type",
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedElements...)
	// A link whose href was stripped keeps its element and text.
	p.AllowNoAttrs().OnElements("a")
	p.AllowAttrs("href", "name", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("style").Globally()
	p.AllowStyles(allowedStyles...).Globally()
	p.AllowURLSchemes("http", "https", "data")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	return p
}

// Clean returns html restricted to the allow-lists. Scripts, event handler
// attributes and unknown elements are removed; URL attributes with any scheme
// other than http, https or data are dropped while their element is kept.
// Clean never fails and Clean(Clean(x)) == Clean(x).
func Clean(html string) string {
	return policy.Sanitize(html)
}
