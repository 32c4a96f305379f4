package newsdesk

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/content"
)

// FeedLimit is the number of articles in the RSS feed.
const FeedLimit = 30

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Category    string   `xml:"category,omitempty"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
	Enclosure   *rssEncl `xml:"enclosure,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEncl struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

func (a *App) buildFeed(articles []content.Article) rssXML {
	base := a.Config.URL
	items := make([]rssItem, 0, len(articles))
	for _, art := range articles {
		link := BuildURL(base, "news", art.Slug)
		item := rssItem{
			Title:       art.Title,
			Link:        link,
			Description: art.Excerpt,
			Category:    art.Category,
			PubDate:     art.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{Value: art.ID},
		}
		if art.CoverImageURL != "" {
			item.Enclosure = &rssEncl{URL: a.absoluteURL(art.CoverImageURL), Type: "image/jpeg"}
		}
		items = append(items, item)
	}
	return rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Items:       items,
		},
	}
}

// absoluteURL resolves a site-relative path like /uploads/x.jpg against the
// canonical URL.
func (a *App) absoluteURL(ref string) string {
	if len(ref) > 0 && ref[0] == '/' {
		return BuildURL(a.Config.URL, ref)
	}
	return ref
}

func (a *App) renderRSS(c echo.Context, articles []content.Article) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(a.buildFeed(articles))
}
