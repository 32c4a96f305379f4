// Package content holds the article lifecycle: the data model, the storage
// contract, slug assignment and the publisher that creates and edits
// articles.
package content

import "time"

// DefaultCategory is used when an article is saved with a blank category.
const DefaultCategory = "General"

// Length bounds, counted in runes after trimming.
const (
	MinTitleLen   = 1
	MaxTitleLen   = 180
	MinExcerptLen = 20
	MaxExcerptLen = 400
	MinCommentLen = 1
	MaxCommentLen = 800
)

// Article is the core content type.
type Article struct {
	ID            string
	Title         string
	Slug          string
	Excerpt       string
	ContentHTML   string
	CoverImageURL string
	AuthorID      string
	Tags          []string
	Category      string
	Likes         []string // user ids, each at most once
	Views         int64
	Published     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LikeCount is the size of the likes set.
func (a Article) LikeCount() int {
	return len(a.Likes)
}

// LikedBy reports whether userID is in the likes set.
func (a Article) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range a.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Link is the public path of the article.
func (a Article) Link() string {
	return "/news/" + a.Slug
}

// Comment is a reader comment on an article. Comments are never edited.
type Comment struct {
	ID        string
	ArticleID string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// CategoryCount is the number of published articles in a category.
type CategoryCount struct {
	Name  string
	Count int
}
