package content

import (
	"context"
	"time"
)

// SlugChecker reports whether a slug is already taken by any article,
// published or not.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ArticleWriter persists articles. CreateArticle assigns ID and timestamps
// and returns apperr.ErrConflict when the slug is already taken.
// UpdateArticle and DeleteArticle return apperr.ErrNotFound for unknown ids.
type ArticleWriter interface {
	CreateArticle(ctx context.Context, a Article) (Article, error)
	UpdateArticle(ctx context.Context, a Article) (Article, error)
	DeleteArticle(ctx context.Context, id string) error
}

// ArticleReader looks articles up. Lists are ordered newest first.
type ArticleReader interface {
	GetArticle(ctx context.Context, id string) (Article, error)
	GetArticleBySlug(ctx context.Context, slug string, publishedOnly bool) (Article, error)
	ListArticles(ctx context.Context) ([]Article, error)
	// ListPublished returns published articles created at or after since.
	// A zero since returns every published article.
	ListPublished(ctx context.Context, since time.Time) ([]Article, error)
	LatestPublished(ctx context.Context, limit int) ([]Article, error)
	ListByCategory(ctx context.Context, category string, offset, limit int) ([]Article, int, error)
}

// CategoryCounter aggregates published article counts grouped by category.
type CategoryCounter interface {
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
}

// ViewCounter atomically increments an article's view counter.
type ViewCounter interface {
	IncrementViews(ctx context.Context, id string) error
}

// LikeUpdater applies fn to the article's likes set as one serialized
// read-modify-write and returns the stored result.
type LikeUpdater interface {
	UpdateLikes(ctx context.Context, id string, fn func(likes []string) []string) ([]string, error)
}

// CommentStore persists and lists comments, newest first.
type CommentStore interface {
	CreateComment(ctx context.Context, c Comment) (Comment, error)
	ListComments(ctx context.Context, articleID string, limit int) ([]Comment, error)
}

// Store is the full persistence contract implemented by the storage
// backends.
type Store interface {
	SlugChecker
	ArticleWriter
	ArticleReader
	CategoryCounter
	ViewCounter
	LikeUpdater
	CommentStore
	Close() error
}
