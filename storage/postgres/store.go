// Package postgres is the PostgreSQL implementation of content.Store, built
// on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/content"
)

const uniqueViolation = "23505"

type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

var _ content.Store = (*Store)(nil)

// Open connects to connStr, pings the server and ensures the schema.
func Open(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	s := &Store{db: pool, now: time.Now}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// Ping checks a pooled connection.
func (s *Store) Ping(ctx context.Context) error {
	c, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return c.Ping(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS articles (
    id UUID PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    content_html TEXT NOT NULL,
    cover_image_url TEXT NOT NULL DEFAULT '',
    author_id TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    category TEXT NOT NULL DEFAULT 'General',
    views BIGINT NOT NULL DEFAULT 0,
    published BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_published_created ON articles(published, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

CREATE TABLE IF NOT EXISTS article_likes (
    article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    seq BIGSERIAL,
    PRIMARY KEY (article_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
    id UUID PRIMARY KEY,
    article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_article ON comments(article_id, created_at DESC);
`)
	return err
}

const articleColumns = `a.id::text, a.slug, a.title, a.excerpt, a.content_html, a.cover_image_url, a.author_id,
    a.tags, a.category, a.views, a.published, a.created_at, a.updated_at,
    ARRAY(SELECT l.user_id FROM article_likes l WHERE l.article_id = a.id ORDER BY l.seq)`

func scanArticle(row pgx.Row) (content.Article, error) {
	var a content.Article
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Excerpt, &a.ContentHTML, &a.CoverImageURL, &a.AuthorID,
		&a.Tags, &a.Category, &a.Views, &a.Published, &a.CreatedAt, &a.UpdatedAt, &a.Likes)
	if err != nil {
		return content.Article{}, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if len(a.Tags) == 0 {
		a.Tags = nil
	}
	if len(a.Likes) == 0 {
		a.Likes = nil
	}
	return a, nil
}

func (s *Store) queryArticles(ctx context.Context, op, query string, args ...any) ([]content.Article, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	defer rows.Close()

	var articles []content.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, apperr.Storage(op, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(op, err)
	}
	return articles, nil
}

func (s *Store) getArticle(ctx context.Context, where string, key string, args ...any) (content.Article, error) {
	a, err := scanArticle(s.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles a WHERE `+where, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return content.Article{}, fmt.Errorf("article %q: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return content.Article{}, apperr.Storage("get article", err)
	}
	return a, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, apperr.Storage("slug exists", err)
	}
	return exists, nil
}

func (s *Store) CreateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Views = 0
	a.Likes = nil
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.db.Exec(ctx, `INSERT INTO articles
        (id, slug, title, excerpt, content_html, cover_image_url, author_id, tags, category, published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		a.ID, a.Slug, a.Title, a.Excerpt, a.ContentHTML, a.CoverImageURL, a.AuthorID, tags, a.Category, a.Published, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return content.Article{}, fmt.Errorf("slug %q: %w", a.Slug, apperr.ErrConflict)
		}
		return content.Article{}, apperr.Storage("insert article", err)
	}
	return a, nil
}

func (s *Store) UpdateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	if _, err := uuid.Parse(a.ID); err != nil {
		return content.Article{}, fmt.Errorf("article %q: %w", a.ID, apperr.ErrNotFound)
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	tag, err := s.db.Exec(ctx, `UPDATE articles SET
        title = $1, excerpt = $2, content_html = $3, cover_image_url = $4, tags = $5, category = $6, published = $7, updated_at = $8
        WHERE id = $9`,
		a.Title, a.Excerpt, a.ContentHTML, a.CoverImageURL, tags, a.Category, a.Published, s.now().UTC(), a.ID)
	if err != nil {
		return content.Article{}, apperr.Storage("update article", err)
	}
	if tag.RowsAffected() == 0 {
		return content.Article{}, fmt.Errorf("article %q: %w", a.ID, apperr.ErrNotFound)
	}
	return s.GetArticle(ctx, a.ID)
}

// DeleteArticle removes an article; likes and comments cascade.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("delete article", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) GetArticle(ctx context.Context, id string) (content.Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return content.Article{}, fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	return s.getArticle(ctx, `a.id = $1`, id, id)
}

func (s *Store) GetArticleBySlug(ctx context.Context, slug string, publishedOnly bool) (content.Article, error) {
	if publishedOnly {
		return s.getArticle(ctx, `a.slug = $1 AND a.published`, slug, slug)
	}
	return s.getArticle(ctx, `a.slug = $1`, slug, slug)
}

func (s *Store) ListArticles(ctx context.Context) ([]content.Article, error) {
	return s.queryArticles(ctx, "list articles",
		`SELECT `+articleColumns+` FROM articles a ORDER BY a.created_at DESC`)
}

func (s *Store) ListPublished(ctx context.Context, since time.Time) ([]content.Article, error) {
	return s.queryArticles(ctx, "list published",
		`SELECT `+articleColumns+` FROM articles a WHERE a.published AND a.created_at >= $1 ORDER BY a.created_at DESC`, since.UTC())
}

func (s *Store) LatestPublished(ctx context.Context, limit int) ([]content.Article, error) {
	return s.queryArticles(ctx, "latest published",
		`SELECT `+articleColumns+` FROM articles a WHERE a.published ORDER BY a.created_at DESC LIMIT $1`, limit)
}

func (s *Store) ListByCategory(ctx context.Context, category string, offset, limit int) ([]content.Article, int, error) {
	var total int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles WHERE published AND category = $1`, category).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Storage("count category", err)
	}
	articles, err := s.queryArticles(ctx, "list category",
		`SELECT `+articleColumns+` FROM articles a WHERE a.published AND a.category = $1
         ORDER BY a.created_at DESC LIMIT $2 OFFSET $3`, category, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *Store) CountByCategory(ctx context.Context) ([]content.CategoryCount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT category, COUNT(*) AS n FROM articles WHERE published GROUP BY category ORDER BY n DESC, category ASC`)
	if err != nil {
		return nil, apperr.Storage("count by category", err)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.CategoryCount, error) {
		var cc content.CategoryCount
		var name *string
		if err := row.Scan(&name, &cc.Count); err != nil {
			return cc, err
		}
		if name != nil {
			cc.Name = *name
		}
		return cc, nil
	})
	if err != nil {
		return nil, apperr.Storage("count by category", err)
	}
	return counts, nil
}

func (s *Store) IncrementViews(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	tag, err := s.db.Exec(ctx, `UPDATE articles SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("increment views", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// UpdateLikes locks the article row for the duration of the read-modify-write.
func (s *Store) UpdateLikes(ctx context.Context, id string, fn func([]string) []string) ([]string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Storage("update likes", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id::text FROM articles WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("lock article", err)
	}

	rows, err := tx.Query(ctx, `SELECT user_id FROM article_likes WHERE article_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, apperr.Storage("read likes", err)
	}
	current, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperr.Storage("read likes", err)
	}

	next := fn(current)
	removed, added := diff(current, next)
	if len(removed) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM article_likes WHERE article_id = $1 AND user_id = ANY($2)`, id, removed); err != nil {
			return nil, apperr.Storage("remove likes", err)
		}
	}
	now := s.now().UTC()
	for _, u := range added {
		if _, err := tx.Exec(ctx, `INSERT INTO article_likes (article_id, user_id, created_at) VALUES ($1, $2, $3)
            ON CONFLICT DO NOTHING`, id, u, now); err != nil {
			return nil, apperr.Storage("add like", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Storage("update likes", err)
	}
	return next, nil
}

func (s *Store) CreateComment(ctx context.Context, c content.Comment) (content.Comment, error) {
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Microsecond)
	_, err := s.db.Exec(ctx, `INSERT INTO comments (id, article_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.ArticleID, c.UserID, c.Text, c.CreatedAt)
	if err != nil {
		return content.Comment{}, apperr.Storage("insert comment", err)
	}
	return c, nil
}

func (s *Store) ListComments(ctx context.Context, articleID string, limit int) ([]content.Comment, error) {
	if _, err := uuid.Parse(articleID); err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id::text, article_id::text, user_id, text, created_at FROM comments
        WHERE article_id = $1 ORDER BY created_at DESC LIMIT $2`, articleID, limit)
	if err != nil {
		return nil, apperr.Storage("list comments", err)
	}
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.Comment, error) {
		var c content.Comment
		err := row.Scan(&c.ID, &c.ArticleID, &c.UserID, &c.Text, &c.CreatedAt)
		c.CreatedAt = c.CreatedAt.UTC()
		return c, err
	})
	if err != nil {
		return nil, apperr.Storage("list comments", err)
	}
	return comments, nil
}

func diff(before, after []string) (removed, added []string) {
	inAfter := make(map[string]struct{}, len(after))
	for _, u := range after {
		inAfter[u] = struct{}{}
	}
	inBefore := make(map[string]struct{}, len(before))
	for _, u := range before {
		inBefore[u] = struct{}{}
		if _, ok := inAfter[u]; !ok {
			removed = append(removed, u)
		}
	}
	for _, u := range after {
		if _, ok := inBefore[u]; !ok {
			added = append(added, u)
			inBefore[u] = struct{}{}
		}
	}
	return removed, added
}
