// Package sqlite is the embedded SQLite implementation of content.Store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/content"
)

// Store wraps a SQLite database holding articles, likes and comments.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ content.Store = (*Store)(nil)

// Open opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; the busy timeout makes writers
	// queue instead of failing with SQLITE_BUSY. Pragmas go in the DSN so
	// every pooled connection gets them. Transactions begin IMMEDIATE so a
	// read-modify-write holds the write lock from its first statement.
	dsn := "file:" + path +
		"?_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    content_html TEXT NOT NULL,
    cover_image_url TEXT NOT NULL DEFAULT '',
    author_id TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'General',
    views INTEGER NOT NULL DEFAULT 0,
    published INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_published_created ON articles(published, created_at);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

CREATE TABLE IF NOT EXISTS article_likes (
    article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (article_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_article ON comments(article_id, created_at);
`)
	return err
}

const articleColumns = `a.id, a.slug, a.title, a.excerpt, a.content_html, a.cover_image_url, a.author_id,
    a.tags, a.category, a.views, a.published, a.created_at, a.updated_at,
    (SELECT json_group_array(l.user_id ORDER BY l.created_at, l.rowid) FROM article_likes l WHERE l.article_id = a.id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (content.Article, error) {
	var (
		a                content.Article
		tags             string
		published        int
		created, updated int64
		likes            string
	)
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Excerpt, &a.ContentHTML, &a.CoverImageURL, &a.AuthorID,
		&tags, &a.Category, &a.Views, &published, &created, &updated, &likes)
	if err != nil {
		return content.Article{}, err
	}
	a.Tags = ParseTags(tags)
	a.Published = published == 1
	a.CreatedAt = time.Unix(0, created).UTC()
	a.UpdatedAt = time.Unix(0, updated).UTC()
	if err := json.Unmarshal([]byte(likes), &a.Likes); err != nil {
		return content.Article{}, fmt.Errorf("decode likes: %w", err)
	}
	if len(a.Likes) == 0 {
		a.Likes = nil
	}
	return a, nil
}

func (s *Store) queryArticles(ctx context.Context, op, query string, args ...any) ([]content.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *Store) getArticle(ctx context.Context, op, where string, args ...any) (content.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles a WHERE `+where, args...)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Article{}, fmt.Errorf("article %v: %w", args[0], apperr.ErrNotFound)
	}
	if err != nil {
		return content.Article{}, apperr.Storage(op, err)
	}
	return a, nil
}

// SlugExists reports whether any article, published or not, uses slug.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE slug = ?`, slug).Scan(&n)
	if err != nil {
		return false, apperr.Storage("slug exists", err)
	}
	return n > 0, nil
}

// CreateArticle inserts a with a fresh id and timestamps.
func (s *Store) CreateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	now := s.now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Views = 0
	a.Likes = nil
	_, err := s.db.ExecContext(ctx, `INSERT INTO articles
        (id, slug, title, excerpt, content_html, cover_image_url, author_id, tags, category, views, published, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		a.ID, a.Slug, a.Title, a.Excerpt, a.ContentHTML, a.CoverImageURL, a.AuthorID,
		JoinTags(a.Tags), a.Category, boolInt(a.Published), now.UnixNano(), now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return content.Article{}, fmt.Errorf("slug %q: %w", a.Slug, apperr.ErrConflict)
		}
		return content.Article{}, apperr.Storage("insert article", err)
	}
	return a, nil
}

// UpdateArticle writes the editable fields of a. Slug, author, views and
// likes are left alone.
func (s *Store) UpdateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET
        title = ?, excerpt = ?, content_html = ?, cover_image_url = ?, tags = ?, category = ?, published = ?, updated_at = ?
        WHERE id = ?`,
		a.Title, a.Excerpt, a.ContentHTML, a.CoverImageURL, JoinTags(a.Tags), a.Category, boolInt(a.Published), now.UnixNano(), a.ID)
	if err != nil {
		return content.Article{}, apperr.Storage("update article", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return content.Article{}, apperr.Storage("update article", err)
	} else if n == 0 {
		return content.Article{}, fmt.Errorf("article %q: %w", a.ID, apperr.ErrNotFound)
	}
	return s.GetArticle(ctx, a.ID)
}

// DeleteArticle removes an article with its likes and comments.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("delete article", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return apperr.Storage("delete article", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM article_likes WHERE article_id = ?`, id); err != nil {
		return apperr.Storage("delete likes", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE article_id = ?`, id); err != nil {
		return apperr.Storage("delete comments", err)
	}
	return apperr.Storage("delete article", tx.Commit())
}

// GetArticle returns an article by id regardless of published status.
func (s *Store) GetArticle(ctx context.Context, id string) (content.Article, error) {
	return s.getArticle(ctx, "get article", `a.id = ?`, id)
}

// GetArticleBySlug returns an article by slug, optionally only if published.
func (s *Store) GetArticleBySlug(ctx context.Context, slug string, publishedOnly bool) (content.Article, error) {
	if publishedOnly {
		return s.getArticle(ctx, "get article", `a.slug = ? AND a.published = 1`, slug)
	}
	return s.getArticle(ctx, "get article", `a.slug = ?`, slug)
}

// ListArticles returns every article (published and drafts), newest first.
func (s *Store) ListArticles(ctx context.Context) ([]content.Article, error) {
	return s.queryArticles(ctx, "list articles",
		`SELECT `+articleColumns+` FROM articles a ORDER BY a.created_at DESC`)
}

// ListPublished returns published articles created at or after since.
func (s *Store) ListPublished(ctx context.Context, since time.Time) ([]content.Article, error) {
	var from int64
	if !since.IsZero() {
		from = since.UnixNano()
	}
	return s.queryArticles(ctx, "list published",
		`SELECT `+articleColumns+` FROM articles a WHERE a.published = 1 AND a.created_at >= ? ORDER BY a.created_at DESC`, from)
}

// LatestPublished returns up to limit published articles, newest first.
func (s *Store) LatestPublished(ctx context.Context, limit int) ([]content.Article, error) {
	return s.queryArticles(ctx, "latest published",
		`SELECT `+articleColumns+` FROM articles a WHERE a.published = 1 ORDER BY a.created_at DESC LIMIT ?`, limit)
}

// ListByCategory returns one page of a category's published articles and
// the category's total.
func (s *Store) ListByCategory(ctx context.Context, category string, offset, limit int) ([]content.Article, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE published = 1 AND category = ?`, category).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Storage("count category", err)
	}
	articles, err := s.queryArticles(ctx, "list category",
		`SELECT `+articleColumns+` FROM articles a WHERE a.published = 1 AND a.category = ?
         ORDER BY a.created_at DESC LIMIT ? OFFSET ?`, category, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// CountByCategory groups published articles by category.
func (s *Store) CountByCategory(ctx context.Context) ([]content.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(1) AS n FROM articles WHERE published = 1 GROUP BY category ORDER BY n DESC, category ASC`)
	if err != nil {
		return nil, apperr.Storage("count by category", err)
	}
	defer rows.Close()

	var counts []content.CategoryCount
	for rows.Next() {
		var cc content.CategoryCount
		var name sql.NullString
		if err := rows.Scan(&name, &cc.Count); err != nil {
			return nil, apperr.Storage("count by category", err)
		}
		cc.Name = name.String
		counts = append(counts, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("count by category", err)
	}
	return counts, nil
}

// IncrementViews adds one to the article's view counter.
func (s *Store) IncrementViews(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return apperr.Storage("increment views", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// UpdateLikes runs fn over the article's likes inside one IMMEDIATE
// transaction, so concurrent togglers queue on SQLite's write lock instead
// of interleaving their reads.
func (s *Store) UpdateLikes(ctx context.Context, id string, fn func([]string) []string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("update likes", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, apperr.Storage("update likes", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("article %q: %w", id, apperr.ErrNotFound)
	}

	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM article_likes WHERE article_id = ? ORDER BY created_at, rowid`, id)
	if err != nil {
		return nil, apperr.Storage("read likes", err)
	}
	var current []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			rows.Close()
			return nil, apperr.Storage("read likes", err)
		}
		current = append(current, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("read likes", err)
	}

	next := fn(current)
	removed, added := diff(current, next)
	for _, u := range removed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM article_likes WHERE article_id = ? AND user_id = ?`, id, u); err != nil {
			return nil, apperr.Storage("remove like", err)
		}
	}
	now := s.now().UnixNano()
	for i, u := range added {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO article_likes (article_id, user_id, created_at) VALUES (?, ?, ?)`, id, u, now+int64(i)); err != nil {
			return nil, apperr.Storage("add like", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("update likes", err)
	}
	return next, nil
}

// CreateComment stores c with a fresh id.
func (s *Store) CreateComment(ctx context.Context, c content.Comment) (content.Comment, error) {
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.CreatedAt = c.CreatedAt.UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO comments (id, article_id, user_id, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ArticleID, c.UserID, c.Text, c.CreatedAt.UnixNano())
	if err != nil {
		return content.Comment{}, apperr.Storage("insert comment", err)
	}
	return c, nil
}

// ListComments returns up to limit comments on an article, newest first.
func (s *Store) ListComments(ctx context.Context, articleID string, limit int) ([]content.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, article_id, user_id, text, created_at FROM comments
        WHERE article_id = ? ORDER BY created_at DESC LIMIT ?`, articleID, limit)
	if err != nil {
		return nil, apperr.Storage("list comments", err)
	}
	defer rows.Close()

	var comments []content.Comment
	for rows.Next() {
		var c content.Comment
		var created int64
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.UserID, &c.Text, &created); err != nil {
			return nil, apperr.Storage("list comments", err)
		}
		c.CreatedAt = time.Unix(0, created).UTC()
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list comments", err)
	}
	return comments, nil
}

// JoinTags encodes tags as a comma-delimited string with leading and
// trailing commas (e.g. ",go,web,") so single tags can be matched with instr.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
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
