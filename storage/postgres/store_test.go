package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/engagement"
)

// setupTestStore connects to NEWSDESK_TEST_PG_DSN and truncates the tables.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("NEWSDESK_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("NEWSDESK_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	_, err = s.db.Exec(ctx, `TRUNCATE comments, article_likes, articles`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newArticle(slug, category string, published bool) content.Article {
	return content.Article{
		Slug:        slug,
		Title:       "Title " + slug,
		Excerpt:     "An excerpt for " + slug + " that is long enough.",
		ContentHTML: "<p>" + slug + "</p>",
		AuthorID:    "admin",
		Tags:        []string{"news"},
		Category:    category,
		Published:   published,
	}
}

func TestCreateGetAndConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a, err := s.CreateArticle(ctx, newArticle("pg-first", "Tech", true))
	require.NoError(t, err)
	_, err = uuid.Parse(a.ID)
	require.NoError(t, err)

	got, err := s.GetArticleBySlug(ctx, "pg-first", true)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, []string{"news"}, got.Tags)

	_, err = s.CreateArticle(ctx, newArticle("pg-first", "Tech", true))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.GetArticle(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.GetArticle(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCountByCategoryAndListing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i, cat := range []string{"World", "Tech", "World", "Sports"} {
		_, err := s.CreateArticle(ctx, newArticle("pg-"+cat+"-"+string(rune('a'+i)), cat, true))
		require.NoError(t, err)
	}
	_, err := s.CreateArticle(ctx, newArticle("pg-hidden", "World", false))
	require.NoError(t, err)

	counts, err := s.CountByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, content.CategoryCount{Name: "World", Count: 2}, counts[0])

	page, total, err := s.ListByCategory(ctx, "World", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 1)

	recent, err := s.ListPublished(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 4)
}

func TestConcurrentViewsAndLikes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a, err := s.CreateArticle(ctx, newArticle("pg-busy", "Tech", true))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.IncrementViews(ctx, a.ID))
			_, err := s.UpdateLikes(ctx, a.ID, func(likes []string) []string {
				return engagement.ToggleLike(likes, uuid.NewString())
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Views)
	assert.Equal(t, 20, got.LikeCount())
}

func TestDeleteCascadesComments(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a, err := s.CreateArticle(ctx, newArticle("pg-gone", "Tech", true))
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, content.Comment{ArticleID: a.ID, UserID: "u1", Text: "hello"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteArticle(ctx, a.ID))
	comments, err := s.ListComments(ctx, a.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.ErrorIs(t, s.DeleteArticle(ctx, a.ID), apperr.ErrNotFound)
}
