package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk/content"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

func likes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

func slugs(articles []content.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Slug
	}
	return out
}

func TestTrendingCompoundTieBreak(t *testing.T) {
	articles := []content.Article{
		{Slug: "a", Views: 10, Likes: likes(2), CreatedAt: day(1), Published: true},
		{Slug: "b", Views: 10, Likes: likes(5), CreatedAt: day(2), Published: true},
		{Slug: "c", Views: 15, Likes: nil, CreatedAt: day(3), Published: true},
	}

	got := Trending(articles, now, TrendingPageLimit)

	assert.Equal(t, []string{"c", "b", "a"}, slugs(got))
}

func TestTrendingFallsBackToRecency(t *testing.T) {
	articles := []content.Article{
		{Slug: "older", Views: 3, Likes: likes(1), CreatedAt: day(5), Published: true},
		{Slug: "newer", Views: 3, Likes: likes(1), CreatedAt: day(4), Published: true},
	}

	assert.Equal(t, []string{"newer", "older"}, slugs(Trending(articles, now, 0)))
}

func TestTrendingFiltersWindowAndDrafts(t *testing.T) {
	articles := []content.Article{
		{Slug: "old", Views: 1000, CreatedAt: day(31), Published: true},
		{Slug: "edge", Views: 1, CreatedAt: now.Add(-TrendingWindow), Published: true},
		{Slug: "draft", Views: 500, CreatedAt: day(1), Published: false},
		{Slug: "fresh", Views: 2, CreatedAt: day(1), Published: true},
	}

	assert.Equal(t, []string{"fresh", "edge"}, slugs(Trending(articles, now, 10)))
}

func TestTrendingTruncates(t *testing.T) {
	var articles []content.Article
	for i := 0; i < 10; i++ {
		articles = append(articles, content.Article{Slug: string(rune('a' + i)), Views: int64(i), CreatedAt: day(1), Published: true})
	}

	got := Trending(articles, now, HomeTrendingLimit)

	require.Len(t, got, HomeTrendingLimit)
	assert.Equal(t, "j", got[0].Slug)
}

func TestLatestIgnoresRecencyWindow(t *testing.T) {
	articles := []content.Article{
		{Slug: "ancient", CreatedAt: day(400), Published: true},
		{Slug: "today", CreatedAt: day(0), Published: true},
		{Slug: "draft", CreatedAt: day(0).Add(time.Hour), Published: false},
		{Slug: "week", CreatedAt: day(7), Published: true},
	}

	assert.Equal(t, []string{"today", "week", "ancient"}, slugs(Latest(articles, HomeLatestLimit)))
	assert.Equal(t, []string{"today"}, slugs(Latest(articles, 1)))
}

func TestCategoryListing(t *testing.T) {
	in := []content.CategoryCount{
		{Name: "World", Count: 2},
		{Name: "Tech", Count: 5},
		{Name: "Business", Count: 2},
		{Name: "Arts", Count: 1},
	}

	got := CategoryListing(in)

	assert.Equal(t, []content.CategoryCount{
		{Name: "Tech", Count: 5},
		{Name: "Business", Count: 2},
		{Name: "World", Count: 2},
		{Name: "Arts", Count: 1},
	}, got)
	assert.Equal(t, "World", in[0].Name, "input must not be reordered")
}

func TestGroupByCategory(t *testing.T) {
	articles := []content.Article{
		{Category: "Tech", Published: true},
		{Category: "World", Published: true},
		{Category: "Tech", Published: true},
		{Category: "Tech", Published: false},
	}

	assert.Equal(t, []content.CategoryCount{{Name: "Tech", Count: 2}, {Name: "World", Count: 1}}, GroupByCategory(articles))
}

type fakeSource struct {
	articles []content.Article
	since    time.Time
	err      error
}

func (f *fakeSource) CountByCategory(ctx context.Context) ([]content.CategoryCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []content.CategoryCount{{Name: "b", Count: 1}, {Name: "a", Count: 1}}, nil
}

func (f *fakeSource) ListPublished(ctx context.Context, since time.Time) ([]content.Article, error) {
	f.since = since
	return f.articles, f.err
}

func (f *fakeSource) LatestPublished(ctx context.Context, limit int) ([]content.Article, error) {
	return f.articles, f.err
}

func TestEngine(t *testing.T) {
	src := &fakeSource{articles: []content.Article{
		{Slug: "x", Views: 1, CreatedAt: day(2), Published: true},
		{Slug: "y", Views: 9, CreatedAt: day(3), Published: true},
	}}
	e := NewEngine(src)
	ctx := context.Background()

	trending, err := e.Trending(ctx, now, TrendingPageLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, slugs(trending))
	assert.Equal(t, now.Add(-TrendingWindow), src.since)

	latest, err := e.Latest(ctx, HomeLatestLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, slugs(latest))

	cats, err := e.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", cats[0].Name)

	src.err = errors.New("boom")
	_, err = e.Trending(ctx, now, 1)
	assert.Error(t, err)
}
