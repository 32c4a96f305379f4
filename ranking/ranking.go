// Package ranking orders articles and categories for the public read paths.
// The ordering functions are pure; Engine only fetches their input.
package ranking

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/eringen/newsdesk/content"
)

// TrendingWindow bounds how old an article may be to trend.
const TrendingWindow = 30 * 24 * time.Hour

const (
	TrendingPageLimit = 30
	HomeTrendingLimit = 6
	HomeLatestLimit   = 18
)

// CategoryListing sorts counts by count descending, then name ascending.
// The input is not modified.
func CategoryListing(counts []content.CategoryCount) []content.CategoryCount {
	out := slices.Clone(counts)
	slices.SortStableFunc(out, func(a, b content.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// GroupByCategory counts published articles per category and returns the
// result in listing order.
func GroupByCategory(articles []content.Article) []content.CategoryCount {
	idx := make(map[string]int)
	var counts []content.CategoryCount
	for _, a := range articles {
		if !a.Published {
			continue
		}
		i, ok := idx[a.Category]
		if !ok {
			i = len(counts)
			idx[a.Category] = i
			counts = append(counts, content.CategoryCount{Name: a.Category})
		}
		counts[i].Count++
	}
	return CategoryListing(counts)
}

// Trending keeps published articles created within TrendingWindow of now
// and orders them by views, then like count, then creation time, all
// descending. limit <= 0 means no truncation.
func Trending(articles []content.Article, now time.Time, limit int) []content.Article {
	since := now.Add(-TrendingWindow)
	var out []content.Article
	for _, a := range articles {
		if a.Published && !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b content.Article) int {
		if c := cmp.Compare(b.Views, a.Views); c != 0 {
			return c
		}
		if c := cmp.Compare(b.LikeCount(), a.LikeCount()); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(out, limit)
}

// Latest keeps published articles ordered newest first.
func Latest(articles []content.Article, limit int) []content.Article {
	var out []content.Article
	for _, a := range articles {
		if a.Published {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b content.Article) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(out, limit)
}

func truncate(articles []content.Article, limit int) []content.Article {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

// Source is the storage the Engine reads from.
type Source interface {
	content.CategoryCounter
	ListPublished(ctx context.Context, since time.Time) ([]content.Article, error)
	LatestPublished(ctx context.Context, limit int) ([]content.Article, error)
}

// Engine feeds storage aggregates into the ranking functions.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Categories returns every published category with its count.
func (e *Engine) Categories(ctx context.Context) ([]content.CategoryCount, error) {
	counts, err := e.src.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	return CategoryListing(counts), nil
}

// Trending returns up to limit trending articles as of now.
func (e *Engine) Trending(ctx context.Context, now time.Time, limit int) ([]content.Article, error) {
	articles, err := e.src.ListPublished(ctx, now.Add(-TrendingWindow))
	if err != nil {
		return nil, err
	}
	return Trending(articles, now, limit), nil
}

// Latest returns up to limit published articles, newest first.
func (e *Engine) Latest(ctx context.Context, limit int) ([]content.Article, error) {
	articles, err := e.src.LatestPublished(ctx, limit)
	if err != nil {
		return nil, err
	}
	return Latest(articles, limit), nil
}
