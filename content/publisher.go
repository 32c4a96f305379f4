package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/sanitize"
)

// Event kinds passed to a Notifier.
const (
	EventCreated = "article.created"
	EventUpdated = "article.updated"
	EventDeleted = "article.deleted"
)

// Notifier is told about committed article writes. Failures are logged and
// never undo the write.
type Notifier interface {
	Notify(ctx context.Context, kind string, a Article) error
}

// PublisherStore is the storage a Publisher needs.
type PublisherStore interface {
	SlugChecker
	ArticleWriter
	GetArticle(ctx context.Context, id string) (Article, error)
}

// CreateInput is the raw admin form for a new article.
type CreateInput struct {
	Title         string
	Excerpt       string
	ContentHTML   string
	CoverImageURL string
	Tags          string // comma separated
	Category      string
	AuthorID      string
}

// UpdateInput is the raw admin form for an edit. Published and
// CoverImageURL are only applied when Set.
type UpdateInput struct {
	Title         string
	Excerpt       string
	ContentHTML   string
	Tags          string
	Category      string
	Published     Field[bool]
	CoverImageURL Field[string]
}

// Publisher creates, edits and deletes articles.
type Publisher struct {
	store    PublisherStore
	slugs    *SlugAssigner
	clean    func(string) string
	notifier Notifier
	log      *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithNotifier registers n to be told about every committed write.
func WithNotifier(n Notifier) PublisherOption {
	return func(p *Publisher) {
		p.notifier = n
	}
}

// WithLogger sets the publisher's logger (default slog.Default()).
func WithLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.log = l
	}
}

func NewPublisher(store PublisherStore, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store: store,
		slugs: NewSlugAssigner(store),
		clean: sanitize.Clean,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create validates in, assigns a slug, sanitizes the content and stores a
// published article. A slug conflict at commit is retried once.
func (p *Publisher) Create(ctx context.Context, in CreateInput) (Article, error) {
	title, excerpt, err := validateText(in.Title, in.Excerpt)
	if err != nil {
		return Article{}, err
	}
	if strings.TrimSpace(in.AuthorID) == "" {
		return Article{}, apperr.NewValidation("author", "Author is required.")
	}
	a := Article{
		Title:         title,
		Excerpt:       excerpt,
		ContentHTML:   p.clean(in.ContentHTML),
		CoverImageURL: strings.TrimSpace(in.CoverImageURL),
		AuthorID:      in.AuthorID,
		Tags:          NormalizeTags(in.Tags),
		Category:      NormalizeCategory(in.Category),
		Published:     true,
	}

	var created Article
	for attempt := 0; attempt < 2; attempt++ {
		a.Slug, err = p.slugs.Assign(ctx, title)
		if err != nil {
			return Article{}, err
		}
		created, err = p.store.CreateArticle(ctx, a)
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			break
		}
		p.log.Warn("slug taken at commit, retrying", "slug", a.Slug, "attempt", attempt+1)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return Article{}, fmt.Errorf("slug %q was taken by a concurrent publish, try again: %w", a.Slug, err)
		}
		return Article{}, apperr.Storage("create article", err)
	}
	p.log.Info("article published", "id", created.ID, "slug", created.Slug)
	p.notify(ctx, EventCreated, created)
	return created, nil
}

// Update re-validates and re-sanitizes an existing article. The slug is
// never re-derived.
func (p *Publisher) Update(ctx context.Context, id string, in UpdateInput) (Article, error) {
	title, excerpt, err := validateText(in.Title, in.Excerpt)
	if err != nil {
		return Article{}, err
	}
	a, err := p.store.GetArticle(ctx, id)
	if err != nil {
		return Article{}, apperr.Storage("get article", err)
	}
	a.Title = title
	a.Excerpt = excerpt
	a.ContentHTML = p.clean(in.ContentHTML)
	a.Tags = NormalizeTags(in.Tags)
	a.Category = NormalizeCategory(in.Category)
	if published, ok := in.Published.Get(); ok {
		a.Published = published
	}
	if cover, ok := in.CoverImageURL.Get(); ok {
		a.CoverImageURL = strings.TrimSpace(cover)
	}

	updated, err := p.store.UpdateArticle(ctx, a)
	if err != nil {
		return Article{}, apperr.Storage("update article", err)
	}
	p.log.Info("article updated", "id", updated.ID, "slug", updated.Slug, "published", updated.Published)
	p.notify(ctx, EventUpdated, updated)
	return updated, nil
}

// Delete removes an article together with its comments and likes.
func (p *Publisher) Delete(ctx context.Context, id string) error {
	a, err := p.store.GetArticle(ctx, id)
	if err != nil {
		return apperr.Storage("get article", err)
	}
	if err := p.store.DeleteArticle(ctx, id); err != nil {
		return apperr.Storage("delete article", err)
	}
	p.log.Info("article deleted", "id", id, "slug", a.Slug)
	p.notify(ctx, EventDeleted, a)
	return nil
}

func (p *Publisher) notify(ctx context.Context, kind string, a Article) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, kind, a); err != nil {
		p.log.Warn("article event not delivered", "kind", kind, "id", a.ID, "error", err)
	}
}

func validateText(title, excerpt string) (string, string, error) {
	title = strings.TrimSpace(title)
	excerpt = strings.TrimSpace(excerpt)
	if n := utf8.RuneCountInString(title); n < MinTitleLen || n > MaxTitleLen {
		return "", "", apperr.NewValidation("title", fmt.Sprintf("Title must be between %d and %d characters.", MinTitleLen, MaxTitleLen))
	}
	if n := utf8.RuneCountInString(excerpt); n < MinExcerptLen || n > MaxExcerptLen {
		return "", "", apperr.NewValidation("excerpt", fmt.Sprintf("Excerpt must be between %d and %d characters.", MinExcerptLen, MaxExcerptLen))
	}
	return title, excerpt, nil
}

// NormalizeTags splits a comma separated list, trims every token and drops
// empty ones. Order and duplicates are kept.
func NormalizeTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeCategory trims c and falls back to DefaultCategory.
func NormalizeCategory(c string) string {
	if c = strings.TrimSpace(c); c == "" {
		return DefaultCategory
	}
	return c
}

// ValidateComment trims text and checks its length bounds.
func ValidateComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < MinCommentLen {
		return "", apperr.NewValidation("text", "Comment cannot be empty.")
	} else if n > MaxCommentLen {
		return "", apperr.NewValidation("text", fmt.Sprintf("Comment must be at most %d characters.", MaxCommentLen))
	}
	return text, nil
}
