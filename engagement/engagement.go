// Package engagement implements reader interactions with an article: the
// once-per-session view counter, like toggling and comments.
package engagement

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/eringen/newsdesk/apperr"
	"github.com/eringen/newsdesk/content"
)

// RecordView adds slug to the session's viewed set. The second result is
// true when the slug was not yet in the set and the article's counter
// should be incremented. The input slice is never modified.
func RecordView(viewed []string, slug string) ([]string, bool) {
	if slices.Contains(viewed, slug) {
		return viewed, false
	}
	out := make([]string, len(viewed), len(viewed)+1)
	copy(out, viewed)
	return append(out, slug), true
}

// ToggleLike removes userID from likes if present, otherwise appends it.
// Applying it twice returns the original membership. A retried request
// after a successful toggle therefore undoes it.
func ToggleLike(likes []string, userID string) []string {
	out := make([]string, 0, len(likes)+1)
	found := false
	for _, id := range likes {
		if id == userID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, userID)
	}
	return out
}

// Store is the storage a Tracker needs.
type Store interface {
	content.ViewCounter
	content.LikeUpdater
	content.CommentStore
}

// Tracker applies engagement actions against storage.
type Tracker struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

func NewTracker(store Store, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{store: store, now: time.Now, log: log}
}

// CountView records a view of a in the session's viewed set and increments
// the stored counter the first time the session sees the article. The
// updated set is handed to remember before storage is touched; when
// remember fails the view is not counted, so a session that cannot keep
// its set never increments the same article twice. It returns the set the
// session now holds and the article with its view count adjusted.
func (t *Tracker) CountView(ctx context.Context, viewed []string, a content.Article, remember func([]string) error) ([]string, content.Article, error) {
	updated, increment := RecordView(viewed, a.Slug)
	if !increment {
		return viewed, a, nil
	}
	if err := remember(updated); err != nil {
		t.log.Warn("view not counted: session not saved", "slug", a.Slug, "error", err)
		return viewed, a, nil
	}
	if err := t.store.IncrementViews(ctx, a.ID); err != nil {
		return updated, a, apperr.Storage("increment views", err)
	}
	a.Views++
	return updated, a, nil
}

// ToggleLike flips userID's membership in the article's likes and reports
// whether the user now likes it.
func (t *Tracker) ToggleLike(ctx context.Context, articleID, userID string) (bool, error) {
	if userID == "" {
		return false, apperr.NewValidation("user", "Please login to continue.")
	}
	likes, err := t.store.UpdateLikes(ctx, articleID, func(likes []string) []string {
		return ToggleLike(likes, userID)
	})
	if err != nil {
		return false, apperr.Storage("toggle like", err)
	}
	liked := slices.Contains(likes, userID)
	t.log.Debug("like toggled", "article", articleID, "user", userID, "liked", liked)
	return liked, nil
}

// Comment stores a new comment by userID on a.
func (t *Tracker) Comment(ctx context.Context, a content.Article, userID, text string) (content.Comment, error) {
	if userID == "" {
		return content.Comment{}, apperr.NewValidation("user", "Please login to continue.")
	}
	text, err := content.ValidateComment(text)
	if err != nil {
		return content.Comment{}, err
	}
	c, err := t.store.CreateComment(ctx, content.Comment{
		ArticleID: a.ID,
		UserID:    userID,
		Text:      text,
		CreatedAt: t.now(),
	})
	if err != nil {
		return content.Comment{}, apperr.Storage("create comment", err)
	}
	return c, nil
}
