package content

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/eringen/newsdesk/apperr"
)

// Slugify converts a title to a URL-safe token: accents are folded, letters
// lower-cased, and every run of other characters collapses to one '-'.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SlugAssigner derives slugs that are unique against the persisted set at
// call time. Two concurrent callers can still pick the same candidate; the
// store's unique constraint catches that as apperr.ErrConflict.
type SlugAssigner struct {
	slugs SlugChecker
}

func NewSlugAssigner(slugs SlugChecker) *SlugAssigner {
	return &SlugAssigner{slugs: slugs}
}

// Assign returns the first free slug among base, base-1, base-2, ...
func (a *SlugAssigner) Assign(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", apperr.NewValidation("title", "Title must contain at least one letter or digit.")
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := a.slugs.SlugExists(ctx, candidate)
		if err != nil {
			return "", apperr.Storage("check slug", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
