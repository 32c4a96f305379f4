package newsdesk

import (
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if len(pathSegments) == 0 {
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		return u.String()
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// ParsePage reads a 1-based page number, falling back to 1 for anything
// that is not a positive integer.
func ParsePage(s string) int {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// PageOffset is the number of items before page, saturating instead of
// overflowing for absurd page numbers so they read as an empty page.
func PageOffset(page, perPage int) int {
	if page < 1 || perPage <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// TotalPages is the number of pages needed for total items, never less than 1.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
