package archive

import (
	"context"
	"iter"
	"strings"
)

// paginate drives the archive API's "next"-link pagination strictly
// serially (§5: "pagination is strictly serial"), yielding one result
// at a time via a Go range-over-func iterator so callers can stop
// early without fetching further pages.
func paginate[T any](c *Client, ctx context.Context, firstPath string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		path := firstPath
		for path != "" {
			var page Page[T]
			if err := c.getJSON(ctx, toRelative(c.baseURL, path), &page); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Results {
				if !yield(item, nil) {
					return
				}
			}
			if page.Next == nil {
				return
			}
			path = toRelative(c.baseURL, *page.Next)
		}
	}
}

// toRelative strips baseURL from an absolute "next" link the archive
// API may return, since getJSON always prefixes with c.baseURL itself.
func toRelative(baseURL, path string) string {
	if strings.HasPrefix(path, baseURL) {
		return strings.TrimPrefix(path, baseURL)
	}
	return path
}
