package blogservice

import (
	"context"
	"strings"
	"time"

	"github.com/sushihentaime/nanoblog/internal/common"
)

// cursorLayouts are tried in order by ParseCursor. Fractional seconds are accepted by
// each of them.
var cursorLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// FormatCursor renders t the way feeds report it in last_updated.
func FormatCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseCursor reads the last_updated value sent by a polling client. An empty string
// means no cursor. Timestamps without a zone are UTC.
func ParseCursor(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	for _, layout := range cursorLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return &t, nil
		}
	}

	return nil, common.FieldError("last_updated", "must be a valid timestamp")
}

// Assemble builds a feed from posts sorted newest first. With a cursor only the posts
// created strictly after it are kept. Comments are loaded in one call for all posts
// that remain.
func Assemble(ctx context.Context, posts []Post, cursor *time.Time, comments CommentSource) (*Feed, error) {
	feed := &Feed{
		Items:       []FeedItem{},
		Incremental: cursor != nil,
	}

	if cursor != nil {
		feed.LastUpdated = FormatCursor(*cursor)

		newer := make([]Post, 0, len(posts))
		for _, p := range posts {
			if p.CreatedAt.After(*cursor) {
				newer = append(newer, p)
			}
		}
		posts = newer
	}

	if len(posts) == 0 {
		return feed, nil
	}

	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	byPost, err := comments.CommentsByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		c := byPost[p.ID]
		if c == nil {
			c = []Comment{}
		}

		feed.Items = append(feed.Items, FeedItem{
			Post:        p,
			Comments:    c,
			LastUpdated: FormatCursor(p.CreatedAt),
		})
	}

	feed.LastUpdated = feed.Items[0].LastUpdated

	return feed, nil
}
