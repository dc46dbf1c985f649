package blogservice

import (
	"context"
	"database/sql"
	"time"
)

const MaxTextLength = 160

type Post struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedKind int

const (
	// FeedGlobal lists every post.
	FeedGlobal FeedKind = iota
	// FeedFollowing lists posts by users that UserID follows.
	FeedFollowing
	// FeedAuthor lists posts written by UserID.
	FeedAuthor
)

// FeedQuery selects the posts of a feed. The store returns them newest first.
type FeedQuery struct {
	Kind   FeedKind
	UserID int
}

// FeedItem is one post of a feed with its comments, oldest first. LastUpdated is the
// post timestamp in the cursor format.
type FeedItem struct {
	Post        Post      `json:"post"`
	Comments    []Comment `json:"comments"`
	LastUpdated string    `json:"last_updated"`
}

// Feed is an assembled feed, newest first. Incremental is set when the feed was
// narrowed by a cursor; the items are then a delta to prepend to what the client
// already shows. LastUpdated is the cursor for the next poll.
//
// A feed is not paginated: every matching post is returned.
type Feed struct {
	Items       []FeedItem `json:"items"`
	Incremental bool       `json:"incremental"`
	LastUpdated string     `json:"last_updated"`
}

// CommentSource loads the comments of many posts at once, each slice ordered oldest
// first.
type CommentSource interface {
	CommentsByPostIDs(ctx context.Context, ids []int) (map[int][]Comment, error)
}

type PostInput struct {
	Text string
}

type CommentInput struct {
	Text   string
	PostID int
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	db *sql.DB
	m  *BlogModel
}
