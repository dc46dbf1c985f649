package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sushihentaime/nanoblog/internal/common"
)

var (
	ErrUserForeignKey = errors.New("user_id does not exist")
	ErrPostForeignKey = errors.New("post_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

func (m *BlogModel) insertPost(tx *sql.Tx, ctx context.Context, userID int, text string) (*Post, error) {
	query := `
		WITH p AS (
			INSERT INTO posts (text, user_id)
			VALUES ($1, $2)
			RETURNING id, text, user_id, created_at
		)
		SELECT p.id, p.text, p.user_id, u.username, p.created_at
		FROM p
		INNER JOIN users u ON u.id = p.user_id`

	var post Post
	err := tx.QueryRowContext(ctx, query, text, userID).Scan(&post.ID, &post.Text, &post.UserID, &post.Username, &post.CreatedAt)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "posts_user_id_fkey"):
			return nil, ErrUserForeignKey
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *BlogModel) insertComment(tx *sql.Tx, ctx context.Context, userID int, in CommentInput) (*Comment, error) {
	query := `
		WITH c AS (
			INSERT INTO comments (text, user_id, post_id)
			VALUES ($1, $2, $3)
			RETURNING id, text, user_id, post_id, created_at
		)
		SELECT c.id, c.text, c.user_id, u.username, c.post_id, c.created_at
		FROM c
		INNER JOIN users u ON u.id = c.user_id`

	var c Comment
	err := tx.QueryRowContext(ctx, query, in.Text, userID, in.PostID).Scan(&c.ID, &c.Text, &c.UserID, &c.Username, &c.PostID, &c.CreatedAt)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "comments_post_id_fkey"):
			return nil, ErrPostForeignKey
		case common.ForeignKeyViolation(err, "comments_user_id_fkey"):
			return nil, ErrUserForeignKey
		default:
			return nil, err
		}
	}

	return &c, nil
}

// listPosts returns the posts selected by q, newest first.
func (m *BlogModel) listPosts(ctx context.Context, q FeedQuery) ([]Post, error) {
	var (
		query string
		args  []any
	)

	switch q.Kind {
	case FeedGlobal:
		query = `
			SELECT p.id, p.text, p.user_id, u.username, p.created_at
			FROM posts p
			INNER JOIN users u ON u.id = p.user_id
			ORDER BY p.created_at DESC, p.id DESC`
	case FeedFollowing:
		query = `
			SELECT p.id, p.text, p.user_id, u.username, p.created_at
			FROM posts p
			INNER JOIN users u ON u.id = p.user_id
			WHERE p.user_id IN (
				SELECT f.user_id
				FROM follows f
				INNER JOIN bloggers b ON b.id = f.blogger_id
				WHERE b.user_id = $1
			)
			ORDER BY p.created_at DESC, p.id DESC`
		args = append(args, q.UserID)
	case FeedAuthor:
		query = `
			SELECT p.id, p.text, p.user_id, u.username, p.created_at
			FROM posts p
			INNER JOIN users u ON u.id = p.user_id
			WHERE p.user_id = $1
			ORDER BY p.created_at DESC, p.id DESC`
		args = append(args, q.UserID)
	default:
		return nil, fmt.Errorf("unknown feed kind %d", q.Kind)
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		err := rows.Scan(&p.ID, &p.Text, &p.UserID, &p.Username, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// CommentsByPostIDs loads the comments of all ids in one query.
func (m *BlogModel) CommentsByPostIDs(ctx context.Context, ids []int) (map[int][]Comment, error) {
	comments := make(map[int][]Comment, len(ids))
	if len(ids) == 0 {
		return comments, nil
	}

	query := `
		SELECT c.id, c.text, c.user_id, u.username, c.post_id, c.created_at
		FROM comments c
		INNER JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at ASC, c.id ASC`

	postIDs := make([]int64, len(ids))
	for i, id := range ids {
		postIDs[i] = int64(id)
	}

	rows, err := m.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.Username, &c.PostID, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments[c.PostID] = append(comments[c.PostID], c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
