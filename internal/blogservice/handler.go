package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sushihentaime/nanoblog/internal/common"
)

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{db: db, m: newBlogModel(db)}
}

// Feed returns the posts selected by q as an assembled feed.
func (s *BlogService) Feed(ctx context.Context, q FeedQuery, cursor *time.Time) (*Feed, error) {
	if q.Kind != FeedGlobal {
		v := common.NewValidator()
		validateInt(v, q.UserID, "user_id")
		if !v.Valid() {
			return nil, v.ValidationError()
		}
	}

	posts, err := s.m.listPosts(ctx, q)
	if err != nil {
		return nil, err
	}

	return Assemble(ctx, posts, cursor, s.m)
}

// CreatePost stores a validated post by authorID.
func (s *BlogService) CreatePost(ctx context.Context, authorID int, in PostInput) (*Post, error) {
	var post *Post

	err := common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		post, err = s.m.insertPost(tx, ctx, authorID, in.Text)
		return err
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// CreateComment stores a validated comment by authorID. A comment on a post that does
// not exist is a validation error on "post".
func (s *BlogService) CreateComment(ctx context.Context, authorID int, in CommentInput) (*Comment, error) {
	var comment *Comment

	err := common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		comment, err = s.m.insertComment(tx, ctx, authorID, in)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPostForeignKey):
			return nil, common.FieldError("post", "post does not exist")
		default:
			return nil, err
		}
	}

	return comment, nil
}

// SubmitPost validates and stores the post form. Invalid text is not an error: the
// returned Submission carries the text back with its field errors.
func (s *BlogService) SubmitPost(ctx context.Context, authorID int, text, tag, redirectUser string) (*Submission, error) {
	sub := &Submission{Destination: ParseDestination(tag, redirectUser)}

	in, err := ValidatePost(text)
	if err != nil {
		var vErr common.ValidationError
		if errors.As(err, &vErr) {
			sub.Form = Form{Text: text, Errors: vErr.Errors}
			return sub, nil
		}
		return nil, err
	}

	sub.Post, err = s.CreatePost(ctx, authorID, in)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// SubmitComment validates and stores a comment.
func (s *BlogService) SubmitComment(ctx context.Context, authorID int, text string, postID int) (*Comment, error) {
	in, err := ValidateComment(text, postID)
	if err != nil {
		return nil, err
	}

	return s.CreateComment(ctx, authorID, in)
}
