package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sushihentaime/nanoblog/internal/bloggerservice"
	"github.com/sushihentaime/nanoblog/internal/blogservice"
	"github.com/sushihentaime/nanoblog/internal/common"
	"github.com/sushihentaime/nanoblog/internal/userservice"
)

type publicUser struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

func newPublicUser(u *userservice.User) publicUser {
	return publicUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

// profileView is shown above a user feed.
type profileView struct {
	User           publicUser              `json:"user"`
	Blogger        *bloggerservice.Blogger `json:"blogger"`
	Own            bool                    `json:"own"`
	Following      bool                    `json:"following"`
	FollowingUsers []bloggerservice.Target `json:"following_users,omitempty"`
}

func (app *application) homeFeedHandler(w http.ResponseWriter, r *http.Request) {
	app.serveFeed(w, r, blogservice.Destination{View: blogservice.ViewHome})
}

func (app *application) followingFeedHandler(w http.ResponseWriter, r *http.Request) {
	app.serveFeed(w, r, blogservice.Destination{View: blogservice.ViewFollowing})
}

func (app *application) userFeedHandler(w http.ResponseWriter, r *http.Request) {
	app.serveFeed(w, r, blogservice.Destination{View: blogservice.ViewUser, Username: app.readStringParam(r, "username")})
}

// serveFeed writes the full page of a feed, or only the posts newer than the
// last_updated query parameter when the client polls.
func (app *application) serveFeed(w http.ResponseWriter, r *http.Request, dest blogservice.Destination) {
	cursor, err := app.readCursor(r)
	if err != nil {
		var vErr common.ValidationError
		switch {
		case errors.As(err, &vErr):
			app.failedValidationErrorResponse(w, r, vErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	env, err := app.feedEnvelope(r.Context(), app.getUserContext(r), dest, cursor, blogservice.Form{})
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.seeOther(w, r, "/")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) feedEnvelope(ctx context.Context, viewer *userservice.User, dest blogservice.Destination, cursor *time.Time, form blogservice.Form) (envelope, error) {
	var (
		q       = blogservice.FeedQuery{Kind: blogservice.FeedGlobal}
		profile *profileView
	)

	switch dest.View {
	case blogservice.ViewFollowing:
		q = blogservice.FeedQuery{Kind: blogservice.FeedFollowing, UserID: viewer.ID}
	case blogservice.ViewUser:
		target, err := app.userService.GetUserByUsername(ctx, dest.Username)
		if err != nil {
			return nil, err
		}
		q = blogservice.FeedQuery{Kind: blogservice.FeedAuthor, UserID: target.ID}

		if cursor == nil {
			profile, err = app.profile(ctx, viewer, target)
			if err != nil {
				return nil, err
			}
		}
	}

	feed, err := app.blogService.Feed(ctx, q, cursor)
	if err != nil {
		return nil, err
	}

	if feed.Incremental {
		return envelope{"feed": feed}, nil
	}

	env := envelope{
		"view": dest.View.String(),
		"feed": feed,
		"form": form,
	}
	if profile != nil {
		env["profile"] = profile
	}

	return env, nil
}

func (app *application) profile(ctx context.Context, viewer, target *userservice.User) (*profileView, error) {
	blogger, err := app.bloggerService.GetBlogger(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	p := &profileView{
		User:    newPublicUser(target),
		Blogger: blogger,
		Own:     viewer.ID == target.ID,
	}

	viewerBlogger, err := app.bloggerService.GetBlogger(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	p.Following, err = app.bloggerService.IsFollowing(ctx, viewerBlogger.ID, target.ID)
	if err != nil {
		return nil, err
	}

	if p.Own {
		p.FollowingUsers, err = app.bloggerService.Following(ctx, blogger.ID)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

type addPostRequest struct {
	Text         string `json:"text"`
	Redirect     string `json:"redirect"`
	RedirectUser string `json:"redirect_user"`
}

// addPostHandler stores a post and answers with the feed it was submitted from: 201
// with an empty form, or 422 with the rejected text and its errors.
func (app *application) addPostHandler(w http.ResponseWriter, r *http.Request) {
	var input addPostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	sub, err := app.blogService.SubmitPost(r.Context(), user.ID, input.Text, input.Redirect, input.RedirectUser)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	dest := sub.Destination
	env, err := app.feedEnvelope(r.Context(), user, dest, nil, sub.Form)
	if errors.Is(err, userservice.ErrNotFound) {
		dest = blogservice.Destination{View: blogservice.ViewHome}
		env, err = app.feedEnvelope(r.Context(), user, dest, nil, sub.Form)
	}
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	env["redirect"] = dest.Path()

	status := http.StatusUnprocessableEntity
	if sub.Created() {
		status = http.StatusCreated
		env["post"] = sub.Post
	}

	err = app.writeJSON(w, status, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type addCommentRequest struct {
	Text string `json:"text"`
	Post int    `json:"post"`
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	var input addCommentRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	comment, err := app.blogService.SubmitComment(r.Context(), user.ID, input.Text, input.Post)
	if err != nil {
		var vErr common.ValidationError
		switch {
		case errors.As(err, &vErr):
			err = app.writeJSON(w, http.StatusUnprocessableEntity, envelope{"success": false, "errors": vErr.Errors}, nil)
			if err != nil {
				app.serverErrorResponse(w, r, err)
			}
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	html, err := renderComment(comment)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"success": true, "html": html, "comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
