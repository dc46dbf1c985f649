package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sushihentaime/nanoblog/internal/bloggerservice"
	"github.com/sushihentaime/nanoblog/internal/common"
)

// maxProfileFormSize leaves room for a picture above the upload limit so that it is
// rejected with a field error instead of a truncated body.
const maxProfileFormSize = 4 * bloggerservice.MaxUploadSize

func (app *application) followHandler(w http.ResponseWriter, r *http.Request) {
	username := app.readStringParam(r, "username")

	target, err := app.bloggerService.Follow(r.Context(), app.getUserContext(r).ID, username)
	if err != nil {
		switch {
		case errors.Is(err, bloggerservice.ErrNotFound):
			app.seeOther(w, r, "/")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.seeOther(w, r, "/user/"+target.Username)
}

func (app *application) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	username := app.readStringParam(r, "username")

	target, err := app.bloggerService.Unfollow(r.Context(), app.getUserContext(r).ID, username)
	if err != nil {
		switch {
		case errors.Is(err, bloggerservice.ErrNotFound):
			app.seeOther(w, r, "/")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.seeOther(w, r, "/user/"+target.Username)
}

func (app *application) profilePictureHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	url, err := app.bloggerService.PictureURL(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, bloggerservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (app *application) showProfileHandler(w http.ResponseWriter, r *http.Request) {
	blogger, err := app.bloggerService.GetBlogger(r.Context(), app.getUserContext(r).ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"blogger": blogger,
		"limits": map[string]int{
			"bio":             bloggerservice.MaxBioLength,
			"profile_picture": bloggerservice.MaxUploadSize,
		},
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readProfileForm reads the multipart edit-profile form. An unparseable age is
// reported as a field error.
func (app *application) readProfileForm(w http.ResponseWriter, r *http.Request) (*bloggerservice.ProfileInput, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxProfileFormSize)

	err := r.ParseMultipartForm(bloggerservice.MaxUploadSize)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		r.MultipartForm.RemoveAll()
	}

	in := &bloggerservice.ProfileInput{Bio: r.FormValue("bio")}

	if age := strings.TrimSpace(r.FormValue("age")); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			cleanup()
			return nil, nil, common.FieldError("age", "must be a whole number")
		}
		in.Age = &n
	}

	file, header, err := r.FormFile("profile_picture")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		cleanup()
		return nil, nil, err
	default:
		in.Picture = &bloggerservice.Picture{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
		cleanup = func() {
			file.Close()
			r.MultipartForm.RemoveAll()
		}
	}

	return in, cleanup, nil
}

func (app *application) editProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	in, cleanup, err := app.readProfileForm(w, r)
	if err != nil {
		var vErr common.ValidationError
		switch {
		case errors.As(err, &vErr):
			app.failedValidationErrorResponse(w, r, vErr.Errors)
		default:
			app.badRequestErrorResponse(w, r, err)
		}
		return
	}
	defer cleanup()

	_, err = app.bloggerService.UpdateProfile(r.Context(), user.ID, *in)
	if err != nil {
		var (
			vErr  common.ValidationError
			upErr common.UpstreamError
		)
		switch {
		case errors.As(err, &vErr):
			app.failedValidationErrorResponse(w, r, vErr.Errors)
		case errors.As(err, &upErr):
			app.upstreamFailureResponse(w, r, err, map[string]string{"profile_picture": "the picture could not be stored, please try again later"})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.seeOther(w, r, "/user/"+user.Username)
}
