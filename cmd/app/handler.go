package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/nanoblog/internal/common"
	"github.com/sushihentaime/nanoblog/internal/userservice"
)

type formField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	MaxLength int    `json:"max_length,omitempty"`
}

var registerFormFields = []formField{
	{Name: "first_name", Type: "text", MaxLength: 20},
	{Name: "last_name", Type: "text", MaxLength: 20},
	{Name: "email", Type: "email", MaxLength: 40},
	{Name: "username", Type: "text", MaxLength: 20},
	{Name: "password1", Type: "password"},
	{Name: "password2", Type: "password"},
}

func (app *application) registerFormHandler(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{"fields": registerFormFields}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.RegisterInput

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, err := app.userService.CreateUser(r.Context(), input)
	if err != nil {
		var (
			vErr  common.ValidationError
			upErr common.UpstreamError
		)
		switch {
		case errors.As(err, &vErr):
			app.failedValidationErrorResponse(w, r, vErr.Errors)
		case errors.As(err, &upErr):
			app.upstreamFailureResponse(w, r, err, "we could not send the confirmation email, please try again later")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	env := envelope{
		"email":   user.Email,
		"message": "a confirmation link has been sent to your email address",
	}

	err = app.writeJSON(w, http.StatusCreated, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) confirmRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	username := app.readStringParam(r, "username")
	token := app.readStringParam(r, "token")

	err := app.userService.ConfirmUser(r.Context(), username, token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound), errors.Is(err, userservice.ErrInvalidToken):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "your email address has been confirmed", "username": username}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type loginUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	token, err := app.userService.LoginUser(r.Context(), input.Username, input.Password)
	if err != nil {
		var vErr common.ValidationError
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.Is(err, userservice.ErrInactiveAccount):
			app.inactiveAccountResponse(w, r)
		case errors.As(err, &vErr):
			app.failedValidationErrorResponse(w, r, vErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.userService.LogoutUser(r.Context(), user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
