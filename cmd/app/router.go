package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/nanoblog/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// feeds
	router.HandlerFunc(http.MethodGet, "/", app.requireActivatedUser(app.homeFeedHandler))
	router.HandlerFunc(http.MethodGet, "/following", app.requireActivatedUser(app.followingFeedHandler))
	router.HandlerFunc(http.MethodGet, "/user/:username", app.requireActivatedUser(app.userFeedHandler))
	router.HandlerFunc(http.MethodPost, "/add", app.requirePermission(app.addPostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPost, "/add_comment", app.requirePermission(app.addCommentHandler, userservice.PermissionWritePost))

	// bloggers
	router.HandlerFunc(http.MethodGet, "/profile_pic/:id", app.profilePictureHandler)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		router.HandlerFunc(method, "/follow/:username", app.requireActivatedUser(app.followHandler))
		router.HandlerFunc(method, "/unfollow/:username", app.requireActivatedUser(app.unfollowHandler))
	}
	router.HandlerFunc(http.MethodGet, "/edit_profile", app.requireActivatedUser(app.showProfileHandler))
	router.HandlerFunc(http.MethodPost, "/edit_profile", app.requireActivatedUser(app.editProfileHandler))

	// users
	router.HandlerFunc(http.MethodGet, "/register", app.registerFormHandler)
	router.HandlerFunc(http.MethodPost, "/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodGet, "/confirm-registration/:username/:token", app.confirmRegistrationHandler)
	router.HandlerFunc(http.MethodPost, "/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/logout", app.requireAuthUser(app.logoutUserHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
