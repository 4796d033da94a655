package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/sushihentaime/socialnet/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// users
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me", app.requireAuthUser(app.showCurrentUserHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/users/me", app.requireActivatedUser(app.renameUserHandler))

	// blogs
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.listBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requirePermission(app.createBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:slug", app.getBlogHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/blogs/:slug", app.requirePermission(app.updateBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:slug", app.requirePermission(app.deleteBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:slug/authors", app.requirePermission(app.addAuthorsHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:slug/authors", app.requirePermission(app.removeAuthorsHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:slug/subscription", app.requireActivatedUser(app.subscribeHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:slug/subscription", app.requireActivatedUser(app.unsubscribeHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:slug/posts", app.listBlogPostsHandler)

	// posts
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requirePermission(app.createPostHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.getPostHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:slug", app.requirePermission(app.updatePostHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:slug", app.requirePermission(app.deletePostHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/publish", app.requirePermission(app.publishPostHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/like", app.requireActivatedUser(app.likePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:slug/like", app.requireActivatedUser(app.unlikePostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug/comments", app.listCommentsHandler)

	// comments
	router.HandlerFunc(http.MethodPost, "/v1/comments", app.requireActivatedUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodGet, "/v1/comments/:id", app.getCommentHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/comments/:id", app.requireActivatedUser(app.updateCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireActivatedUser(app.deleteCommentHandler))

	return app.recoverPanic(app.requestID(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router))))))
}
