package main

import (
	"net/http"

	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/postservice"
)

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input postservice.CreatePostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.postService.CreatePost(r.Context(), app.getUserContext(r), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/posts/"+post.Slug)

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	post, err := app.postService.GetPost(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	var input postservice.UpdatePostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.postService.UpdatePost(r.Context(), app.getUserContext(r), app.readSlugParam(r), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) publishPostHandler(w http.ResponseWriter, r *http.Request) {
	post, err := app.postService.PublishPost(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.postService.DeletePost(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) likePostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.postService.LikePost(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"message": "post liked"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unlikePostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.postService.UnlikePost(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "like removed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listPostsHandler serves GET /v1/posts. mine=true lists the caller's own
// posts, drafts included.
func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	app.listPosts(w, r, nil)
}

func (app *application) listPosts(w http.ResponseWriter, r *http.Request, scope func(f *postservice.Filter)) {
	qs := r.URL.Query()
	v := common.NewValidator()

	p := app.readListParams(qs, v)
	mine := app.readBool(qs, "mine", v)
	if !v.Valid() {
		app.failedValidationErrorResponse(w, r, v.Errors)
		return
	}

	user := app.getUserContext(r)
	f := postservice.Filter{
		Search:   p.Search,
		Tags:     app.readCSV(qs, "tags"),
		DateFrom: p.DateFrom,
		DateTo:   p.DateTo,
		Ordering: p.Ordering,
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if mine {
		if user.IsAnonymous() {
			app.authenticationRequiredResponse(w, r)
			return
		}
		f.AuthorID = user.ID
	}
	if scope != nil {
		scope(&f)
	}

	posts, err := app.postService.ListPosts(r.Context(), user, f)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
