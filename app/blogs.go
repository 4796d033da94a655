package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/socialnet/internal/authz"
	"github.com/sushihentaime/socialnet/internal/blogservice"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/postservice"
)

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.CreateBlogRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.CreateBlog(r.Context(), app.getUserContext(r), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/blogs/"+blog.Slug)

	err = app.writeJSON(w, http.StatusCreated, envelope{"blog": blog}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	blog, err := app.blogService.GetBlog(r.Context(), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.UpdateBlogRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.UpdateBlog(r.Context(), app.getUserContext(r), app.readSlugParam(r), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	err := app.blogService.DeleteBlog(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "blog deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type authorsRequest struct {
	Authors []string `json:"authors"`
}

func (app *application) addAuthorsHandler(w http.ResponseWriter, r *http.Request) {
	app.changeAuthors(w, r, app.blogService.AddAuthors)
}

func (app *application) removeAuthorsHandler(w http.ResponseWriter, r *http.Request) {
	app.changeAuthors(w, r, app.blogService.RemoveAuthors)
}

func (app *application) changeAuthors(w http.ResponseWriter, r *http.Request, change func(context.Context, authz.Actor, string, []string) (*blogservice.Blog, error)) {
	var input authorsRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := change(r.Context(), app.getUserContext(r), app.readSlugParam(r), input.Authors)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blog": blog}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	err := app.blogService.Subscribe(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"message": "subscribed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	err := app.blogService.Unsubscribe(r.Context(), app.getUserContext(r), app.readSlugParam(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "unsubscribed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBlogsHandler serves GET /v1/blogs. subscribed=true lists the blogs the
// caller follows and requires authentication.
func (app *application) listBlogsHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	v := common.NewValidator()

	p := app.readListParams(qs, v)
	subscribed := app.readBool(qs, "subscribed", v)
	if !v.Valid() {
		app.failedValidationErrorResponse(w, r, v.Errors)
		return
	}

	user := app.getUserContext(r)
	f := blogservice.Filter{
		Search:   p.Search,
		Owner:    qs.Get("owner"),
		DateFrom: p.DateFrom,
		DateTo:   p.DateTo,
		Ordering: p.Ordering,
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if subscribed {
		if user.IsAnonymous() {
			app.authenticationRequiredResponse(w, r)
			return
		}
		f.SubscriberID = user.ID
	}

	blogs, err := app.blogService.ListBlogs(r.Context(), f)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"blogs": blogs}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBlogPostsHandler serves GET /v1/blogs/:slug/posts.
func (app *application) listBlogPostsHandler(w http.ResponseWriter, r *http.Request) {
	app.listPosts(w, r, func(f *postservice.Filter) {
		f.BlogSlug = app.readSlugParam(r)
	})
}
