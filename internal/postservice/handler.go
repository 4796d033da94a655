package postservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sushihentaime/socialnet/internal/authz"
	"github.com/sushihentaime/socialnet/internal/blogservice"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/slug"
)

const (
	blogNotFoundMsg = "wrong blog slug was provided"
	postNotFoundMsg = "wrong post slug was provided"
)

func NewPostService(db *sql.DB, blogs *blogservice.BlogService) *PostService {
	return &PostService{m: newPostModel(db), blogs: blogs}
}

// CreatePost drafts a post in a blog the actor writes for. The slug is the
// title followed by the blog id in hex.
func (s *PostService) CreatePost(ctx context.Context, actor authz.Actor, req *CreatePostRequest) (*Post, error) {
	if actor == nil || actor.ActorID() == 0 {
		return nil, common.ErrForbidden
	}

	req.Body = common.SanitizeMarkdown(req.Body)
	req.Tags = normalizeTags(req.Tags)

	v := common.NewValidator()
	validateSlug(v, "blog_slug", req.BlogSlug)
	validateTitle(v, req.Title)
	validateBody(v, req.Body)
	validateTags(v, req.Tags)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.blogs.ResolveBlog(ctx, req.BlogSlug, "blog_slug")
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		ok, err := s.blogs.IsAuthorOfBlog(ctx, blog.Slug, actor.ActorID())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.ErrForbidden
		}
	}

	p := &Post{
		Slug:   slug.ForPost(req.Title, blog.ID),
		Title:  req.Title,
		Body:   req.Body,
		BlogID: blog.ID,
		UserID: actor.ActorID(),
	}

	if err := slug.CheckUnique(ctx, s.m, p.Slug, 0); err != nil {
		return nil, err
	}

	var post *Post
	err = common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		if err := s.m.insertPost(ctx, p); err != nil {
			return err
		}

		if err := s.m.replaceTags(ctx, p.ID, req.Tags); err != nil {
			return err
		}

		post, err = s.m.getPostBySlug(ctx, p.Slug)
		return err
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost returns a post. Drafts are hidden from everyone but admins, the
// author and the blog owner. Reading a published post counts a view.
func (s *PostService) GetPost(ctx context.Context, actor authz.Actor, postSlug string) (*Post, error) {
	v := common.NewValidator()
	validateSlug(v, "slug", postSlug)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.getPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	if !post.Published {
		if !authz.CanSeeUnpublished(actor, post, post.blog()) {
			return nil, common.ErrRecordNotFound
		}
		return post, nil
	}

	post.Views, err = s.m.incrementViews(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	return post, nil
}

// ResolvePost looks a post up for another service. A missing post becomes
// a field error on the request.
func (s *PostService) ResolvePost(ctx context.Context, postSlug, field string) (*Post, error) {
	post, err := s.m.getPostBySlug(ctx, postSlug)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return nil, common.FieldError(common.ErrRecordNotFound, field, postNotFoundMsg)
		}
		return nil, err
	}

	return post, nil
}

// UpdatePost applies a partial update. Only the author or an admin may edit.
// A new title regenerates the slug within the same blog.
func (s *PostService) UpdatePost(ctx context.Context, actor authz.Actor, postSlug string, req *UpdatePostRequest) (*Post, error) {
	post, err := s.m.getPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	if !authz.IsCreatorOrAdmin(actor, post) {
		return nil, common.ErrForbidden
	}

	v := common.NewValidator()
	if req.Title != nil {
		validateTitle(v, *req.Title)
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = common.SanitizeMarkdown(*req.Body)
		validateBody(v, post.Body)
	}
	var tags []string
	if req.Tags != nil {
		tags = normalizeTags(*req.Tags)
		validateTags(v, tags)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if req.Title != nil {
		post.Slug = slug.ForPost(post.Title, post.BlogID)
		if err := slug.CheckUnique(ctx, s.m, post.Slug, post.ID); err != nil {
			return nil, err
		}
	}

	var updated *Post
	err = common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		if err := s.m.updatePost(ctx, post); err != nil {
			return err
		}

		if req.Tags != nil {
			if err := s.m.replaceTags(ctx, post.ID, tags); err != nil {
				return err
			}
		}

		updated, err = s.m.getPostBySlug(ctx, post.Slug)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// PublishPost publishes a draft and stamps the parent blog with the same
// publication time, both in one transaction.
func (s *PostService) PublishPost(ctx context.Context, actor authz.Actor, postSlug string) (*Post, error) {
	post, err := s.m.getPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	if !authz.IsCreatorOrAdmin(actor, post) {
		return nil, common.ErrForbidden
	}

	if post.Published {
		return nil, common.FieldError(common.ErrInvalidState, "published", alreadyPublishedMsg)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	err = common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		if err := s.m.publishPost(ctx, post.ID, now); err != nil {
			return err
		}

		return s.blogs.MarkPublished(ctx, post.BlogID, now)
	})
	if err != nil {
		return nil, err
	}

	post.Published = true
	post.PublishedAt = &now
	return post, nil
}

// DeletePost removes a post. The author, the blog owner and admins may
// delete it.
func (s *PostService) DeletePost(ctx context.Context, actor authz.Actor, postSlug string) error {
	post, err := s.m.getPostBySlug(ctx, postSlug)
	if err != nil {
		return err
	}

	if !authz.CanDeletePost(actor, post, post.blog()) {
		return common.ErrForbidden
	}

	return s.m.deletePost(ctx, post.ID)
}

// LikePost likes a published post. The unique index on (post_id, user_id)
// decides concurrent duplicates.
func (s *PostService) LikePost(ctx context.Context, actor authz.Actor, postSlug string) error {
	post, err := s.likeable(ctx, actor, postSlug)
	if err != nil {
		return err
	}

	ok, err := s.m.wasLiked(ctx, post.ID, actor.ActorID())
	if err != nil {
		return err
	}
	if ok {
		return common.FieldError(common.ErrInvalidState, "like", alreadyLikedMsg)
	}

	return s.m.insertLike(ctx, post.ID, actor.ActorID())
}

// UnlikePost withdraws the actor's like.
func (s *PostService) UnlikePost(ctx context.Context, actor authz.Actor, postSlug string) error {
	post, err := s.likeable(ctx, actor, postSlug)
	if err != nil {
		return err
	}

	return s.m.deleteLike(ctx, post.ID, actor.ActorID())
}

func (s *PostService) likeable(ctx context.Context, actor authz.Actor, postSlug string) (*Post, error) {
	if actor == nil || actor.ActorID() == 0 {
		return nil, common.ErrForbidden
	}

	post, err := s.m.getPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	if !post.Published {
		return nil, common.ErrRecordNotFound
	}

	return post, nil
}

// ListPosts returns a filtered, ordered page of posts visible to actor.
// Drafts are listed for admins, for the owner of the listed blog and for
// their own authors.
func (s *PostService) ListPosts(ctx context.Context, actor authz.Actor, f Filter) ([]Post, error) {
	v := common.NewValidator()
	validateFilter(v, &f)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	plan, err := postOrdering.Plan(f.Ordering)
	if err != nil {
		return nil, err
	}

	q := listQuery{Filter: f}
	if actor != nil {
		q.viewer = actor.ActorID()
		q.showAll = q.viewer != 0 && actor.IsAdmin()
	}

	if f.BlogSlug != "" {
		blog, err := s.blogs.GetBlog(ctx, f.BlogSlug)
		if err != nil {
			return nil, err
		}

		q.blogID = blog.ID
		q.showAll = q.showAll || authz.IsBlogOwner(actor, blog)
	}

	return s.m.listPosts(ctx, q, plan.OrderBy())
}
