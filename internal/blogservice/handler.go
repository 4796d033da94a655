package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sushihentaime/socialnet/internal/authz"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/slug"
)

const (
	alreadySubscribedMsg = "user has already subscribed"
	notSubscribedMsg     = "user has not subscribed"
)

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{m: newBlogModel(db)}
}

// CreateBlog creates a blog owned by actor. The slug is derived from the
// owner's username and the title, and the owner becomes the first author.
func (s *BlogService) CreateBlog(ctx context.Context, actor authz.Actor, req *CreateBlogRequest) (*Blog, error) {
	if actor == nil || actor.ActorID() == 0 {
		return nil, common.ErrForbidden
	}

	req.Description = common.SanitizeMarkdown(req.Description)

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateDescription(v, req.Description)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var blog *Blog
	err := common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		owner, err := s.m.getUsername(ctx, actor.ActorID())
		if err != nil {
			return err
		}

		b := &Blog{
			Slug:        slug.ForBlog(owner, req.Title),
			Title:       req.Title,
			Description: req.Description,
			UserID:      actor.ActorID(),
		}

		if err := slug.CheckUnique(ctx, s.m, b.Slug, 0); err != nil {
			return err
		}

		if err := s.m.insertBlog(ctx, b); err != nil {
			return err
		}

		if err := s.m.addAuthors(ctx, b.ID, b.UserID); err != nil {
			return err
		}

		blog, err = s.m.getBlogBySlug(ctx, b.Slug)
		return err
	})
	if err != nil {
		return nil, err
	}

	return blog, nil
}

// GetBlog returns a blog by its slug.
func (s *BlogService) GetBlog(ctx context.Context, blogSlug string) (*Blog, error) {
	v := common.NewValidator()
	validateSlug(v, blogSlug)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getBlogBySlug(ctx, blogSlug)
}

// UpdateBlog applies a partial update. Only the owner or an admin may edit a
// blog. A new title regenerates the slug from the current owner's name.
func (s *BlogService) UpdateBlog(ctx context.Context, actor authz.Actor, blogSlug string, req *UpdateBlogRequest) (*Blog, error) {
	blog, err := s.GetBlog(ctx, blogSlug)
	if err != nil {
		return nil, err
	}

	if !authz.IsCreatorOrAdmin(actor, blog) {
		return nil, common.ErrForbidden
	}

	v := common.NewValidator()
	if req.Title != nil {
		validateTitle(v, *req.Title)
		blog.Title = *req.Title
	}
	if req.Description != nil {
		blog.Description = common.SanitizeMarkdown(*req.Description)
		validateDescription(v, blog.Description)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if req.Title != nil {
		blog.Slug = slug.ForBlog(blog.Owner, blog.Title)
		if err := slug.CheckUnique(ctx, s.m, blog.Slug, blog.ID); err != nil {
			return nil, err
		}
	}

	if err := s.m.updateBlog(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

// DeleteBlog deletes a blog with its posts. Only the owner or an admin may
// delete it.
func (s *BlogService) DeleteBlog(ctx context.Context, actor authz.Actor, blogSlug string) error {
	blog, err := s.GetBlog(ctx, blogSlug)
	if err != nil {
		return err
	}

	if !authz.IsCreatorOrAdmin(actor, blog) {
		return common.ErrForbidden
	}

	return s.m.deleteBlog(ctx, blog.ID)
}

// AddAuthors adds existing users to the author roster.
func (s *BlogService) AddAuthors(ctx context.Context, actor authz.Actor, blogSlug string, usernames []string) (*Blog, error) {
	return s.changeAuthors(ctx, actor, blogSlug, usernames, addAuthors)
}

// RemoveAuthors removes users from the author roster. The owner stays.
func (s *BlogService) RemoveAuthors(ctx context.Context, actor authz.Actor, blogSlug string, usernames []string) (*Blog, error) {
	return s.changeAuthors(ctx, actor, blogSlug, usernames, removeAuthors)
}

func (s *BlogService) changeAuthors(ctx context.Context, actor authz.Actor, blogSlug string, usernames []string, op authorOp) (*Blog, error) {
	v := common.NewValidator()
	validateUsernames(v, usernames)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var blog *Blog
	err := common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		b, err := s.m.getBlogBySlug(ctx, blogSlug)
		if err != nil {
			return err
		}

		if !authz.IsCreatorOrAdmin(actor, b) {
			return common.ErrForbidden
		}

		existing, err := s.m.getUserIDs(ctx, usernames)
		if err != nil {
			return err
		}

		names, err := validateAuthorChange(op, b, usernames, existing)
		if err != nil {
			return err
		}

		ids := make([]int, 0, len(names))
		for _, name := range names {
			ids = append(ids, existing[name])
		}

		switch op {
		case addAuthors:
			err = s.m.addAuthors(ctx, b.ID, ids...)
		default:
			err = s.m.removeAuthors(ctx, b.ID, ids...)
		}
		if err != nil {
			return err
		}

		blog, err = s.m.getBlogBySlug(ctx, blogSlug)
		return err
	})
	if err != nil {
		return nil, err
	}

	return blog, nil
}

// Subscribe subscribes actor to a blog. The unique index on
// (blog_id, user_id) decides concurrent duplicates.
func (s *BlogService) Subscribe(ctx context.Context, actor authz.Actor, blogSlug string) error {
	if actor == nil || actor.ActorID() == 0 {
		return common.ErrForbidden
	}

	blog, err := s.GetBlog(ctx, blogSlug)
	if err != nil {
		return err
	}

	ok, err := s.m.hasSubscribed(ctx, blog.ID, actor.ActorID())
	if err != nil {
		return err
	}
	if ok {
		return common.FieldError(common.ErrInvalidState, "user", alreadySubscribedMsg)
	}

	return s.m.insertSubscription(ctx, blog.ID, actor.ActorID())
}

// Unsubscribe removes the subscription of actor.
func (s *BlogService) Unsubscribe(ctx context.Context, actor authz.Actor, blogSlug string) error {
	if actor == nil || actor.ActorID() == 0 {
		return common.ErrForbidden
	}

	blog, err := s.GetBlog(ctx, blogSlug)
	if err != nil {
		return err
	}

	return s.m.deleteSubscription(ctx, blog.ID, actor.ActorID())
}

// ListBlogs returns a filtered, ordered page of blogs.
func (s *BlogService) ListBlogs(ctx context.Context, f Filter) ([]Blog, error) {
	v := common.NewValidator()
	validateFilter(v, &f)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	plan, err := blogOrdering.Plan(f.Ordering)
	if err != nil {
		return nil, err
	}

	return s.m.listBlogs(ctx, f, plan.OrderBy())
}

// IsAuthorOfBlog reports whether the user is on the roster of the blog. A
// missing blog is not an error, the answer is simply false.
func (s *BlogService) IsAuthorOfBlog(ctx context.Context, blogSlug string, userID int) (bool, error) {
	if blogSlug == "" || userID == 0 {
		return false, nil
	}

	return s.m.isAuthor(ctx, blogSlug, userID)
}

// MarkPublished records a publication in the blog at the given time. It
// joins the caller's transaction when there is one.
func (s *BlogService) MarkPublished(ctx context.Context, blogID int, at time.Time) error {
	return s.m.touchBlog(ctx, blogID, at)
}

// RegenerateOwnerSlugs rebuilds the slug of every blog owned by ownerID
// after a rename. It runs in the caller's transaction so a collision undoes
// the rename as well.
func (s *BlogService) RegenerateOwnerSlugs(ctx context.Context, ownerID int, username string) error {
	return common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		blogs, err := s.m.getOwnedBlogs(ctx, ownerID)
		if err != nil {
			return err
		}

		for _, b := range blogs {
			next := slug.ForBlog(username, b.title)
			if err := slug.CheckUnique(ctx, s.m, next, b.id); err != nil {
				return err
			}

			if err := s.m.updateSlug(ctx, b.id, next); err != nil {
				return err
			}
		}

		return nil
	})
}

// ResolveBlog is GetBlog for callers that treat a missing blog as a field
// error on the request.
func (s *BlogService) ResolveBlog(ctx context.Context, blogSlug, field string) (*Blog, error) {
	blog, err := s.m.getBlogBySlug(ctx, blogSlug)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return nil, common.FieldError(common.ErrRecordNotFound, field, "wrong blog slug was provided")
		}
		return nil, err
	}

	return blog, nil
}
