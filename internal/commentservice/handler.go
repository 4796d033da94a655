package commentservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/socialnet/internal/authz"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/postservice"
)

const (
	postNotFoundMsg     = "wrong post slug was provided"
	postNotPublishedMsg = "post has not been published yet"
)

func NewCommentService(db *sql.DB, posts *postservice.PostService) *CommentService {
	return &CommentService{m: newCommentModel(db), posts: posts}
}

// CreateComment comments on a published post.
func (s *CommentService) CreateComment(ctx context.Context, actor authz.Actor, req *CreateCommentRequest) (*Comment, error) {
	if actor == nil || actor.ActorID() == 0 {
		return nil, common.ErrForbidden
	}

	req.Body = common.SanitizeMarkdown(req.Body)

	v := common.NewValidator()
	v.Check(req.PostSlug != "", "post_slug", "must be provided")
	validateBody(v, req.Body)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.posts.ResolvePost(ctx, req.PostSlug, "post_slug")
	if err != nil {
		return nil, err
	}

	if !post.Published {
		return nil, common.FieldError(common.ErrInvalidState, "post_slug", postNotPublishedMsg)
	}

	c := &Comment{Body: req.Body, PostID: post.ID, UserID: actor.ActorID()}
	if err := s.m.insertComment(ctx, c); err != nil {
		return nil, err
	}

	return s.m.getComment(ctx, c.ID)
}

func (s *CommentService) GetComment(ctx context.Context, id int) (*Comment, error) {
	v := common.NewValidator()
	validateID(v, id)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getComment(ctx, id)
}

// UpdateComment replaces the body. Only the commenter or an admin may edit.
func (s *CommentService) UpdateComment(ctx context.Context, actor authz.Actor, id int, req *UpdateCommentRequest) (*Comment, error) {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.IsCreatorOrAdmin(actor, c) {
		return nil, common.ErrForbidden
	}

	body := common.SanitizeMarkdown(req.Body)

	v := common.NewValidator()
	validateBody(v, body)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.m.updateComment(ctx, c.ID, body); err != nil {
		return nil, err
	}

	c.Body = body
	return c, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, actor authz.Actor, id int) error {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}

	if !authz.IsCreatorOrAdmin(actor, c) {
		return common.ErrForbidden
	}

	return s.m.deleteComment(ctx, c.ID)
}

// ListComments returns the newest comments of a post first.
func (s *CommentService) ListComments(ctx context.Context, postSlug string, limit, offset int) ([]Comment, error) {
	v := common.NewValidator()
	v.Check(postSlug != "", "post_slug", "must be provided")
	validatePage(v, &limit, &offset)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.posts.ResolvePost(ctx, postSlug, "post_slug")
	if err != nil {
		return nil, err
	}

	return s.m.listComments(ctx, post.ID, limit, offset)
}
