package commentservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/socialnet/internal/postservice"
)

type Comment struct {
	ID          int       `json:"id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	PostID      int       `json:"-"`
	Post        string    `json:"post"`
	UserID      int       `json:"-"`
	CommentedBy string    `json:"commented_by"`
}

// OwnerID implements authz.Owned: a comment belongs to whoever wrote it.
func (c *Comment) OwnerID() int {
	if c == nil {
		return 0
	}
	return c.UserID
}

type CreateCommentRequest struct {
	PostSlug string `json:"post_slug"`
	Body     string `json:"body"`
}

type UpdateCommentRequest struct {
	Body string `json:"body"`
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m     *CommentModel
	posts *postservice.PostService
}
