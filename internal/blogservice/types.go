package blogservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/socialnet/internal/ordering"
)

type Blog struct {
	ID          int        `json:"-"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	UserID      int        `json:"-"`
	Owner       string     `json:"owner"`
	Authors     []string   `json:"authors"`
	Subscribers int        `json:"subscribers"`
}

// OwnerID implements authz.Owned.
func (b *Blog) OwnerID() int {
	if b == nil {
		return 0
	}
	return b.UserID
}

type CreateBlogRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateBlogRequest carries a partial update: nil fields are left alone.
type UpdateBlogRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Filter narrows a blog listing. Zero values disable a criterion.
type Filter struct {
	// Search matches a title fragment or an exact owner username.
	Search string
	Owner  string
	// DateFrom and DateTo bound updated_at, both exclusive.
	DateFrom *time.Time
	DateTo   *time.Time
	// SubscriberID keeps only blogs the user subscribed to.
	SubscriberID int
	Ordering     []string
	Limit        int
	Offset       int
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m *BlogModel
}

var blogOrdering = ordering.Spec{
	Fields: map[string]string{
		"title": "b.title",
		"date":  "b.updated_at",
	},
	Composites: map[string]ordering.Composite{
		"relevance": ordering.Terms("COALESCE(s.subscribers, 0)", "b.updated_at"),
	},
	Default:  []ordering.Column{{Expr: "b.updated_at", Desc: true}},
	Tiebreak: "b.id",
}
