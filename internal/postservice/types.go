package postservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/socialnet/internal/authz"
	"github.com/sushihentaime/socialnet/internal/blogservice"
	"github.com/sushihentaime/socialnet/internal/ordering"
)

type Post struct {
	ID          int        `json:"-"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Published   bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
	Views       int        `json:"views"`
	Likes       int        `json:"likes"`
	Tags        []string   `json:"tags"`
	BlogID      int        `json:"-"`
	BlogSlug    string     `json:"blog"`
	BlogOwnerID int        `json:"-"`
	UserID      int        `json:"-"`
	Author      string     `json:"author"`
	CreatedAt   time.Time  `json:"created_at"`
}

// OwnerID implements authz.Owned: a post is owned by its author.
func (p *Post) OwnerID() int {
	if p == nil {
		return 0
	}
	return p.UserID
}

type blogOwner int

func (o blogOwner) OwnerID() int { return int(o) }

// blog returns the parent blog as seen by the authorization predicates.
func (p *Post) blog() authz.Owned {
	if p == nil {
		return nil
	}
	return blogOwner(p.BlogOwnerID)
}

type CreatePostRequest struct {
	BlogSlug string   `json:"blog_slug"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
}

// UpdatePostRequest carries a partial update: nil fields are left alone.
type UpdatePostRequest struct {
	Title *string   `json:"title"`
	Body  *string   `json:"body"`
	Tags  *[]string `json:"tags"`
}

// Filter narrows a post listing. Zero values disable a criterion.
type Filter struct {
	// Search matches a title fragment or an exact author username.
	Search string
	// Tags keeps posts carrying any of the names.
	Tags []string
	// DateFrom and DateTo bound published_at, both exclusive.
	DateFrom *time.Time
	DateTo   *time.Time
	// BlogSlug lists the posts of one blog. The blog must exist.
	BlogSlug string
	// AuthorID lists the posts written by one user.
	AuthorID int
	Ordering []string
	Limit    int
	Offset   int
}

type PostModel struct {
	db *sql.DB
}

type PostService struct {
	m     *PostModel
	blogs *blogservice.BlogService
}

var postOrdering = ordering.Spec{
	Fields: map[string]string{
		"title": "p.title",
		"date":  "p.published_at",
	},
	Composites: map[string]ordering.Composite{
		"likes":     ordering.Terms("COALESCE(l.likes, 0)"),
		"relevance": ordering.Terms("COALESCE(l.likes, 0)", "p.views", "p.published_at"),
	},
	Default:  []ordering.Column{{Expr: "p.published_at", Desc: true}},
	Tiebreak: "p.id",
}
