package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/slug"
)

const (
	alreadyLikedMsg     = "post has already been liked"
	notLikedMsg         = "post has not been liked"
	alreadyPublishedMsg = "post has already been published"
)

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

// selectPosts reads posts with their blog, author, tags and like count.
// Likes are aggregated once in a derived table.
const selectPosts = `
	SELECT p.id, p.slug, p.title, p.body, p.is_published, p.published_at, p.views, p.created_at,
		p.blog_id, b.slug, b.owner_id, p.author_id, u.username,
		ARRAY(SELECT t.name FROM post_tags t WHERE t.post_id = p.id ORDER BY t.name),
		COALESCE(l.likes, 0)
	FROM posts p
	INNER JOIN blogs b ON b.id = p.blog_id
	INNER JOIN users u ON u.id = p.author_id
	LEFT JOIN (
		SELECT post_id, COUNT(*) AS likes FROM likes GROUP BY post_id
	) l ON l.post_id = p.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var p Post
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Body,
		&p.Published,
		&p.PublishedAt,
		&p.Views,
		&p.CreatedAt,
		&p.BlogID,
		&p.BlogSlug,
		&p.BlogOwnerID,
		&p.UserID,
		&p.Author,
		pq.Array(&p.Tags),
		&p.Likes,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *PostModel) insertPost(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (slug, title, body, blog_id, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, p.Slug, p.Title, p.Body, p.BlogID, p.UserID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "posts_slug_key"):
			return slug.Conflict()
		case common.ForeignKeyViolation(err, ""):
			return common.FieldError(common.ErrRecordNotFound, "blog_slug", blogNotFoundMsg)
		default:
			return err
		}
	}

	return nil
}

// replaceTags sets the tag set of a post.
func (m *PostModel) replaceTags(ctx context.Context, postID int, tags []string) error {
	exec := common.GetExecutor(ctx, m.db)

	_, err := exec.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID)
	if err != nil {
		return err
	}

	if len(tags) == 0 {
		return nil
	}

	query := `
		INSERT INTO post_tags (post_id, name)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING`

	_, err = exec.ExecContext(ctx, query, postID, pq.Array(tags))
	return err
}

func (m *PostModel) getPostBySlug(ctx context.Context, s string) (*Post, error) {
	query := selectPosts + `
		WHERE p.slug = $1`

	p, err := scanPost(common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, s))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return p, nil
}

// FindIDBySlug implements slug.Finder.
func (m *PostModel) FindIDBySlug(ctx context.Context, s string) (int, error) {
	var id int
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = $1`, s).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, common.ErrRecordNotFound
		default:
			return 0, err
		}
	}

	return id, nil
}

func (m *PostModel) updatePost(ctx context.Context, p *Post) error {
	query := `
		UPDATE posts
		SET slug = $1, title = $2, body = $3
		WHERE id = $4`

	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, p.Slug, p.Title, p.Body, p.ID)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "posts_slug_key"):
			return slug.Conflict()
		default:
			return err
		}
	}

	return expectOneRow(res)
}

// publishPost flips the flag only while it is still unset, so two
// concurrent publications cannot both succeed.
func (m *PostModel) publishPost(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE posts
		SET is_published = true, published_at = $1
		WHERE id = $2 AND NOT is_published`

	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return common.FieldError(common.ErrInvalidState, "published", alreadyPublishedMsg)
	}

	return nil
}

// incrementViews bumps the counter in place and returns the new value.
func (m *PostModel) incrementViews(ctx context.Context, id int) (int, error) {
	var views int
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx,
		`UPDATE posts SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, common.ErrRecordNotFound
		default:
			return 0, err
		}
	}

	return views, nil
}

func (m *PostModel) deletePost(ctx context.Context, id int) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

func (m *PostModel) wasLiked(ctx context.Context, postID, userID int) (bool, error) {
	var ok bool
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`, postID, userID).Scan(&ok)
	return ok, err
}

func (m *PostModel) insertLike(ctx context.Context, postID, userID int) error {
	_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx,
		`INSERT INTO likes (post_id, user_id) VALUES ($1, $2)`, postID, userID)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "likes_post_id_user_id_key"):
			return common.FieldError(common.ErrInvalidState, "like", alreadyLikedMsg)
		default:
			return err
		}
	}

	return nil
}

func (m *PostModel) deleteLike(ctx context.Context, postID, userID int) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx,
		`DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return common.FieldError(common.ErrInvalidState, "like", notLikedMsg)
	}

	return nil
}

// listQuery carries the resolved visibility of a listing next to the
// caller's filter.
type listQuery struct {
	Filter
	blogID  int
	showAll bool
	viewer  int
}

func (m *PostModel) listPosts(ctx context.Context, q listQuery, orderBy string) ([]Post, error) {
	query := fmt.Sprintf(selectPosts+`
		WHERE ($1::text = '' OR p.title ILIKE '%%' || $1 || '%%' OR u.username = $1)
		AND (COALESCE(cardinality($2::text[]), 0) = 0 OR EXISTS (
			SELECT 1 FROM post_tags t WHERE t.post_id = p.id AND t.name = ANY($2::text[])))
		AND ($3::timestamptz IS NULL OR p.published_at > $3)
		AND ($4::timestamptz IS NULL OR p.published_at < $4)
		AND ($5::bigint = 0 OR p.blog_id = $5::bigint)
		AND ($6::bigint = 0 OR p.author_id = $6::bigint)
		AND (p.is_published OR $7::boolean OR p.author_id = $8::bigint)
		%s
		LIMIT $9 OFFSET $10`, orderBy)

	args := []any{q.Search, pq.Array(q.Tags), q.DateFrom, q.DateTo, q.blogID, q.AuthorID, q.showAll, q.viewer, q.Limit, q.Offset}

	rows, err := common.GetExecutor(ctx, m.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}

	return posts, rows.Err()
}

func expectOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}
