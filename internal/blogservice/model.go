package blogservice

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

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// selectBlogs reads blogs with the owner name, the author roster and the
// subscriber count. The count is aggregated once in a derived table so
// ordering by it does not repeat the aggregate per row.
const selectBlogs = `
	SELECT b.id, b.slug, b.title, b.description, b.created_at, b.updated_at, b.owner_id, u.username,
		ARRAY(
			SELECT au.username FROM blog_authors ba
			INNER JOIN users au ON au.id = ba.user_id
			WHERE ba.blog_id = b.id
			ORDER BY au.username
		),
		COALESCE(s.subscribers, 0)
	FROM blogs b
	INNER JOIN users u ON u.id = b.owner_id
	LEFT JOIN (
		SELECT blog_id, COUNT(*) AS subscribers FROM subscriptions GROUP BY blog_id
	) s ON s.blog_id = b.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (*Blog, error) {
	var b Blog
	err := row.Scan(
		&b.ID,
		&b.Slug,
		&b.Title,
		&b.Description,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.UserID,
		&b.Owner,
		pq.Array(&b.Authors),
		&b.Subscribers,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (m *BlogModel) insertBlog(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (slug, title, description, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, b.Slug, b.Title, b.Description, b.UserID).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "blogs_slug_key"):
			return slug.Conflict()
		case common.ForeignKeyViolation(err, ""):
			return common.ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) getBlogBySlug(ctx context.Context, s string) (*Blog, error) {
	query := selectBlogs + `
		WHERE b.slug = $1`

	b, err := scanBlog(common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, s))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return b, nil
}

// FindIDBySlug implements slug.Finder.
func (m *BlogModel) FindIDBySlug(ctx context.Context, s string) (int, error) {
	var id int
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, `SELECT id FROM blogs WHERE slug = $1`, s).Scan(&id)
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

func (m *BlogModel) getUsername(ctx context.Context, id int) (string, error) {
	var username string
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, `SELECT username FROM users WHERE id = $1`, id).Scan(&username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", common.ErrRecordNotFound
		default:
			return "", err
		}
	}

	return username, nil
}

// getUserIDs maps every existing username in names to its id.
func (m *BlogModel) getUserIDs(ctx context.Context, names []string) (map[string]int, error) {
	query := `
		SELECT id, username
		FROM users
		WHERE username = ANY($1)`

	rows, err := common.GetExecutor(ctx, m.db).QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}

	return ids, rows.Err()
}

func (m *BlogModel) updateBlog(ctx context.Context, b *Blog) error {
	query := `
		UPDATE blogs
		SET slug = $1, title = $2, description = $3
		WHERE id = $4`

	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, b.Slug, b.Title, b.Description, b.ID)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "blogs_slug_key"):
			return slug.Conflict()
		default:
			return err
		}
	}

	return expectOneRow(res)
}

func (m *BlogModel) deleteBlog(ctx context.Context, id int) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

func (m *BlogModel) touchBlog(ctx context.Context, id int, at time.Time) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, `UPDATE blogs SET updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}

	return expectOneRow(res)
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

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func (m *BlogModel) addAuthors(ctx context.Context, blogID int, userIDs ...int) error {
	query := `
		INSERT INTO blog_authors (blog_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`

	_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, blogID, pq.Array(toInt64s(userIDs)))
	return err
}

func (m *BlogModel) removeAuthors(ctx context.Context, blogID int, userIDs ...int) error {
	query := `
		DELETE FROM blog_authors
		WHERE blog_id = $1 AND user_id = ANY($2::bigint[])`

	_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, blogID, pq.Array(toInt64s(userIDs)))
	return err
}

func (m *BlogModel) isAuthor(ctx context.Context, blogSlug string, userID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blog_authors ba
			INNER JOIN blogs b ON b.id = ba.blog_id
			WHERE b.slug = $1 AND ba.user_id = $2
		)`

	var ok bool
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, blogSlug, userID).Scan(&ok)
	return ok, err
}

func (m *BlogModel) hasSubscribed(ctx context.Context, blogID, userID int) (bool, error) {
	var ok bool
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE blog_id = $1 AND user_id = $2)`, blogID, userID).Scan(&ok)
	return ok, err
}

func (m *BlogModel) insertSubscription(ctx context.Context, blogID, userID int) error {
	query := `
		INSERT INTO subscriptions (blog_id, user_id)
		VALUES ($1, $2)`

	_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, blogID, userID)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "subscriptions_blog_id_user_id_key"):
			return common.FieldError(common.ErrInvalidState, "user", alreadySubscribedMsg)
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) deleteSubscription(ctx context.Context, blogID, userID int) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx,
		`DELETE FROM subscriptions WHERE blog_id = $1 AND user_id = $2`, blogID, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return common.FieldError(common.ErrInvalidState, "user", notSubscribedMsg)
	}

	return nil
}

type ownedBlog struct {
	id    int
	title string
}

func (m *BlogModel) getOwnedBlogs(ctx context.Context, ownerID int) ([]ownedBlog, error) {
	rows, err := common.GetExecutor(ctx, m.db).QueryContext(ctx,
		`SELECT id, title FROM blogs WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []ownedBlog
	for rows.Next() {
		var b ownedBlog
		if err := rows.Scan(&b.id, &b.title); err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}

	return blogs, rows.Err()
}

func (m *BlogModel) updateSlug(ctx context.Context, id int, s string) error {
	_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, `UPDATE blogs SET slug = $1 WHERE id = $2`, s, id)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "blogs_slug_key"):
			return slug.Conflict()
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) listBlogs(ctx context.Context, f Filter, orderBy string) ([]Blog, error) {
	query := fmt.Sprintf(selectBlogs+`
		WHERE ($1::text = '' OR b.title ILIKE '%%' || $1 || '%%' OR u.username = $1)
		AND ($2::text = '' OR u.username = $2)
		AND ($3::timestamptz IS NULL OR b.updated_at > $3)
		AND ($4::timestamptz IS NULL OR b.updated_at < $4)
		AND ($5::bigint = 0 OR EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.blog_id = b.id AND sub.user_id = $5::bigint))
		%s
		LIMIT $6 OFFSET $7`, orderBy)

	args := []any{f.Search, f.Owner, f.DateFrom, f.DateTo, f.SubscriberID, f.Limit, f.Offset}

	rows, err := common.GetExecutor(ctx, m.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *b)
	}

	return blogs, rows.Err()
}
