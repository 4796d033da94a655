package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sushihentaime/socialnet/internal/common"
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

const selectComments = `
	SELECT c.id, c.body, c.created_at, c.post_id, p.slug, c.user_id, u.username
	FROM comments c
	INNER JOIN posts p ON p.id = c.post_id
	INNER JOIN users u ON u.id = c.user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.Body, &c.CreatedAt, &c.PostID, &c.Post, &c.UserID, &c.CommentedBy)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *CommentModel) insertComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (body, post_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, c.Body, c.PostID, c.UserID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, ""):
			return common.FieldError(common.ErrRecordNotFound, "post_slug", postNotFoundMsg)
		default:
			return err
		}
	}

	return nil
}

func (m *CommentModel) getComment(ctx context.Context, id int) (*Comment, error) {
	query := selectComments + `
		WHERE c.id = $1`

	c, err := scanComment(common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return c, nil
}

func (m *CommentModel) updateComment(ctx context.Context, id int, body string) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, `UPDATE comments SET body = $1 WHERE id = $2`, body, id)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

func (m *CommentModel) deleteComment(ctx context.Context, id int) error {
	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

func (m *CommentModel) listComments(ctx context.Context, postID, limit, offset int) ([]Comment, error) {
	query := selectComments + `
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := common.GetExecutor(ctx, m.db).QueryContext(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	return comments, rows.Err()
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
