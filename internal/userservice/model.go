package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/sushihentaime/socialnet/internal/common"
)

const (
	usernameTakenMsg = "a user with this username already exists"
	emailTakenMsg    = "a user with this email address already exists"
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

// duplicateUser translates the unique violations of the users table.
func duplicateUser(err error) error {
	switch {
	case common.UniqueViolation(err, "users_username_key"):
		return common.FieldError(common.ErrConflict, "username", usernameTakenMsg)
	case common.UniqueViolation(err, "users_email_key"):
		return common.FieldError(common.ErrConflict, "email", emailTakenMsg)
	default:
		return err
	}
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, email, password, activated, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Password.hash,
		u.Activated,
		u.Admin,
	}

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		return duplicateUser(err)
	}
	return nil
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, email, password, activated, is_admin, created_at, updated_at, version
		FROM users
		WHERE username = $1`

	var u User

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Password.hash,
		&u.Activated,
		&u.Admin,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Version,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) activateUserAccount(ctx context.Context, id int, version int) error {
	query := `
		UPDATE users
		SET activated = true, updated_at = now(), version = version + 1
		WHERE id = $1 AND version = $2`

	res, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, id, version)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return errors.New("too many rows affected")
		}
	}

	return nil
}

func (m *DBModel) updateUserPassword(ctx context.Context, pwd Password, id int) error {
	query := `
		UPDATE users
		SET password = $1
		WHERE id = $2`

	_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, pwd.hash, id)
	return err
}

// renameUser updates the username with an optimistic version check and
// refreshes the timestamps and version held by u.
func (m *DBModel) renameUser(ctx context.Context, u *User, username string) error {
	query := `
		UPDATE users
		SET username = $1, updated_at = now(), version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING updated_at, version`

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, username, u.ID, u.Version).Scan(&u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return duplicateUser(err)
		}
	}

	u.Username = username
	return nil
}

func (m *DBModel) adminExists(ctx context.Context) (bool, error) {
	var exists bool
	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE is_admin)`).Scan(&exists)
	return exists, err
}

// getUserByAccessToken resolves an unexpired access token hash to its user.
func (m *DBModel) getUserByAccessToken(ctx context.Context, token []byte) (*User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.activated, u.is_admin, u.created_at, u.updated_at, u.version,
			ARRAY(SELECT p.permission FROM user_permissions p WHERE p.user_id = u.id ORDER BY p.permission)
		FROM users u
		INNER JOIN auth_tokens t ON u.id = t.user_id
		WHERE t.access_token = $1 AND t.access_token_expiry > $2`

	var (
		u           User
		permissions []string
	)

	err := common.GetExecutor(ctx, m.db).QueryRowContext(ctx, query, token, time.Now()).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Activated,
		&u.Admin,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Version,
		pq.Array(&permissions),
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	for _, p := range permissions {
		u.Permissions = append(u.Permissions, Permission(p))
	}

	return &u, nil
}
