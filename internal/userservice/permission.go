package userservice

import (
	"context"

	"github.com/sushihentaime/socialnet/internal/common"
)

func (m *DBModel) addUserPermission(ctx context.Context, id int, permissions ...Permission) error {
	query := `
		INSERT INTO user_permissions (user_id, permission)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, p := range permissions {
		_, err := common.GetExecutor(ctx, m.db).ExecContext(ctx, query, id, p)
		if err != nil {
			return err
		}
	}

	return nil
}

func (u *User) HasPermission(permission Permission) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}

	return false
}
