package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
)

type UserRoleRepository struct {
	pool *pgxpool.Pool
}

func NewUserRoleRepository(pool *pgxpool.Pool) *UserRoleRepository {
	return &UserRoleRepository{pool: pool}
}

func (r *UserRoleRepository) Assign(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID, roleID)
	return mapErr(err)
}

// Sync runs in one transaction so a failed sync leaves the previous set intact.
func (r *UserRoleRepository) Sync(ctx context.Context, userID int64, roleIDs []int64) error {
	ids := dedupe(roleIDs)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var found int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM roles WHERE id = ANY($1)`, ids).Scan(&found); err != nil {
		return err
	}
	if found != len(ids) {
		return repository.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM user_roles
		WHERE user_id = $1 AND NOT (role_id = ANY($2))
	`, userID, ids); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID, ids); err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

func (r *UserRoleRepository) Detach(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	return err
}

func (r *UserRoleRepository) RolesOf(ctx context.Context, userID int64) ([]entity.Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ repository.UserRoleRepository = (*UserRoleRepository)(nil)
