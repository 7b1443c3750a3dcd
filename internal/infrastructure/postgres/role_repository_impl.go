package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*entity.Role, error) {
	role := &entity.Role{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM roles
		WHERE id = $1
	`, id).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return role, nil
}

func (r *RoleRepository) All(ctx context.Context) ([]entity.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

type roleRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func collectRoles(rows roleRows) ([]entity.Role, error) {
	defer rows.Close()
	out := []entity.Role{}
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
