package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
)

type RoleRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Role, error)
	All(ctx context.Context) ([]entity.Role, error)
}

// UserRoleRepository manages the user_roles join table.
//
// Assign adds a single association and keeps existing ones. Sync replaces the
// whole set with exactly roleIDs and fails with ErrNotFound when any id does
// not name a role. Detach removes every association of the user.
type UserRoleRepository interface {
	Assign(ctx context.Context, userID, roleID int64) error
	Sync(ctx context.Context, userID int64, roleIDs []int64) error
	Detach(ctx context.Context, userID int64) error
	RolesOf(ctx context.Context, userID int64) ([]entity.Role, error)
}
