package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with existing data")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Paginate(ctx context.Context, page, perPage int) (entity.Page[entity.User], error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}
