package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
)

func roleIDs(roles []entity.Role) []int64 {
	out := make([]int64, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.ID)
	}
	return out
}

func TestUserRoles(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	admin := s.AddRole("admin")
	editor := s.AddRole("editor")
	viewer := s.AddRole("viewer")

	u := &entity.User{Name: "a", Email: "a@x.com", Password: "hash"}
	require.NoError(t, s.Users().Create(ctx, u))

	ur := s.UserRoles()

	t.Run("assign is additive", func(t *testing.T) {
		require.NoError(t, ur.Assign(ctx, u.ID, admin.ID))
		require.NoError(t, ur.Assign(ctx, u.ID, editor.ID))
		require.NoError(t, ur.Assign(ctx, u.ID, editor.ID))
		roles, err := ur.RolesOf(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{admin.ID, editor.ID}, roleIDs(roles))
	})

	t.Run("sync replaces", func(t *testing.T) {
		require.NoError(t, ur.Sync(ctx, u.ID, []int64{viewer.ID}))
		roles, err := ur.RolesOf(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{viewer.ID}, roleIDs(roles))
	})

	t.Run("sync with unknown role keeps previous set", func(t *testing.T) {
		err := ur.Sync(ctx, u.ID, []int64{admin.ID, 999})
		assert.ErrorIs(t, err, repository.ErrNotFound)
		roles, _ := ur.RolesOf(ctx, u.ID)
		assert.Equal(t, []int64{viewer.ID}, roleIDs(roles))
	})

	t.Run("detach clears", func(t *testing.T) {
		require.NoError(t, ur.Detach(ctx, u.ID))
		roles, err := ur.RolesOf(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, roles)
	})

	t.Run("assign unknown role", func(t *testing.T) {
		assert.ErrorIs(t, ur.Assign(ctx, u.ID, 42), repository.ErrNotFound)
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	users := s.Users()

	for i := 0; i < 13; i++ {
		u := &entity.User{Name: "u", Email: string(rune('a'+i)) + "@x.com"}
		require.NoError(t, users.Create(ctx, u))
	}

	dup := &entity.User{Name: "dup", Email: "A@x.com"}
	assert.ErrorIs(t, users.Create(ctx, dup), repository.ErrConflict)

	page, err := users.Paginate(ctx, 2, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(13), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(12), page.Items[0].ID)

	beyond, err := users.Paginate(ctx, 5, 11)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	require.NoError(t, users.Delete(ctx, 1))
	_, err = users.FindByID(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, 1), repository.ErrNotFound)

	require.NoError(t, users.UpdatePassword(ctx, 2, "new-hash"))
	u, err := users.GetByEmail(ctx, "B@X.COM")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.Password)
}
