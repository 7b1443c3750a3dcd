package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
)

// testPool connects to TEST_POSTGRES_DSN and migrates it; the test is
// skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn, "../../../db/migrations", helpers.NewDiscardLogger()))

	pool, err := NewPool(context.Background(), dsn, 4, 1, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type pgFixture struct {
	userID int64
	roles  []int64
}

func newPGFixture(t *testing.T, pool *pgxpool.Pool, roleCount int) pgFixture {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	u := &entity.User{Name: "sync", Email: fmt.Sprintf("sync-%d@example.com", suffix), Password: "x"}
	require.NoError(t, NewUserRepository(pool).Create(ctx, u))

	f := pgFixture{userID: u.ID}
	for i := 0; i < roleCount; i++ {
		var id int64
		require.NoError(t, pool.QueryRow(ctx,
			`INSERT INTO roles (name) VALUES ($1) RETURNING id`,
			fmt.Sprintf("role-%d-%d", suffix, i),
		).Scan(&id))
		f.roles = append(f.roles, id)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, f.userID)
		_, _ = pool.Exec(ctx, `DELETE FROM roles WHERE id = ANY($1)`, f.roles)
	})
	return f
}

func roleIDsOf(t *testing.T, repo *UserRoleRepository, userID int64) []int64 {
	t.Helper()
	roles, err := repo.RolesOf(context.Background(), userID)
	require.NoError(t, err)
	ids := make([]int64, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestUserRoleAssign(t *testing.T) {
	pool := testPool(t)
	f := newPGFixture(t, pool, 2)
	repo := NewUserRoleRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Assign(ctx, f.userID, f.roles[0]))
	require.NoError(t, repo.Assign(ctx, f.userID, f.roles[0]))
	assert.Equal(t, []int64{f.roles[0]}, roleIDsOf(t, repo, f.userID))

	assert.ErrorIs(t, repo.Assign(ctx, f.userID, -1), repository.ErrNotFound)
}

func TestUserRoleSync(t *testing.T) {
	pool := testPool(t)
	f := newPGFixture(t, pool, 3)
	repo := NewUserRoleRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Assign(ctx, f.userID, f.roles[0]))

	require.NoError(t, repo.Sync(ctx, f.userID, []int64{f.roles[1], f.roles[2], f.roles[1]}))
	assert.Equal(t, []int64{f.roles[1], f.roles[2]}, roleIDsOf(t, repo, f.userID))

	err := repo.Sync(ctx, f.userID, []int64{f.roles[0], -1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []int64{f.roles[1], f.roles[2]}, roleIDsOf(t, repo, f.userID), "failed sync must leave the set intact")

	require.NoError(t, repo.Sync(ctx, f.userID, []int64{}))
	assert.Empty(t, roleIDsOf(t, repo, f.userID))
}

func TestUserRoleDetach(t *testing.T) {
	pool := testPool(t)
	f := newPGFixture(t, pool, 2)
	repo := NewUserRoleRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Sync(ctx, f.userID, f.roles))
	require.NoError(t, repo.Detach(ctx, f.userID))
	assert.Empty(t, roleIDsOf(t, repo, f.userID))
}
