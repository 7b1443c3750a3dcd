package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-user-admin/config"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	pginfra "github.com/oksasatya/go-ddd-user-admin/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-admin/pkg/helpers"
)

var seedRoles = []string{"admin", "editor", "user"}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	roleIDs := make(map[string]int64, len(seedRoles))
	for _, name := range seedRoles {
		var id int64
		if err := pool.QueryRow(ctx, `
			INSERT INTO roles (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET updated_at = now()
			RETURNING id
		`, name).Scan(&id); err != nil {
			log.Fatalf("failed to upsert role %s: %v", name, err)
		}
		roleIDs[name] = id
	}
	fmt.Printf("roles ensured: %v\n", roleIDs)

	// the edit form caches the role list
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := helpers.RedisDel(ctx, rdb, helpers.KeyRolesAll); err != nil {
		log.Printf("role cache not cleared: %v", err)
	}
	_ = rdb.Close()

	users := pginfra.NewUserRepository(pool)
	email, password := "admin@example.com", "password123"
	admin, err := users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		hash, herr := helpers.HashPassword(password)
		if herr != nil {
			log.Fatalf("failed to hash password: %v", herr)
		}
		admin = &entity.User{Name: "Administrator", Email: email, Password: hash}
		err = users.Create(ctx, admin)
	}
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded user: id=%d email=%s password=%s\n", admin.ID, email, password)

	if err := pginfra.NewUserRoleRepository(pool).Assign(ctx, admin.ID, roleIDs["admin"]); err != nil {
		log.Fatalf("failed to assign admin role: %v", err)
	}

	token, exp, err := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL).GenerateAccessToken(admin.ID)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Printf("development access token (expires %s):\n%s\n", exp.Format("2006-01-02 15:04:05"), token)
}
