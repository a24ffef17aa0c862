package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/homeservices/user-service/config"
	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/internal/domain/repository"
	pginfra "github.com/homeservices/user-service/internal/infrastructure/postgres"
	"github.com/homeservices/user-service/pkg/helpers"
)

// errDeactivatedHolder means the seed email belongs to a deactivated account,
// which lookups skip but the unique email index still holds.
var errDeactivatedHolder = errors.New("email belongs to a deactivated account; reactivate or remove that row, or pick another SEED_ADMIN_EMAIL")

type adminStore interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	Promote(ctx context.Context, id string, roles ...string) error
}

// seed creates the admin account named by SEED_ADMIN_EMAIL, or promotes it when it
// already exists. Migrations must have run first.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer pool.Close()

	hasher := helpers.NewBcryptHasher(cfg.HashCost)
	u, created, err := ensureAdmin(ctx, pginfra.NewUserRepository(pool), hasher, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("failed to seed %s: %v", cfg.SeedAdminEmail, err)
	}
	if created {
		fmt.Printf("seeded user: id=%s email=%s\n", u.ID, u.Email)
	} else {
		fmt.Printf("user exists: id=%s email=%s\n", u.ID, u.Email)
	}
	fmt.Println("assigned admin role to seeded user (if not already)")
}

// ensureAdmin looks up or creates the account for email and grants it customer and admin.
func ensureAdmin(ctx context.Context, store adminStore, hasher helpers.BcryptHasher, email, password string) (*entity.User, bool, error) {
	email = entity.NormalizeEmail(email)
	created := false

	u, err := store.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, herr := hasher.Hash(password)
		if herr != nil {
			return nil, false, fmt.Errorf("hash password: %w", herr)
		}
		u = &entity.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			FirstName:    "Platform",
			LastName:     "Admin",
			Roles:        entity.DefaultRoles(),
			IsVerified:   true,
			IsActive:     true,
		}
		if err := store.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return nil, false, errDeactivatedHolder
			}
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("look up user: %w", err)
	}

	if err := store.Promote(ctx, u.ID, entity.RoleCustomer, entity.RoleAdmin); err != nil {
		return nil, false, fmt.Errorf("assign admin role: %w", err)
	}
	return u, created, nil
}
