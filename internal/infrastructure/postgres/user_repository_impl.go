package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id::text, email, first_name, last_name, phone, avatar_url, roles,
	is_verified, is_active, last_login, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row, withHash bool) (*entity.User, error) {
	u := &entity.User{}
	dest := []any{&u.ID, &u.Email}
	if withHash {
		dest = append(dest, &u.PasswordHash)
	}
	dest = append(dest, &u.FirstName, &u.LastName, &u.Phone, &u.AvatarURL, &u.Roles,
		&u.IsVerified, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, roles, is_verified, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Roles, u.IsVerified, u.IsActive)

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND is_active = true
	`, email)
	return scanUser(row, false)
}

func (r *UserRepository) GetByEmailWithHash(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, email, password_hash, first_name, last_name, phone, avatar_url, roles,
			is_verified, is_active, last_login, created_at, updated_at
		FROM users
		WHERE email = $1 AND is_active = true
	`, email)
	return scanUser(row, true)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND is_active = true
	`, id)
	return scanUser(row, false)
}

func (r *UserRepository) GetByIDAnyStatus(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row, false)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update last_login: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p entity.ProfilePatch) (*entity.User, error) {
	// an empty phone clears the column
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($2::text, first_name),
			last_name  = COALESCE($3::text, last_name),
			phone      = CASE WHEN $4::text IS NULL THEN phone ELSE NULLIF($4::text, '') END,
			avatar_url = COALESCE($5::text, avatar_url),
			updated_at = NOW()
		WHERE id = $1 AND is_active = true
		RETURNING `+userColumns,
		id, p.FirstName, p.LastName, p.Phone, p.AvatarURL)
	u, err := scanUser(row, false)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, err
}

func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND is_active = true
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Promote adds roles to an existing row, keeping the set distinct. Used by the seed command.
func (r *UserRepository) Promote(ctx context.Context, id string, roles ...string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET
			roles = ARRAY(SELECT DISTINCT unnest(roles || $2::text[])),
			updated_at = NOW()
		WHERE id = $1
	`, id, roles)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
