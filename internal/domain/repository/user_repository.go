package repository

import (
	"context"
	"errors"
	"time"

	"github.com/homeservices/user-service/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository is the credential store. Every lookup except GetByIDAnyStatus
// only sees rows with is_active = true, and emails are expected already normalized.
type UserRepository interface {
	// Create inserts u and fills its timestamps. ErrDuplicateEmail on a unique violation.
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByEmailWithHash is the only lookup that populates PasswordHash.
	GetByEmailWithHash(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIDAnyStatus also returns deactivated rows, so callers can tell
	// "gone" from "deactivated".
	GetByIDAnyStatus(ctx context.Context, id string) (*entity.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// UpdateProfile applies the non-nil fields of p, refreshes updated_at and returns the new row.
	UpdateProfile(ctx context.Context, id string, p entity.ProfilePatch) (*entity.User, error)
	// Deactivate flips is_active to false and refreshes updated_at.
	Deactivate(ctx context.Context, id string) error
}
