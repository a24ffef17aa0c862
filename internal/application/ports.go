package application

import (
	"context"
	"io"

	"github.com/homeservices/user-service/internal/domain/entity"
)

// PasswordHasher is satisfied by helpers.BcryptHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// EmailQueue publishes mailer.EmailJob payloads. Satisfied by helpers.RabbitPublisher.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserIndex is the search mirror of the credential store.
type UserIndex interface {
	IndexUser(ctx context.Context, v entity.UserView) error
	SearchUsers(ctx context.Context, q string, size int) ([]entity.UserView, error)
}

// ActivityStore keeps the latest login per user. LoginActivity returns nil, nil when none is recorded.
type ActivityStore interface {
	RecordLogin(ctx context.Context, a entity.LoginActivity) error
	LoginActivity(ctx context.Context, userID string) (*entity.LoginActivity, error)
	Clear(ctx context.Context, userID string) error
}

// AvatarStore persists an image and returns where it can be fetched.
type AvatarStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
