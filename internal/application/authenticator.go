package application

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/internal/domain/entity"
	repo "github.com/homeservices/user-service/internal/domain/repository"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/helpers"
)

var (
	errMissingToken       = apperror.New(apperror.KindMissingToken, "Authorization header is required")
	errInvalidTokenFormat = apperror.New(apperror.KindInvalidTokenFormat, `Authorization header must be "Bearer <token>"`)
	errInvalidToken       = apperror.New(apperror.KindInvalidToken, "The provided token is invalid or has expired")
	errTokenUserGone      = apperror.New(apperror.KindUserNotFound, "User associated with token no longer exists").WithStatus(http.StatusUnauthorized)
	errUserDeactivated    = apperror.New(apperror.KindUserDeactivated, "This user account has been deactivated")
	errUnauthenticated    = apperror.New(apperror.KindUnauthenticated, "User must be authenticated to access this resource")
)

// Authenticator turns an Authorization header into the identity of the caller.
type Authenticator struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewAuthenticator(repo repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *Authenticator {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &Authenticator{Repo: repo, JWT: jwt, Logger: logger}
}

// Authenticate runs extract, parse, verify, resolve and active-check in order and stops at
// the first failure. On failure the returned context is always nil.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*entity.AuthContext, error) {
	if header == "" {
		return nil, errMissingToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errInvalidTokenFormat
	}

	claims, err := a.JWT.ParseAccessToken(parts[1])
	if errors.Is(err, helpers.ErrMissingSecret) {
		return nil, a.internal(err, nil)
	}
	if err != nil {
		return nil, errInvalidToken
	}

	u, err := a.Repo.GetByIDAnyStatus(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errTokenUserGone
	}
	if err != nil {
		return nil, a.internal(err, logrus.Fields{"user_id": claims.UserID})
	}

	if !u.IsActive {
		return nil, errUserDeactivated
	}

	return entity.NewAuthContext(u), nil
}

func (a *Authenticator) internal(err error, fields logrus.Fields) error {
	a.Logger.WithError(err).WithFields(fields).Error("authentication error")
	return apperror.Internal("Authentication Error", "An error occurred during authentication", err)
}

// Authorize allows ac when it holds at least one of roles. Matching is exact.
func Authorize(ac *entity.AuthContext, roles ...string) error {
	if ac == nil {
		return errUnauthenticated
	}
	if !ac.HasAnyRole(roles...) {
		return apperror.New(apperror.KindInsufficientPermissions,
			"Access requires one of the following roles: "+strings.Join(roles, ", "))
	}
	return nil
}
