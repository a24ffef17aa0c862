package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/internal/domain/entity"
	repo "github.com/homeservices/user-service/internal/domain/repository"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/helpers"
	"github.com/homeservices/user-service/pkg/mailer/templates"
	"github.com/homeservices/user-service/pkg/validation"
)

var (
	// one value for unknown email and wrong password, so both answers are byte-identical
	errInvalidCredentials = apperror.New(apperror.KindInvalidCredentials, "Invalid email or password")
	errUserExists         = apperror.New(apperror.KindUserExists, "An account with this email address already exists")
)

// Service is the account orchestrator.
type Service struct {
	Repo   repo.UserRepository
	Hasher PasswordHasher
	JWT    *helpers.JWTManager
	Logger *logrus.Logger

	// Optional collaborators. A nil value disables the feature or side effect.
	Emails   EmailQueue
	Index    UserIndex
	Activity ActivityStore
	Avatars  AvatarStore

	// ExpiresIn is echoed to clients as tokens.expires_in. It does not change token expiry.
	ExpiresIn string

	Now   func() time.Time
	NewID func() string
}

func NewService(repo repo.UserRepository, hasher PasswordHasher, jwt *helpers.JWTManager, logger *logrus.Logger, expiresIn string) *Service {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	if expiresIn == "" {
		expiresIn = "24h"
	}
	return &Service{
		Repo:      repo,
		Hasher:    hasher,
		JWT:       jwt,
		Logger:    logger,
		ExpiresIn: expiresIn,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Tokens is the client-facing view of an issued pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    string `json:"expires_in"`
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	User   entity.UserView `json:"user"`
	Tokens Tokens          `json:"tokens"`
}

type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,pwd"`
	FirstName string  `json:"first_name" validate:"required,name"`
	LastName  string  `json:"last_name" validate:"required,name"`
	Phone     *string `json:"phone" validate:"omitempty,zaphone"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RequestMeta describes the caller of a login, for the activity record.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// internal logs err in full and returns the generic rejection the caller sees.
func (s *Service) internal(title, detail string, err error, fields logrus.Fields) error {
	s.Logger.WithError(err).WithFields(fields).Error(title)
	return apperror.Internal(title, detail, err)
}

func (s *Service) issue(u *entity.User) (Tokens, error) {
	pair, err := s.JWT.Issue(u.ID, u.Email, u.Roles)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.ExpiresIn,
	}, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	const title, detail = "Registration Failed", "Unable to create user account at this time"

	in.Email = entity.NormalizeEmail(in.Email)
	if fields := validation.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	// without a signing secret the account could be stored but never handed tokens
	if err := s.JWT.Ready(); err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"email": in.Email})
	}

	_, err := s.Repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, errUserExists
	case !errors.Is(err, repo.ErrNotFound):
		return nil, s.internal(title, detail, err, logrus.Fields{"email": in.Email})
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"email": in.Email})
	}

	u := &entity.User{
		ID:           s.NewID(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Roles:        entity.DefaultRoles(),
		IsActive:     true,
	}
	if in.Phone != nil && *in.Phone != "" {
		phone := *in.Phone
		u.Phone = &phone
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		// the holder may be deactivated, or a concurrent registration won
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, errUserExists
		}
		return nil, s.internal(title, detail, err, logrus.Fields{"email": in.Email})
	}

	tokens, err := s.issue(u)
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": u.ID})
	}

	s.Logger.WithField("user_id", u.ID).Info("user registered")
	s.reindex(ctx, u)
	s.enqueueEmail(ctx, templates.Welcome, u)

	return &AuthResult{User: u.View(), Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput, meta RequestMeta) (*AuthResult, error) {
	const title, detail = "Login Failed", "Unable to process login request at this time"

	in.Email = entity.NormalizeEmail(in.Email)
	if fields := validation.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	u, err := s.Repo.GetByEmailWithHash(ctx, in.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"email": in.Email})
	}
	if !s.Hasher.Verify(in.Password, u.PasswordHash) {
		return nil, errInvalidCredentials
	}
	u.PasswordHash = ""

	now := s.Now().UTC()
	if err := s.Repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": u.ID})
	}
	u.LastLogin = &now

	tokens, err := s.issue(u)
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": u.ID})
	}

	s.Logger.WithField("user_id", u.ID).Info("user logged in")
	s.recordLogin(ctx, entity.LoginActivity{UserID: u.ID, At: now, IP: meta.IP, UserAgent: meta.UserAgent})

	return &AuthResult{User: u.View(), Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair. The user is re-checked the same way
// the authentication pipeline checks access tokens.
func (s *Service) Refresh(ctx context.Context, in RefreshInput) (*AuthResult, error) {
	const title, detail = "Token Refresh Failed", "Unable to refresh tokens at this time"

	if fields := validation.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	claims, err := s.JWT.ParseRefreshToken(in.RefreshToken)
	if errors.Is(err, helpers.ErrMissingSecret) {
		return nil, s.internal(title, detail, err, nil)
	}
	if err != nil {
		return nil, errInvalidToken
	}

	u, err := s.Repo.GetByIDAnyStatus(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errTokenUserGone
	}
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": claims.UserID})
	}
	if !u.IsActive {
		return nil, errUserDeactivated
	}

	tokens, err := s.issue(u)
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": u.ID})
	}
	return &AuthResult{User: u.View(), Tokens: tokens}, nil
}
