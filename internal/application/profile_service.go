package application

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/internal/domain/entity"
	repo "github.com/homeservices/user-service/internal/domain/repository"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/mailer/templates"
	"github.com/homeservices/user-service/pkg/validation"
)

// MaxAvatarBytes caps an avatar upload.
const MaxAvatarBytes = 5 << 20

var (
	errProfileNotFound = apperror.New(apperror.KindUserNotFound, "User profile not found")
	errAvatarsDisabled = errors.New("avatar storage is not configured")
)

// The row may already be gone, so deactivating a missing user is reported as a failure rather than a 404.
var errDeactivateFailed = apperror.New(apperror.KindUserNotFound, "Unable to deactivate account at this time").
	WithStatus(http.StatusInternalServerError).
	WithTitle("Account Deletion Failed")

// UpdateProfileInput is a selective patch. Absent fields stay unchanged; an empty phone clears it.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,name"`
	LastName  *string `json:"last_name" validate:"omitempty,name"`
	Phone     *string `json:"phone" validate:"omitempty,zaphone"`
}

// AvatarUpload is one image file.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.UserView, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errProfileNotFound
	}
	if err != nil {
		return nil, s.internal("Profile Retrieval Failed", "Unable to retrieve user profile at this time",
			err, logrus.Fields{"user_id": userID})
	}
	v := u.View()
	return &v, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.UserView, error) {
	if fields := validation.Struct(in); fields != nil {
		return nil, apperror.Validation(fields)
	}

	u, err := s.Repo.UpdateProfile(ctx, userID, entity.ProfilePatch{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errProfileNotFound
	}
	if err != nil {
		return nil, s.internal("Profile Update Failed", "Unable to update user profile at this time",
			err, logrus.Fields{"user_id": userID})
	}

	s.Logger.WithField("user_id", userID).Info("profile updated")
	s.reindex(ctx, u)

	v := u.View()
	return &v, nil
}

// DeactivateAccount soft-deletes the caller. There is no way back.
// meta identifies the request in the notice sent to the account owner.
func (s *Service) DeactivateAccount(ctx context.Context, userID string, meta RequestMeta) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err == nil {
		err = s.Repo.Deactivate(ctx, userID)
	}
	if errors.Is(err, repo.ErrNotFound) {
		s.Logger.WithField("user_id", userID).Warn("deactivate: no active user")
		return errDeactivateFailed
	}
	if err != nil {
		return s.internal("Account Deletion Failed", "Unable to deactivate account at this time",
			err, logrus.Fields{"user_id": userID})
	}

	s.Logger.WithField("user_id", userID).Info("account deactivated")
	u.IsActive = false
	u.UpdatedAt = s.Now().UTC()
	s.reindex(ctx, u)
	s.enqueueEmail(ctx, templates.AccountDeactivated, u,
		templates.WithIP(meta.IP), templates.WithUserAgent(meta.UserAgent))
	s.clearActivity(ctx, userID)
	return nil
}

// UploadAvatar stores an image under avatars/<user id>/ and points avatar_url at it.
func (s *Service) UploadAvatar(ctx context.Context, userID string, in AvatarUpload) (*entity.UserView, error) {
	const title, detail = "Avatar Upload Failed", "Unable to upload avatar at this time"

	if s.Avatars == nil {
		return nil, s.internal(title, detail, errAvatarsDisabled, logrus.Fields{"user_id": userID})
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return nil, apperror.Validation([]apperror.FieldError{{Field: "avatar", Message: "must be an image"}})
	}
	if in.Size <= 0 || in.Size > MaxAvatarBytes {
		return nil, apperror.Validation([]apperror.FieldError{{Field: "avatar", Message: "must be between 1 byte and 5 MiB"}})
	}

	if _, err := s.Repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errProfileNotFound
		}
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": userID})
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	objectPath := path.Join("avatars", userID, s.NewID()+ext)
	url, err := s.Avatars.Upload(ctx, objectPath, in.ContentType, io.LimitReader(in.Body, MaxAvatarBytes))
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": userID, "object": objectPath})
	}

	u, err := s.Repo.UpdateProfile(ctx, userID, entity.ProfilePatch{AvatarURL: &url})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errProfileNotFound
	}
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": userID})
	}

	s.reindex(ctx, u)
	v := u.View()
	return &v, nil
}
