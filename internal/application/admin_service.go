package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/pkg/apperror"
)

var (
	errSearchDisabled   = errors.New("user search is not configured")
	errActivityDisabled = errors.New("login activity is not configured")
	errNoActivity       = apperror.New(apperror.KindNotFound, "No login activity recorded for this user")
)

// SearchUsers queries the user index. size outside 1..50 falls back to 10.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]entity.UserView, error) {
	const title, detail = "User Search Failed", "Unable to search users at this time"

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation([]apperror.FieldError{{Field: "q", Message: "is required"}})
	}
	if s.Index == nil {
		return nil, s.internal(title, detail, errSearchDisabled, nil)
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	users, err := s.Index.SearchUsers(ctx, q, size)
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"q": q})
	}
	return users, nil
}

// GetLoginActivity returns the latest recorded login of userID.
func (s *Service) GetLoginActivity(ctx context.Context, userID string) (*entity.LoginActivity, error) {
	const title, detail = "Activity Lookup Failed", "Unable to read login activity at this time"

	if s.Activity == nil {
		return nil, s.internal(title, detail, errActivityDisabled, nil)
	}
	a, err := s.Activity.LoginActivity(ctx, userID)
	if err != nil {
		return nil, s.internal(title, detail, err, logrus.Fields{"user_id": userID})
	}
	if a == nil {
		return nil, errNoActivity
	}
	return a, nil
}
