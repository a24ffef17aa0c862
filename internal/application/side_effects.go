package application

import (
	"context"

	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/pkg/mailer"
	"github.com/homeservices/user-service/pkg/mailer/templates"
)

// The helpers below are best-effort: failures are logged and never fail the calling operation.

func (s *Service) reindex(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexUser(ctx, u.View()); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("search index update failed")
	}
}

func (s *Service) enqueueEmail(ctx context.Context, template string, u *entity.User, opts ...templates.Option) {
	if s.Emails == nil {
		return
	}
	data := templates.NewEmailData(u.FirstName, u.Email, append([]templates.Option{templates.WithTime(s.Now())}, opts...)...)
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data:     &data,
	}
	if err := s.Emails.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).WithField("template", template).Warn("enqueue email failed")
	}
}

func (s *Service) recordLogin(ctx context.Context, a entity.LoginActivity) {
	if s.Activity == nil {
		return
	}
	if err := s.Activity.RecordLogin(ctx, a); err != nil {
		s.Logger.WithError(err).WithField("user_id", a.UserID).Warn("record login activity failed")
	}
}

func (s *Service) clearActivity(ctx context.Context, userID string) {
	if s.Activity == nil {
		return
	}
	if err := s.Activity.Clear(ctx, userID); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("clear login activity failed")
	}
}
