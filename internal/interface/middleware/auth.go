package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/internal/application"
	"github.com/homeservices/user-service/internal/domain/entity"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/response"
)

const ctxAuthKey = "auth"

// Authenticator is satisfied by application.Authenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*entity.AuthContext, error)
}

// Check decides whether a request may continue. A non-nil error denies it.
type Check func(c *gin.Context) error

// Guard runs checks in order. The first denial aborts the request with its problem body
// and later checks do not run.
func Guard(logger *logrus.Logger, checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range checks {
			if err := check(c); err != nil {
				if apperror.KindOf(err) == apperror.KindInternal && logger != nil {
					logger.WithError(err).WithField("request_id", c.GetString(ctxRequestIDKey)).Error("request guard failed")
				}
				response.Error(c, err)
				return
			}
		}
		c.Next()
	}
}

// Authenticated requires a valid bearer token for an active user and attaches the identity.
func Authenticated(a Authenticator) Check {
	return func(c *gin.Context) error {
		ac, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			return err
		}
		c.Set(ctxAuthKey, ac)
		return nil
	}
}

// HasRole requires an attached identity holding at least one of roles.
func HasRole(roles ...string) Check {
	return func(c *gin.Context) error {
		return application.Authorize(AuthFrom(c), roles...)
	}
}

// OptionalAuth attaches the identity when the header authenticates. Any rejection,
// including a present but invalid token, is dropped and the request continues anonymously.
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ac, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization")); err == nil {
			c.Set(ctxAuthKey, ac)
		}
		c.Next()
	}
}

// AuthFrom returns the identity attached by Authenticated or OptionalAuth, or nil.
func AuthFrom(c *gin.Context) *entity.AuthContext {
	v, ok := c.Get(ctxAuthKey)
	if !ok {
		return nil
	}
	ac, _ := v.(*entity.AuthContext)
	return ac
}
