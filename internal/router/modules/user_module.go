package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/internal/domain/entity"
	handlers "github.com/homeservices/user-service/internal/interface/http"
	"github.com/homeservices/user-service/internal/interface/middleware"
)

// UserModule wires the profile and admin handlers behind the auth guards.
// Protected: GET/PUT/DELETE /api/users/profile, POST /api/users/profile/avatar
// Admin: GET /api/users/admin/users, GET /api/users/admin/users/:id/activity
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    middleware.Authenticator
	Logger  *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, auth middleware.Authenticator, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users", middleware.Guard(m.Logger, middleware.Authenticated(m.Auth)))
	{
		users.GET("/profile", m.Handler.GetProfile)
		users.PUT("/profile", m.Handler.UpdateProfile)
		users.DELETE("/profile", m.Handler.DeleteProfile)
		users.POST("/profile/avatar", m.Handler.UploadAvatar)
	}

	admin := users.Group("/admin", middleware.Guard(m.Logger, middleware.HasRole(entity.RoleAdmin)))
	{
		admin.GET("/users", m.Handler.SearchUsers)
		admin.GET("/users/:id/activity", m.Handler.LoginActivity)
	}
}
