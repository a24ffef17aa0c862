package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/homeservices/user-service/internal/interface/http"
	"github.com/homeservices/user-service/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    middleware.Authenticator
}

func NewAuthModule(h *handlers.AuthHandler, auth middleware.Authenticator) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth}
}

// Register mounts the public credential endpoints. A caller who already holds a valid
// token is identified for the access log only; the handlers never read it.
func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth", middleware.OptionalAuth(m.Auth))
	{
		auth.POST("/register", m.Handler.Register)
		auth.POST("/login", m.Handler.Login)
		auth.POST("/refresh", m.Handler.Refresh)
	}
}
