package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/homeservices/user-service/internal/interface/http"
)

// HealthModule serves GET /health. It is mounted on the engine root, not under /api.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule {
	return &HealthModule{Handler: h}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.Handler.Check)
}
