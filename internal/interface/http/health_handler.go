package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DependencyCheck reports whether one dependency answers.
type DependencyCheck func(ctx context.Context) error

type HealthHandler struct {
	Service string
	Version string
	Deps    map[string]DependencyCheck
	Logger  *logrus.Logger
}

func NewHealthHandler(service, version string, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Service: service, Version: version, Deps: map[string]DependencyCheck{}, Logger: logger}
}

type healthReport struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Check runs every dependency check with a short deadline. Any failure answers 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Deps))
	for name := range h.Deps {
		names = append(names, name)
	}
	sort.Strings(names)

	report := healthReport{
		Status:    "healthy",
		Service:   h.Service,
		Version:   h.Version,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(names)),
	}
	status := http.StatusOK
	for _, name := range names {
		if err := h.Deps[name](ctx); err != nil {
			if h.Logger != nil {
				h.Logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			}
			report.Checks[name] = "down"
			report.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		report.Checks[name] = "up"
	}
	c.JSON(status, report)
}
