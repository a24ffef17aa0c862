package router

import (
	"github.com/homeservices/user-service/internal/container"
	handlers "github.com/homeservices/user-service/internal/interface/http"
	"github.com/homeservices/user-service/internal/router/modules"
)

// InitModules builds every feature module from c and adds it to r.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(c.Service), c.Authenticator))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(c.Service), c.Authenticator, c.Logger))

	health := handlers.NewHealthHandler(c.Config.AppName, c.Config.ServiceVersion, c.Logger)
	for name, check := range c.HealthChecks() {
		health.Deps[name] = check
	}
	r.AddRoot(modules.NewHealthModule(health))
}
