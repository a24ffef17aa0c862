package container

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/homeservices/user-service/config"
	"github.com/homeservices/user-service/internal/application"
	pginfra "github.com/homeservices/user-service/internal/infrastructure/postgres"
	redisinfra "github.com/homeservices/user-service/internal/infrastructure/redis"
	"github.com/homeservices/user-service/internal/infrastructure/search"
	storageinfra "github.com/homeservices/user-service/internal/infrastructure/storage"
	"github.com/homeservices/user-service/pkg/helpers"
)

// Container holds the components shared by the router modules.
// Only Config, Logger, Pool and JWT are required; the rest are nil when not configured.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	JWT    *helpers.JWTManager
	Rabbit *helpers.RabbitPublisher
	ES     *elasticsearch.Client

	Service       *application.Service
	Authenticator *application.Authenticator

	activity *redisinfra.ActivityStore
	index    *search.UserIndex
}

// Deps are the connections main opened.
type Deps struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	Rabbit *helpers.RabbitPublisher
	ES     *elasticsearch.Client
}

// New wires the service layer over d. Optional collaborators are only assigned when
// their connection exists, so the service never holds a typed-nil interface.
func New(cfg *config.Config, logger *logrus.Logger, d Deps) *Container {
	jwt := helpers.NewJWTManager(cfg.JWTSecret)
	repo := pginfra.NewUserRepository(d.Pool)

	svc := application.NewService(repo, helpers.NewBcryptHasher(cfg.HashCost), jwt, logger, cfg.JWTExpiresIn)

	c := &Container{
		Config:        cfg,
		Logger:        logger,
		Pool:          d.Pool,
		Redis:         d.Redis,
		GCS:           d.GCS,
		JWT:           jwt,
		Rabbit:        d.Rabbit,
		ES:            d.ES,
		Service:       svc,
		Authenticator: application.NewAuthenticator(repo, jwt, logger),
	}

	if d.Redis != nil {
		c.activity = redisinfra.NewActivityStore(d.Redis)
		svc.Activity = c.activity
	}
	if d.ES != nil {
		c.index = search.NewUserIndex(d.ES, cfg.ESUsersIndex)
		svc.Index = c.index
	}
	if d.GCS != nil && cfg.GCSBucket != "" {
		svc.Avatars = storageinfra.NewAvatarStore(d.GCS, cfg.GCSBucket)
	}
	if d.Rabbit != nil && cfg.MailSendEnabled {
		svc.Emails = d.Rabbit
	}
	return c
}

// HealthChecks lists a readiness check per configured dependency.
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"postgres": c.Pool.Ping,
	}
	if c.activity != nil {
		checks["redis"] = c.activity.Ping
	}
	if c.index != nil {
		checks["elasticsearch"] = c.index.Ping
	}
	return checks
}

// Close releases every connection in reverse order of opening.
func (c *Container) Close() {
	if c.Rabbit != nil {
		c.Rabbit.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
