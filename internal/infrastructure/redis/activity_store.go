package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/homeservices/user-service/internal/domain/entity"
)

// ActivityTTL bounds how long a login record is kept after the last login.
const ActivityTTL = 30 * 24 * time.Hour

func activityKey(userID string) string {
	return "user:activity:" + userID
}

// ActivityStore keeps the latest successful login per user as a Redis hash.
type ActivityStore struct {
	rdb *goredis.Client
}

func NewActivityStore(rdb *goredis.Client) *ActivityStore {
	return &ActivityStore{rdb: rdb}
}

func (s *ActivityStore) RecordLogin(ctx context.Context, a entity.LoginActivity) error {
	key := activityKey(a.UserID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    a.UserID,
		"at":         a.At.UTC().Format(time.RFC3339Nano),
		"ip":         a.IP,
		"user_agent": a.UserAgent,
	})
	pipe.Expire(ctx, key, ActivityTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login activity: %w", err)
	}
	return nil
}

// LoginActivity returns nil, nil when nothing is recorded for userID.
func (s *ActivityStore) LoginActivity(ctx context.Context, userID string) (*entity.LoginActivity, error) {
	data, err := s.rdb.HGetAll(ctx, activityKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read login activity: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339Nano, data["at"])
	if err != nil {
		return nil, fmt.Errorf("parse login activity time: %w", err)
	}
	return &entity.LoginActivity{
		UserID:    userID,
		At:        at,
		IP:        data["ip"],
		UserAgent: data["user_agent"],
	}, nil
}

func (s *ActivityStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, activityKey(userID)).Err()
}

// Ping is used by the health check.
func (s *ActivityStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
