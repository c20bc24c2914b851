package lastresult

import (
	"context"
	"encoding/json"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "last_result:"

type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger logger.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger.WithComponent("LastResultRedis"),
	}
}

var _ Store = (*Redis)(nil)

func (r *Redis) Put(ctx context.Context, sessionID string, result *domain.Result) error {
	if result == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, keyPrefix+sessionID, payload, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to store last result", "session", sessionID, "error", err)
		return err
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, sessionID string) (*domain.Result, error) {
	payload, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var result domain.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		r.logger.Warn("Dropping unreadable last result", "session", sessionID, "error", err)
		return nil, ErrNotFound
	}
	return &result, nil
}
