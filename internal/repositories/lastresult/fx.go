package lastresult

import (
	"context"

	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    logger.Logger
}

// NewStore picks Redis when REDIS_ADDR is set and memory otherwise
func NewStore(opts Opts) Store {
	if opts.Config.Redis.Addr == "" {
		opts.Logger.Info("Using in-memory last result store")
		return NewMemory(opts.Config.Redis.LastResultTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Config.Redis.Addr,
		Password: opts.Config.Redis.Password,
		DB:       opts.Config.Redis.DB,
	})

	opts.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				opts.Logger.Warn("Redis is not reachable yet", "addr", opts.Config.Redis.Addr, "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return NewRedis(client, opts.Config.Redis.LastResultTTL, opts.Logger)
}

var Module = fx.Module("last_result_store",
	fx.Provide(NewStore),
)
