package app

import (
	"context"
	"errors"

	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer/analyzerimpl"
	"github.com/orgball2608/insta-post-analyzer/internal/command"
	"github.com/orgball2608/insta-post-analyzer/internal/command/commandimpl"
	"github.com/orgball2608/insta-post-analyzer/internal/db"
	"github.com/orgball2608/insta-post-analyzer/internal/housekeeping"
	"github.com/orgball2608/insta-post-analyzer/internal/httpapi"
	"github.com/orgball2608/insta-post-analyzer/internal/instagram"
	"github.com/orgball2608/insta-post-analyzer/internal/instagram/graphqlimpl"
	"github.com/orgball2608/insta-post-analyzer/internal/llm"
	"github.com/orgball2608/insta-post-analyzer/internal/metrics"
	"github.com/orgball2608/insta-post-analyzer/internal/ratelimit"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/analysisrequest"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/lastresult"
	"github.com/orgball2608/insta-post-analyzer/internal/telegram"
	"github.com/orgball2608/insta-post-analyzer/internal/telegram/telegramimpl"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/orgball2608/insta-post-analyzer/pkg/pgx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var core = fx.Options(
	fx.Provide(
		logger.FxOption,
		ratelimit.NewFromConfig,
	),
	fx.Provide(
		fx.Annotate(
			graphqlimpl.New,
			fx.As(new(instagram.Client)),
		),
		llm.New,
		fx.Annotate(
			analyzerimpl.New,
			fx.As(new(analyzer.Client)),
		),
	),
	lastresult.Module,
	httpapi.Module,
	fx.Invoke(func() {
		metrics.MustRegister(prometheus.DefaultRegisterer)
	}),
)

// audit records pipeline runs in postgres and prunes them daily
var audit = fx.Options(
	fx.Invoke(db.MigrateUp),
	fx.Provide(pgx.New),
	analysisrequest.Module,
	housekeeping.Module,
)

var bot = fx.Options(
	fx.Provide(
		fx.Annotate(
			telegramimpl.New,
			fx.As(new(telegram.Client)),
		),
		fx.Annotate(
			commandimpl.New,
			fx.As(new(command.Client)),
		),
	),
	fx.Invoke(runBot),
)

// Module assembles the service. Postgres and the Telegram bot are only
// wired when configured; the HTTP API always runs.
func Module(cfg *config.Config) fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg),
		core,
	}
	if cfg.PostgresEnabled() {
		opts = append(opts, audit)
	}
	if cfg.Telegram.Token != "" {
		opts = append(opts, bot)
	}
	return fx.Options(opts...)
}

func runBot(lc fx.Lifecycle, log logger.Logger, cmdClient command.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := cmdClient.HandleCommand(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("Command handler stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
