package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/analysisrequest"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

const (
	defaultRetention = 30 * 24 * time.Hour
	jobTimeout       = 5 * time.Minute
)

type Opts struct {
	fx.In

	Repo   analysisrequest.Repository
	Logger logger.Logger
	Config *config.Config
}

type Service struct {
	repo      analysisrequest.Repository
	logger    logger.Logger
	retention time.Duration
	scheduler gocron.Scheduler
}

func New(opts Opts) *Service {
	retention := opts.Config.Audit.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Service{
		repo:      opts.Repo,
		logger:    opts.Logger.WithComponent("Housekeeping"),
		retention: retention,
	}
}

// Start schedules the daily audit cleanup at 03:00
func (s *Service) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return fmt.Errorf("failed to create cleanup scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			s.ReportDaily(jobCtx, time.Now())
			if _, err := s.Cleanup(jobCtx); err != nil {
				s.logger.Error("Failed to clean up old analysis requests", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Info("Audit cleanup scheduled", "retention", s.retention.String())
	return nil
}

// Stop shuts the scheduler down and waits for a running job
func (s *Service) Stop(ctx context.Context) error {
	if s.scheduler == nil {
		return nil
	}
	s.logger.Info("Stopping audit cleanup scheduler")
	return s.scheduler.Shutdown()
}

// Cleanup deletes audit rows older than the retention period
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	s.logger.Info("Starting audit cleanup")

	rows, err := s.repo.CleanupOldRecords(ctx, s.retention)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Audit cleanup completed", "rows_deleted", rows)
	return rows, nil
}

// ReportDaily logs how many analyses succeeded and failed in the last day
func (s *Service) ReportDaily(ctx context.Context, now time.Time) {
	since := now.Add(-24 * time.Hour)

	succeeded, err := s.repo.CountByStatusSince(ctx, domain.StatusSucceeded, since)
	if err != nil {
		s.logger.Error("Failed to count succeeded analyses", "error", err)
		return
	}
	failed, err := s.repo.CountByStatusSince(ctx, domain.StatusFailed, since)
	if err != nil {
		s.logger.Error("Failed to count failed analyses", "error", err)
		return
	}

	s.logger.Info("Analyses in the last 24h", "succeeded", succeeded, "failed", failed)
}

var Module = fx.Module("housekeeping",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Service) {
		lc.Append(fx.Hook{
			OnStart: s.Start,
			OnStop:  s.Stop,
		})
	}),
)
