package analysisrequest

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
)

const table = "analysis_requests"

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("AnalysisRequestRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func insertQuery(req domain.AnalysisRequest) (string, []interface{}, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	var errorCode *string
	if req.ErrorCode != "" {
		errorCode = &req.ErrorCode
	}

	return repositories.SqBuilder.
		Insert(table).
		Columns("id", "shortcode", "source", "status", "error_code", "average_score", "duration_ms", "created_at").
		Values(req.ID, req.Shortcode, req.Source, req.Status, errorCode, req.AverageScore, req.Duration.Milliseconds(), req.CreatedAt).
		ToSql()
}

// Create stores the audit record of a pipeline run
func (p *Pgx) Create(ctx context.Context, req domain.AnalysisRequest) error {
	query, args, err := insertQuery(req)
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := p.pg.Exec(ctx, query, args...); err != nil {
		p.logger.Error("Failed to store analysis request", "shortcode", req.Shortcode, "error", err)
		return err
	}
	return nil
}

// CountByStatusSince counts runs with the given status created after since
func (p *Pgx) CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Select("COUNT(*)").
		From(table).
		Where(sq.Eq{"status": status}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	var count int64
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CleanupOldRecords deletes records older than the specified duration
func (p *Pgx) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	query, args, err := cleanupQuery(time.Now().Add(-olderThan))
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func cleanupQuery(cutoff time.Time) (string, []interface{}, error) {
	return repositories.SqBuilder.
		Delete(table).
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
}
