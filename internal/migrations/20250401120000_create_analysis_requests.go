package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateAnalysisRequests, downCreateAnalysisRequests)
}

func upCreateAnalysisRequests(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE analysis_requests (
		id            UUID PRIMARY KEY,
		shortcode     VARCHAR(64) NOT NULL,
		source        VARCHAR(16) NOT NULL,
		status        VARCHAR(16) NOT NULL,
		error_code    VARCHAR(32),
		average_score INTEGER,
		duration_ms   BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX idx_analysis_requests_created_at ON analysis_requests (created_at);
	CREATE INDEX idx_analysis_requests_status_created_at ON analysis_requests (status, created_at);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateAnalysisRequests(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE analysis_requests;
	`)
	if err != nil {
		return err
	}
	return nil
}
