package analysisrequest

import (
	"context"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=analysisrequest.go -destination=mocks/mock.go
type Repository interface {
	// Create stores the audit record of a pipeline run
	Create(ctx context.Context, req domain.AnalysisRequest) error

	// CountByStatusSince counts runs with the given status created after since
	CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error)

	// CleanupOldRecords deletes records older than the specified duration
	CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error)
}
