package lastresult

import (
	"context"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
)

// ErrNotFound is returned when a session has no stored result
var ErrNotFound = &errors.Error{Code: errors.CodeNotFound, Message: "no analysis for this session"}

//go:generate go run go.uber.org/mock/mockgen -source=lastresult.go -destination=mocks/mock.go
type Store interface {
	// Put replaces the session's last result
	Put(ctx context.Context, sessionID string, result *domain.Result) error

	// Get returns the session's last result or ErrNotFound
	Get(ctx context.Context, sessionID string) (*domain.Result, error)
}
