package analyzer

import (
	"context"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=analyzer.go -destination=mocks/mock.go
type Client interface {
	// FetchPost resolves a post URL or shortcode into a normalized post
	FetchPost(ctx context.Context, input string) (*domain.Post, error)

	// Analyze fetches the post and returns its composite evaluation
	Analyze(ctx context.Context, input string) (*domain.Result, error)
}

type sourceKey struct{}

// WithSource tags ctx with the surface that started the request
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the request surface, http when unset
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return domain.SourceHTTP
}
