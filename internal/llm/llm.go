package llm

import (
	"context"
	"fmt"

	"github.com/orgball2608/insta-post-analyzer/internal/llm/geminiimpl"
	"github.com/orgball2608/insta-post-analyzer/internal/llm/openaiimpl"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

//go:generate go run go.uber.org/mock/mockgen -source=llm.go -destination=mocks/mock.go
type Client interface {
	// Complete sends one prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	_ Client = (*openaiimpl.OpenAIImpl)(nil)
	_ Client = (*geminiimpl.GeminiImpl)(nil)
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// New builds the client for the configured provider
func New(opts Opts) (Client, error) {
	switch opts.Config.LLM.Provider {
	case ProviderOpenAI, "":
		return openaiimpl.New(openaiimpl.Opts{
			Config: opts.Config,
			Logger: opts.Logger,
		}), nil
	case ProviderGemini:
		client, err := geminiimpl.New(context.Background(), geminiimpl.Opts{
			Config: opts.Config,
			Logger: opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Config.LLM.Provider)
	}
}
