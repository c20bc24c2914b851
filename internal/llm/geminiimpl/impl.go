package geminiimpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/metrics"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// temperature matches the OpenAI provider
const temperature float32 = 0.7

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type GeminiImpl struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  logger.Logger
}

func New(ctx context.Context, opts Opts) (*GeminiImpl, error) {
	if opts.Config.LLM.GeminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.Config.LLM.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := opts.Config.LLM.GeminiModel
	if model == "" {
		model = defaultModel
	}

	return &GeminiImpl{
		client:  client,
		model:   model,
		timeout: opts.Config.LLM.Timeout,
		logger:  opts.Logger.WithComponent("Gemini"),
	}, nil
}

func (g *GeminiImpl) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
	metrics.ObserveNetworkRequest("gemini", "generate_content", g.model, start, err)
	if err != nil {
		g.logger.Error("Model request failed", "model", g.model, "error", err)
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "model request failed")
	}

	if usage := resp.UsageMetadata; usage != nil {
		metrics.ObserveLLMGeneration(g.model, time.Since(start),
			int(usage.PromptTokenCount), int(usage.CandidatesTokenCount), int(usage.TotalTokenCount))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.ErrModelEmptyResponse
	}
	return text, nil
}
