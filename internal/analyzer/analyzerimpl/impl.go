package analyzerimpl

import (
	"context"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/analysis"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/instagram"
	"github.com/orgball2608/insta-post-analyzer/internal/instagram/normalizer"
	"github.com/orgball2608/insta-post-analyzer/internal/llm"
	"github.com/orgball2608/insta-post-analyzer/internal/metrics"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/analysisrequest"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

const (
	defaultTimeout = 30 * time.Second
	recordTimeout  = 5 * time.Second

	minScore = 1
	maxScore = 100
)

type Opts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	Instagram instagram.Client
	LLM       llm.Client
	// Recorder is absent when no audit database is configured
	Recorder analysisrequest.Repository `optional:"true"`
}

type AnalyzerImpl struct {
	instagram    instagram.Client
	llm          llm.Client
	recorder     analysisrequest.Repository
	fetchTimeout time.Duration
	modelTimeout time.Duration
	logger       logger.Logger
}

func New(opts Opts) *AnalyzerImpl {
	a := &AnalyzerImpl{
		instagram:    opts.Instagram,
		llm:          opts.LLM,
		recorder:     opts.Recorder,
		fetchTimeout: defaultTimeout,
		modelTimeout: defaultTimeout,
		logger:       opts.Logger.WithComponent("Analyzer"),
	}
	if opts.Config != nil {
		if opts.Config.Instagram.Timeout > 0 {
			a.fetchTimeout = opts.Config.Instagram.Timeout
		}
		if opts.Config.LLM.Timeout > 0 {
			a.modelTimeout = opts.Config.LLM.Timeout
		}
	}
	return a
}

var _ analyzer.Client = (*AnalyzerImpl)(nil)

func (a *AnalyzerImpl) FetchPost(ctx context.Context, input string) (*domain.Post, error) {
	shortcode, err := instagram.ParseShortcode(input)
	if err != nil {
		metrics.ObserveAnalysis("fetch", errors.GetCode(err), nil)
		return nil, err
	}

	post, err := a.fetch(ctx, shortcode)
	metrics.ObserveAnalysis("fetch", errors.GetCode(err), nil)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (a *AnalyzerImpl) Analyze(ctx context.Context, input string) (*domain.Result, error) {
	start := time.Now()

	shortcode, err := instagram.ParseShortcode(input)
	if err != nil {
		metrics.ObserveAnalysis("analyze", errors.GetCode(err), nil)
		return nil, err
	}

	result, err := a.analyze(ctx, shortcode)

	var score *int
	if result != nil {
		score = &result.AverageScore
	}
	metrics.ObserveAnalysis("analyze", errors.GetCode(err), score)
	a.record(ctx, shortcode, score, time.Since(start), err)

	if err != nil {
		a.logger.Error("Analysis failed", "shortcode", shortcode, "code", errors.GetCode(err), "error", err)
		return nil, err
	}

	a.logger.Info("Analysis completed",
		"shortcode", shortcode,
		"average_score", result.AverageScore,
		"duration", time.Since(start).String(),
	)
	return result, nil
}

func (a *AnalyzerImpl) analyze(ctx context.Context, shortcode string) (*domain.Result, error) {
	post, err := a.fetch(ctx, shortcode)
	if err != nil {
		return nil, err
	}

	prompt := analysis.BuildPrompt(*post)

	modelCtx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	raw, err := a.llm.Complete(modelCtx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := analysis.Aggregate(raw)
	if err != nil {
		a.logger.Warn("Model output rejected",
			"shortcode", shortcode,
			"code", errors.GetCode(err),
			"field", errors.GetField(err),
		)
		return nil, err
	}

	for _, c := range domain.Categories {
		if score := result.Category(c).Score; score < minScore || score > maxScore {
			a.logger.Warn("Score outside expected range", "shortcode", shortcode, "category", string(c), "score", score)
		}
	}

	return result, nil
}

func (a *AnalyzerImpl) fetch(ctx context.Context, shortcode string) (*domain.Post, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	raw, err := a.instagram.FetchPost(fetchCtx, shortcode)
	if err != nil {
		return nil, err
	}

	post, err := normalizer.Normalize(raw)
	if err != nil {
		a.logger.Warn("Post could not be normalized",
			"shortcode", shortcode,
			"field", errors.GetField(err),
			"error", err,
		)
		return nil, err
	}
	post.Shortcode = shortcode

	a.logger.Debug("Post normalized",
		"shortcode", shortcode,
		"author", post.Author.Username,
		"hashtags", len(post.Hashtags),
		"media_type", post.MediaType(),
	)
	return post, nil
}

// record writes the audit row; failures are logged and never surface to callers
func (a *AnalyzerImpl) record(ctx context.Context, shortcode string, score *int, took time.Duration, runErr error) {
	if a.recorder == nil {
		return
	}

	req := domain.AnalysisRequest{
		Shortcode:    shortcode,
		Source:       analyzer.SourceFrom(ctx),
		Status:       domain.StatusSucceeded,
		AverageScore: score,
		Duration:     took,
	}
	if runErr != nil {
		req.Status = domain.StatusFailed
		req.ErrorCode = errors.GetCode(runErr)
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := a.recorder.Create(recordCtx, req); err != nil {
		a.logger.Error("Failed to record analysis request", "shortcode", shortcode, "error", err)
	}
}
