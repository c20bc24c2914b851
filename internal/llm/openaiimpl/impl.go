package openaiimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/metrics"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"
	defaultTimeout = 30 * time.Second
	maxBodySize    = 4 << 20

	// Temperature is fixed for every analysis
	Temperature = 0.7

	roleUser = "user"
)

type Opts struct {
	fx.In

	Config     *config.Config
	Logger     logger.Logger
	HTTPClient *http.Client `optional:"true"`
}

type OpenAIImpl struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  logger.Logger
}

func New(opts Opts) *OpenAIImpl {
	baseURL := strings.TrimRight(opts.Config.LLM.OpenAIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Config.LLM.OpenAIModel
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Config.LLM.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIImpl{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  opts.Config.LLM.OpenAIKey,
		model:   model,
		logger:  opts.Logger.WithComponent("OpenAI"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *OpenAIImpl) Complete(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", errors.WrapWithCode(fmt.Errorf("api key is empty"), errors.CodeModelTransport, "model request failed")
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: roleUser, Content: prompt}},
		Temperature: Temperature,
	})
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "could not encode model request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "could not build model request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	start := time.Now()
	resp, err := o.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", o.model, start, err)
		o.logger.Error("Model request failed", "model", o.model, "error", err)
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "model request failed")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			o.logger.Error("Error closing response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", o.model, start, err)
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "could not read model response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiErrorResponse
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
		} else {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		metrics.ObserveNetworkRequest("openai", "chat_completions", o.model, start, err)
		o.logger.Warn("Model returned non-success status", "model", o.model, "status", resp.StatusCode)
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "model request failed")
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", o.model, start, err)
		return "", errors.WrapWithCode(err, errors.CodeModelTransport, "could not decode model response")
	}
	metrics.ObserveNetworkRequest("openai", "chat_completions", o.model, start, nil)

	if completion.Usage != nil {
		metrics.ObserveLLMGeneration(o.model, time.Since(start),
			completion.Usage.PromptTokens, completion.Usage.CompletionTokens, completion.Usage.TotalTokens)
	}

	if len(completion.Choices) == 0 {
		return "", errors.ErrModelEmptyResponse
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.ErrModelEmptyResponse
	}

	o.logger.Debug("Model completion received", "model", o.model, "chars", len(content))
	return content, nil
}
