package graphqlimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/instagram"
	"github.com/orgball2608/insta-post-analyzer/internal/metrics"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
	referer        = "https://www.instagram.com/"
	defaultTimeout = 30 * time.Second
	maxBodySize    = 8 << 20
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	// HTTPClient overrides the default client, mostly for tests
	HTTPClient *http.Client `optional:"true"`
}

type GraphQLImpl struct {
	endpoint string
	docID    string
	appID    string
	http     *http.Client
	logger   logger.Logger
}

func New(opts Opts) *GraphQLImpl {
	timeout := opts.Config.Instagram.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &GraphQLImpl{
		endpoint: opts.Config.Instagram.GraphQLURL,
		docID:    opts.Config.Instagram.DocID,
		appID:    opts.Config.Instagram.AppID,
		http:     httpClient,
		logger:   opts.Logger.WithComponent("InstagramGraphQL"),
	}
}

var _ instagram.Client = (*GraphQLImpl)(nil)

// variables keeps the key order the upstream expects
type variables struct {
	Shortcode            string  `json:"shortcode"`
	FetchTaggedUserCount *int    `json:"fetch_tagged_user_count"`
	HoistedCommentID     *string `json:"hoisted_comment_id"`
	HoistedReplyID       *string `json:"hoisted_reply_id"`
}

// EncodeBody builds the form payload for a shortcode query
func EncodeBody(shortcode, docID string) (string, error) {
	vars, err := json.Marshal(variables{Shortcode: shortcode})
	if err != nil {
		return "", fmt.Errorf("could not encode variables: %w", err)
	}
	return "variables=" + url.QueryEscape(string(vars)) + "&doc_id=" + url.QueryEscape(docID), nil
}

func (g *GraphQLImpl) FetchPost(ctx context.Context, shortcode string) (json.RawMessage, error) {
	g.logger.Info("Fetching post from content graph", "shortcode", shortcode)

	body, err := EncodeBody(shortcode, g.docID)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUpstreamTransport, "could not build content graph request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUpstreamTransport, "could not build content graph request")
	}
	req.Header.Set("x-ig-app-id", g.appID)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", referer)

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("instagram", "graphql_query", "shortcode_media", start, err)
		g.logger.Error("Content graph request failed", "shortcode", shortcode, "error", err)
		return nil, errors.WrapWithCode(err, errors.CodeUpstreamTransport, "content graph request failed")
	}
	defer safeClose(resp.Body, g.logger)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.ObserveNetworkRequest("instagram", "graphql_query", "shortcode_media", start, err)
		return nil, errors.WrapWithCode(err, errors.CodeUpstreamTransport, "could not read content graph response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("instagram", "graphql_query", "shortcode_media", start, err)
		g.logger.Warn("Content graph returned non-success status", "shortcode", shortcode, "status", resp.StatusCode)
		return nil, errors.WrapWithCode(err, errors.CodeUpstreamTransport, "content graph request failed")
	}

	if !isJSONObject(raw) {
		err = fmt.Errorf("response is not a JSON object (%d bytes)", len(raw))
		metrics.ObserveNetworkRequest("instagram", "graphql_query", "shortcode_media", start, err)
		g.logger.Warn("Content graph returned a non-JSON body", "shortcode", shortcode, "bytes", len(raw))
		return nil, errors.WrapWithCode(err, errors.CodeUpstreamShape, "unexpected content graph response")
	}

	metrics.ObserveNetworkRequest("instagram", "graphql_query", "shortcode_media", start, nil)
	g.logger.Debug("Content graph response received", "shortcode", shortcode, "bytes", len(raw))
	return json.RawMessage(raw), nil
}

func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// safeClose safely closes an io.ReadCloser and logs any errors
func safeClose(closer io.ReadCloser, logger logger.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("Error closing response body", "error", err)
	}
}
