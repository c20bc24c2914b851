package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	mock_analyzer "github.com/orgball2608/insta-post-analyzer/internal/analyzer/mocks"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/ratelimit"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/lastresult"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	analyzer *mock_analyzer.MockClient
	store    *lastresult.Memory
	router   http.Handler
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	return newFixtureWithProxy(t, limiter, false)
}

func newFixtureWithProxy(t *testing.T, limiter ratelimit.Limiter, trustProxy bool) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		analyzer: mock_analyzer.NewMockClient(ctrl),
		store:    lastresult.NewMemory(time.Hour),
	}
	h := NewHandler(HandlerOpts{
		Analyzer: f.analyzer,
		Store:    f.store,
		Limiter:  limiter,
		Logger:   logger.NewNop(),
	})
	f.router = NewRouter(h, []string{"http://localhost:5173"}, trustProxy)
	return f
}

func (f *fixture) do(method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleResult() *domain.Result {
	return &domain.Result{
		Engagement:       domain.CategoryAnalysis{Score: 78},
		Quality:          domain.CategoryAnalysis{Score: 85},
		Relevance:        domain.CategoryAnalysis{Score: 64},
		AudienceBehavior: domain.CategoryAnalysis{Score: 70},
		AverageScore:     74,
		Detail:           "Engagement Analysis:",
	}
}

func TestAnalyzePostStoresLastResult(t *testing.T) {
	f := newFixture(t, nil)
	f.analyzer.EXPECT().
		Analyze(gomock.Any(), "https://www.instagram.com/p/abc/").
		DoAndReturn(func(ctx context.Context, _ string) (*domain.Result, error) {
			assert.Equal(t, domain.SourceHTTP, analyzer.SourceFrom(ctx))
			return sampleResult(), nil
		})

	rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"https://www.instagram.com/p/abc/"}`,
		http.Header{SessionHeader: {"session-1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-1", rec.Header().Get(SessionHeader))

	var got domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 74, got.AverageScore)
	assert.Equal(t, 85, got.Quality.Score)

	rec = f.do(http.MethodGet, "/analysis/last", "", http.Header{SessionHeader: {"session-1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 74, got.AverageScore)
}

func TestAnalyzePostIssuesSessionID(t *testing.T) {
	f := newFixture(t, nil)
	f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(sampleResult(), nil)

	rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(SessionHeader)
	require.NotEmpty(t, session)

	_, err := f.store.Get(context.Background(), session)
	assert.NoError(t, err)
}

func TestAnalyzePostRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "url=abc"},
		{name: "missing url", body: `{}`},
		{name: "empty url", body: `{"url":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			rec := f.do(http.MethodPost, "/analysis/instagram", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, errors.CodeInvalidInput, decodeError(t, rec).Code)
		})
	}
}

func TestAnalyzePostMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "invalid url",
			err:        errors.WithField(errors.CodeInvalidInput, "url", "not an instagram URL", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.CodeInvalidInput,
			wantError:  "not an instagram URL (field url)",
		},
		{
			name:       "post not found upstream",
			err:        errors.WithField(errors.CodeUpstreamShape, "data.xdt_shortcode_media", "post not found", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.CodeUpstreamShape,
			wantError:  "post not found (field data.xdt_shortcode_media)",
		},
		{
			name:       "model transport hides cause",
			err:        errors.WrapWithCode(assert.AnError, errors.CodeModelTransport, "model request failed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   errors.CodeModelTransport,
			wantError:  "model request failed",
		},
		{
			name:       "analysis shape",
			err:        errors.WithField(errors.CodeAnalysisShape, "quality.tips", "missing field", nil),
			wantStatus: http.StatusInternalServerError,
			wantCode:   errors.CodeAnalysisShape,
			wantError:  "missing field",
		},
		{
			name:       "uncoded",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   codeInternal,
			wantError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(nil, tt.err)

			rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`, http.Header{SessionHeader: {"s"}})

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantError, body.Error)

			_, err := f.store.Get(context.Background(), "s")
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestAnalyzePostIsRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.NewInMemoryLimiter(1, time.Hour, 1))
	f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(sampleResult(), nil).Times(1)

	rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, codeRateLimited, decodeError(t, rec).Code)
}

func TestRateLimitIgnoresForwardedHeadersByDefault(t *testing.T) {
	f := newFixture(t, ratelimit.NewInMemoryLimiter(1, time.Hour, 1))
	f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(sampleResult(), nil).Times(1)

	rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`,
		http.Header{"X-Forwarded-For": {"203.0.113.1"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`,
		http.Header{"X-Forwarded-For": {"203.0.113.2"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitUsesForwardedAddressBehindProxy(t *testing.T) {
	f := newFixtureWithProxy(t, ratelimit.NewInMemoryLimiter(1, time.Hour, 1), true)
	f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(sampleResult(), nil).Times(2)

	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`,
			http.Header{"X-Forwarded-For": {ip}})
		require.Equal(t, http.StatusOK, rec.Code, ip)
	}

	rec := f.do(http.MethodPost, "/analysis/instagram", `{"url":"abc"}`,
		http.Header{"X-Forwarded-For": {"203.0.113.1"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetPost(t *testing.T) {
	f := newFixture(t, nil)
	post := &domain.Post{Shortcode: "abc", Author: domain.Author{Username: "a", ID: "1"}, Caption: "hi"}
	f.analyzer.EXPECT().FetchPost(gomock.Any(), "https://www.instagram.com/p/abc/").Return(post, nil)

	rec := f.do(http.MethodGet, "/analysis/post?url=https%3A%2F%2Fwww.instagram.com%2Fp%2Fabc%2F", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.Shortcode)
	assert.Equal(t, "hi", got.Caption)
}

func TestGetPostRequiresURL(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/analysis/post", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLastNotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/analysis/last", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/analysis/last", "", http.Header{SessionHeader: {"unknown"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, decodeError(t, rec).Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodOptions, "/analysis/instagram", "", http.Header{
		"Origin":                        {"http://localhost:5173"},
		"Access-Control-Request-Method": {http.MethodPost},
	})

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
