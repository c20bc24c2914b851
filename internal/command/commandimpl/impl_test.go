package commandimpl

import (
	"context"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	mock_analyzer "github.com/orgball2608/insta-post-analyzer/internal/analyzer/mocks"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/ratelimit"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/lastresult"
	mock_telegram "github.com/orgball2608/insta-post-analyzer/internal/telegram/mocks"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

const chatID int64 = 42

type fixture struct {
	analyzer *mock_analyzer.MockClient
	telegram *mock_telegram.MockClient
	store    *lastresult.Memory
	cmd      *CommandImpl
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		analyzer: mock_analyzer.NewMockClient(ctrl),
		telegram: mock_telegram.NewMockClient(ctrl),
		store:    lastresult.NewMemory(time.Hour),
	}
	f.cmd = New(Opts{
		Analyzer: f.analyzer,
		Telegram: f.telegram,
		Store:    f.store,
		Limiter:  limiter,
		Logger:   logger.NewNop(),
	})
	return f
}

func commandUpdate(text string) tgbotapi.Update {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     text,
			Chat:     &tgbotapi.Chat{ID: chatID},
			From:     &tgbotapi.User{ID: 7},
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
		},
	}
}

func sampleResult() *domain.Result {
	ca := domain.CategoryAnalysis{
		Score:      70,
		Commentary: domain.Commentary{Positive: "p", Neutral: "n", Negative: "x"},
		Pros:       []string{"Sharp photo"},
		Cons:       []string{"No location"},
		Tips:       []string{"Add a location"},
	}
	return &domain.Result{
		Engagement:       ca,
		Quality:          ca,
		Relevance:        ca,
		AudienceBehavior: ca,
		AverageScore:     70,
		OverallPros:      []string{"Sharp photo"},
		OverallCons:      []string{"No location"},
		Detail:           "Engagement Analysis:\nScore: 70",
	}
}

func TestAnalyzeCommand(t *testing.T) {
	f := newFixture(t, nil)
	result := sampleResult()

	gomock.InOrder(
		f.telegram.EXPECT().SendMessage(chatID, gomock.Any()).Return(100, nil),
		f.analyzer.EXPECT().
			Analyze(gomock.Any(), "https://www.instagram.com/p/abc/").
			DoAndReturn(func(ctx context.Context, _ string) (*domain.Result, error) {
				assert.Equal(t, domain.SourceTelegram, analyzer.SourceFrom(ctx))
				return result, nil
			}),
		f.telegram.EXPECT().EditMessageText(chatID, 100, formatSummary(result)).Return(nil),
		f.telegram.EXPECT().SendMessage(chatID, formatDetail(result)).Return(101, nil),
	)

	err := f.cmd.processCommand(context.Background(), commandUpdate("/analyze https://www.instagram.com/p/abc/"))
	require.NoError(t, err)

	stored, err := f.store.Get(context.Background(), "tg:42")
	require.NoError(t, err)
	assert.Equal(t, 70, stored.AverageScore)
}

func TestHandleCommandWaitsForInFlightUpdates(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, nil)

	updates := make(chan tgbotapi.Update, 1)
	updates <- commandUpdate("/post abc")

	started := make(chan struct{})
	release := make(chan struct{})
	replied := make(chan struct{})

	f.telegram.EXPECT().GetUpdatesChan(gomock.Any()).Return(tgbotapi.UpdatesChannel(updates))
	f.telegram.EXPECT().StopReceivingUpdates()
	f.analyzer.EXPECT().
		FetchPost(gomock.Any(), "abc").
		DoAndReturn(func(ctx context.Context, _ string) (*domain.Post, error) {
			close(started)
			<-release
			assert.NoError(t, ctx.Err(), "shutdown must not cancel an update in progress")
			return nil, errors.ErrUpstreamTransport
		})
	f.telegram.EXPECT().
		SendMessage(chatID, errorMessage(errors.ErrUpstreamTransport)).
		DoAndReturn(func(int64, string) (int, error) {
			close(replied)
			return 1, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.cmd.HandleCommand(ctx) }()

	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("handler returned before the in-flight update was answered")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-replied:
	default:
		t.Fatal("reply was not sent before the handler returned")
	}
}

func TestAnalyzeCommandWithoutURL(t *testing.T) {
	f := newFixture(t, nil)
	f.telegram.EXPECT().SendMessage(chatID, gomock.Any()).Return(1, nil)

	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/analyze")))
}

func TestAnalyzeCommandReportsFailure(t *testing.T) {
	f := newFixture(t, nil)
	failure := errors.WithField(errors.CodeUpstreamShape, "data.xdt_shortcode_media", "post not found", nil)

	f.telegram.EXPECT().SendMessage(chatID, gomock.Any()).Return(100, nil)
	f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(nil, failure)
	f.telegram.EXPECT().EditMessageText(chatID, 100, errorMessage(failure)).Return(nil)

	err := f.cmd.processCommand(context.Background(), commandUpdate("/analyze abc"))
	require.Error(t, err)

	_, err = f.store.Get(context.Background(), "tg:42")
	assert.True(t, errors.IsNotFound(err))
}

func TestAnalyzeCommandIsRateLimited(t *testing.T) {
	limiter := ratelimit.NewInMemoryLimiter(1, time.Hour, 1)
	f := newFixture(t, limiter)

	f.telegram.EXPECT().SendMessage(chatID, gomock.Any()).Return(100, nil).Times(1)
	f.analyzer.EXPECT().Analyze(gomock.Any(), "abc").Return(sampleResult(), nil).Times(1)
	f.telegram.EXPECT().EditMessageText(chatID, 100, gomock.Any()).Return(nil)
	f.telegram.EXPECT().SendMessage(chatID, gomock.Any()).Return(101, nil)
	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/analyze abc")))

	f.telegram.EXPECT().
		SendMessage(chatID, gomock.Any()).
		DoAndReturn(func(_ int64, text string) (int, error) {
			assert.Contains(t, text, "Too many analyses")
			return 102, nil
		})
	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/analyze abc")))
}

func TestLastCommand(t *testing.T) {
	f := newFixture(t, nil)

	f.telegram.EXPECT().
		SendMessage(chatID, gomock.Any()).
		DoAndReturn(func(_ int64, text string) (int, error) {
			assert.Contains(t, text, "No analysis yet")
			return 1, nil
		})
	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/last")))

	result := sampleResult()
	require.NoError(t, f.store.Put(context.Background(), "tg:42", result))

	gomock.InOrder(
		f.telegram.EXPECT().SendMessage(chatID, formatSummary(result)).Return(2, nil),
		f.telegram.EXPECT().SendMessage(chatID, formatDetail(result)).Return(3, nil),
	)
	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/last")))
}

func TestPostCommandFallsBackToText(t *testing.T) {
	f := newFixture(t, nil)
	post := &domain.Post{
		Author:   domain.Author{Username: "a", ID: "1"},
		Caption:  "Nice day #sun #fun",
		Hashtags: []string{"sun", "fun"},
		MediaURL: "https://x/img.jpg",
	}

	f.analyzer.EXPECT().FetchPost(gomock.Any(), "abc").Return(post, nil)
	f.telegram.EXPECT().SendPhotoByURL(chatID, "https://x/img.jpg", formatPost(post)).Return(fmt.Errorf("wrong file identifier"))
	f.telegram.EXPECT().SendMessage(chatID, formatPost(post)).Return(5, nil)

	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/post abc")))
}

func TestHelpAndUnknown(t *testing.T) {
	f := newFixture(t, nil)
	f.telegram.EXPECT().SendMessage(chatID, helpMessage()).Return(1, nil).Times(2)
	f.telegram.EXPECT().SendMessage(chatID, gomock.Any()).Return(2, nil)

	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/start")))
	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/help")))
	require.NoError(t, f.cmd.processCommand(context.Background(), commandUpdate("/story someone")))
}

func TestFormatSummaryEscapesMarkdown(t *testing.T) {
	result := sampleResult()
	result.OverallPros = []string{"Great use of (natural) light."}

	text := formatSummary(result)
	assert.Contains(t, text, `• Great use of \(natural\) light\.`)
	assert.Contains(t, text, "Audience Behavior: 70")
}

func TestFormatPost(t *testing.T) {
	likes := 1204
	place := "Berlin"
	text := formatPost(&domain.Post{
		Author:    domain.Author{Username: "cafe.lumen"},
		LikeCount: &likes,
		Location:  domain.Location{Name: &place},
		Hashtags:  []string{"coffee"},
	})

	assert.Contains(t, text, `*@cafe\.lumen*`)
	assert.Contains(t, text, "1,204")
	assert.Contains(t, text, "💬 unknown")
	assert.Contains(t, text, `\#coffee`)
	assert.Contains(t, text, "📍 Berlin")
}

func TestErrorMessage(t *testing.T) {
	assert.Contains(t, errorMessage(errors.ErrModelTransport), "temporary")
	assert.Contains(t, errorMessage(errors.WithField(errors.CodeInvalidInput, "url", "not an instagram URL", nil)), "not an instagram URL")
	assert.Contains(t, errorMessage(fmt.Errorf("boom")), "Something went wrong")
}
