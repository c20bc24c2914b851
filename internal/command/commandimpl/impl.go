package commandimpl

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/command"
	"github.com/orgball2608/insta-post-analyzer/internal/ratelimit"
	"github.com/orgball2608/insta-post-analyzer/internal/repositories/lastresult"
	"github.com/orgball2608/insta-post-analyzer/internal/telegram"
	"github.com/orgball2608/insta-post-analyzer/pkg/formatter"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Analyzer analyzer.Client
	Telegram telegram.Client
	Store    lastresult.Store
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
}

type CommandImpl struct {
	Analyzer analyzer.Client
	Telegram telegram.Client
	Store    lastresult.Store
	Limiter  ratelimit.Limiter
	Logger   logger.Logger

	inFlight sync.WaitGroup
}

func New(opts Opts) *CommandImpl {
	return &CommandImpl{
		Analyzer: opts.Analyzer,
		Telegram: opts.Telegram,
		Store:    opts.Store,
		Limiter:  opts.Limiter,
		Logger:   opts.Logger.WithComponent("Command"),
	}
}

var _ command.Client = (*CommandImpl)(nil)

// HandleCommand returns once ctx is done and every update already being
// processed has been answered. Updates run detached from ctx and are bounded
// by the analyzer's own timeouts.
func (c *CommandImpl) HandleCommand(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.Telegram.GetUpdatesChan(u)
	c.Logger.Info("Command handler started, listening for updates.")

	defer c.inFlight.Wait()
	updateCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Command handler shutting down, waiting for in-flight updates.")
			c.Telegram.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				c.Logger.Warn("Telegram updates channel closed unexpectedly.")
				return errors.New("telegram updates channel closed")
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			c.inFlight.Add(1)
			go func(u tgbotapi.Update) {
				defer c.inFlight.Done()
				defer func() {
					if r := recover(); r != nil {
						c.Logger.Error("Panic recovered while processing an update", "panic", r, "stack", string(debug.Stack()))
					}
				}()

				if err := c.processCommand(updateCtx, u); err != nil {
					c.Logger.Error("Error processing command",
						"command", u.Message.Command(),
						"error", err)
				}
			}(update)
		}
	}
}

func (c *CommandImpl) processCommand(ctx context.Context, update tgbotapi.Update) error {
	cmd := update.Message.Command()
	args := strings.TrimSpace(update.Message.CommandArguments())
	chatID := update.Message.Chat.ID

	c.Logger.Info("Command received", "command", cmd, "chat_id", chatID)

	switch cmd {
	case "start", "help":
		_, err := c.Telegram.SendMessage(chatID, helpMessage())
		return err
	case "analyze":
		return c.handleAnalyzeCommand(ctx, update, args)
	case "post":
		return c.handlePostCommand(ctx, chatID, args)
	case "last":
		return c.handleLastCommand(ctx, chatID)
	default:
		_, err := c.Telegram.SendMessage(chatID, formatter.EscapeMarkdownV2("Unknown command. Type /help to see the list of available commands."))
		return err
	}
}

// sessionID scopes /last to the chat, matching the HTTP session header
func sessionID(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}
