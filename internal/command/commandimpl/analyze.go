package commandimpl

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/formatter"
)

func (c *CommandImpl) handleAnalyzeCommand(ctx context.Context, update tgbotapi.Update, postURL string) error {
	chatID := update.Message.Chat.ID

	if postURL == "" {
		_, err := c.Telegram.SendMessage(chatID, formatter.EscapeMarkdownV2("Please provide a post URL: /analyze <instagram_post_url>"))
		return err
	}

	userKey := sessionID(chatID)
	if update.Message.From != nil {
		userKey = fmt.Sprintf("tg-user:%d", update.Message.From.ID)
	}
	if c.Limiter != nil && !c.Limiter.Allow(userKey) {
		_, err := c.Telegram.SendMessage(chatID, formatter.EscapeMarkdownV2("⏳ Too many analyses. Please wait a minute and try again."))
		return err
	}

	sentMsgID, err := c.Telegram.SendMessage(chatID, formatter.EscapeMarkdownV2("🔎 Analyzing post... this can take up to a minute."))
	if err != nil {
		return fmt.Errorf("failed to send initial message: %w", err)
	}

	result, err := c.Analyzer.Analyze(analyzer.WithSource(ctx, domain.SourceTelegram), postURL)
	if err != nil {
		if editErr := c.Telegram.EditMessageText(chatID, sentMsgID, errorMessage(err)); editErr != nil {
			c.Logger.Error("Failed to report analysis error", "error", editErr)
		}
		return err
	}

	if err := c.Store.Put(ctx, sessionID(chatID), result); err != nil {
		c.Logger.Error("Failed to store last result", "chat_id", chatID, "error", err)
	}

	if err := c.Telegram.EditMessageText(chatID, sentMsgID, formatSummary(result)); err != nil {
		c.Logger.Warn("Failed to edit progress message", "error", err)
	}
	_, err = c.Telegram.SendMessage(chatID, formatDetail(result))
	return err
}

func (c *CommandImpl) handleLastCommand(ctx context.Context, chatID int64) error {
	result, err := c.Store.Get(ctx, sessionID(chatID))
	if err != nil {
		if errors.IsNotFound(err) {
			_, sendErr := c.Telegram.SendMessage(chatID, formatter.EscapeMarkdownV2("No analysis yet. Use /analyze <post_url> first."))
			return sendErr
		}
		return err
	}

	if _, err := c.Telegram.SendMessage(chatID, formatSummary(result)); err != nil {
		return err
	}
	_, err = c.Telegram.SendMessage(chatID, formatDetail(result))
	return err
}
