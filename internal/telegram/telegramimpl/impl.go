package telegramimpl

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-post-analyzer/internal/telegram"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/formatter"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/orgball2608/insta-post-analyzer/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type TelegramImpl struct {
	TgBot  *tgbotapi.BotAPI
	Logger logger.Logger
	retry  retry.Config
}

func New(opts Opts) (*TelegramImpl, error) {
	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		opts.Logger.Error("Error creating bot", "error", err)
		return nil, err
	}

	log := opts.Logger.WithComponent("Telegram")
	log.Info("Authorized on telegram", "bot", tgBot.Self.UserName)

	return &TelegramImpl{
		TgBot:  tgBot,
		Logger: log,
		retry:  retry.DefaultConfig(),
	}, nil
}

var _ telegram.Client = (*TelegramImpl)(nil)

func (tg *TelegramImpl) GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return tg.TgBot.GetUpdatesChan(u)
}

func (tg *TelegramImpl) StopReceivingUpdates() {
	tg.TgBot.StopReceivingUpdates()
}

// SendMessage sends text, split into several messages when it exceeds the telegram limit
func (tg *TelegramImpl) SendMessage(chatID int64, text string) (int, error) {
	var lastID int
	for _, chunk := range formatter.SplitMessage(text, formatter.MaxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		msg.DisableWebPagePreview = true

		sent, err := tg.send(chatID, "send_message", msg)
		if err != nil {
			return lastID, fmt.Errorf("failed to send message: %w", err)
		}
		lastID = sent.MessageID
	}

	tg.Logger.Debug("Message sent", "chat_id", chatID, "message_id", lastID)
	return lastID, nil
}

func (tg *TelegramImpl) EditMessageText(chatID int64, messageID int, newText string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, formatter.Truncate(newText, formatter.MaxMessageLength))
	edit.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := tg.send(chatID, "edit_message", edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// SendPhotoByURL lets telegram download the image itself
func (tg *TelegramImpl) SendPhotoByURL(chatID int64, url, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = formatter.Truncate(caption, formatter.MaxCaptionLength)
	photo.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := tg.send(chatID, "send_photo", photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// send retries transient failures; rejected requests (4xx) are not retried
func (tg *TelegramImpl) send(chatID int64, operation string, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var sent tgbotapi.Message
	err := retry.Do(context.Background(), tg.Logger, operation, func() error {
		var err error
		sent, err = tg.TgBot.Send(c)
		if err != nil && isPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	}, tg.retry)
	if err != nil {
		tg.Logger.Error("Telegram request failed", "operation", operation, "chat_id", chatID, "error", err)
		return tgbotapi.Message{}, err
	}
	return sent, nil
}

func isPermanent(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusBadRequest && apiErr.Code < http.StatusInternalServerError &&
			apiErr.Code != http.StatusTooManyRequests
	}
	return false
}
