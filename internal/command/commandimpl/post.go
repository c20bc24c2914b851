package commandimpl

import (
	"context"
	"fmt"

	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/formatter"
)

func (c *CommandImpl) handlePostCommand(ctx context.Context, chatID int64, postURL string) error {
	if postURL == "" {
		_, err := c.Telegram.SendMessage(chatID, formatter.EscapeMarkdownV2("Please provide a post URL: /post <instagram_post_url>"))
		return err
	}

	post, err := c.Analyzer.FetchPost(analyzer.WithSource(ctx, domain.SourceTelegram), postURL)
	if err != nil {
		_, sendErr := c.Telegram.SendMessage(chatID, errorMessage(err))
		if sendErr != nil {
			c.Logger.Error("Failed to report fetch error", "error", sendErr)
		}
		return err
	}

	text := formatPost(post)
	if !post.IsVideo && post.MediaURL != "" {
		err := c.Telegram.SendPhotoByURL(chatID, post.MediaURL, text)
		if err == nil {
			return nil
		}
		c.Logger.Warn("Failed to send post photo, falling back to text", "error", err)
	}

	if _, err := c.Telegram.SendMessage(chatID, text); err != nil {
		return fmt.Errorf("failed to send post summary: %w", err)
	}
	return nil
}
