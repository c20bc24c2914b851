package commandimpl

import (
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
	"github.com/orgball2608/insta-post-analyzer/pkg/formatter"
)

var esc = formatter.EscapeMarkdownV2

func helpMessage() string {
	lines := []string{
		"*" + esc("👋 Welcome to the Instagram Post Analyzer!") + "*",
		"",
		esc("Here are the available commands:"),
		"",
		esc("/analyze <post_url> - Score a post for engagement, quality, relevance and audience behavior."),
		esc("/post <post_url> - Show the post metadata."),
		esc("/last - Show your most recent analysis again."),
		"",
		esc("Type /help at any time to see this guide."),
	}
	return strings.Join(lines, "\n")
}

func errorMessage(err error) string {
	switch {
	case errors.IsInvalidInput(err):
		msg := errors.GetMessage(err)
		return esc("❌ " + msg + ". Check the link and try again.")
	case errors.Retryable(err):
		return esc("⚠️ The analysis failed for a temporary reason. Please try again.")
	default:
		return esc("❌ Something went wrong. Please try again later.")
	}
}

func formatSummary(r *domain.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n", esc(fmt.Sprintf("📊 Overall score: %d/100", r.AverageScore)))
	sb.WriteString(formatter.ScoreBar(r.AverageScore) + "\n\n")

	for _, c := range domain.Categories {
		ca := r.Category(c)
		fmt.Fprintf(&sb, "%s %s\n", esc(fmt.Sprintf("%s: %d", strings.ReplaceAll(c.Title(), "_", " "), ca.Score)), formatter.ScoreBar(ca.Score))
	}

	writeList(&sb, "✅ Pros", r.OverallPros)
	writeList(&sb, "⚠️ Cons", r.OverallCons)
	return sb.String()
}

func formatDetail(r *domain.Result) string {
	return "```\n" + escapeCode(r.Detail) + "\n```"
}

func formatPost(p *domain.Post) string {
	var sb strings.Builder

	author := "@" + p.Author.Username
	if p.Author.FullName != nil && *p.Author.FullName != "" {
		author += " (" + *p.Author.FullName + ")"
	}
	fmt.Fprintf(&sb, "*%s*\n", esc(author))

	if p.Caption != "" {
		sb.WriteString(esc(formatter.Truncate(p.Caption, 300)) + "\n\n")
	}

	fmt.Fprintf(&sb, "%s\n", esc(fmt.Sprintf("❤️ %s   💬 %s   🖼 %s",
		formatter.FormatCount(p.LikeCount), formatter.FormatCount(p.CommentCount), p.MediaType())))
	if p.Location.Name != nil {
		sb.WriteString(esc("📍 "+*p.Location.Name) + "\n")
	}
	if len(p.Hashtags) > 0 {
		sb.WriteString(esc("#"+strings.Join(p.Hashtags, " #")) + "\n")
	}
	if p.Timestamp > 0 {
		sb.WriteString(esc("🕒 "+time.Unix(p.Timestamp, 0).UTC().Format("2006-01-02 15:04 UTC")) + "\n")
	}
	if len(p.Carousel) > 0 {
		sb.WriteString(esc(fmt.Sprintf("🗂 %d items in carousel", len(p.Carousel))) + "\n")
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n*%s*\n", esc(title))
	for _, item := range items {
		sb.WriteString(esc("• "+item) + "\n")
	}
}

// escapeCode escapes text placed inside a MarkdownV2 pre block
func escapeCode(s string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(s)
}
