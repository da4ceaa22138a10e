// Package telegram provides a client for sending run summaries via Telegram Bot API.
// It formats a detection report into a human-readable MarkdownV2 message and
// handles delivery with retry logic.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/outlierscope/internal/models"
)

const maxTextRunes = 80

// sender is the subset of the bot API used by Client.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	topN           int
	sleep          func(time.Duration)
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration, topN int) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase, topN)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration, topN int) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	if topN <= 0 {
		topN = 5
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		topN:           topN,
		sleep:          time.Sleep,
	}, nil
}

// SendReport sends a summary of a detection report with its top outliers
func (c *Client) SendReport(report *models.Report) error {
	msg := tgbotapi.NewMessage(c.chatID, c.formatMessage(report))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < c.maxRetries-1 {
			c.sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

type entry struct {
	url      string
	text     string
	author   string
	score    float64
	rate     float64
	verified bool
}

func entries(outliers any) []entry {
	var out []entry
	switch items := outliers.(type) {
	case []models.ContentItem:
		for _, it := range items {
			out = append(out, entry{it.URL, it.Text, it.Author.Username, it.EngagementScore, it.EngagementRate, it.Author.Verified})
		}
	case []models.SlimItem:
		for _, it := range items {
			out = append(out, entry{it.URL, it.Text, it.Author.Username, it.EngagementScore, it.EngagementRate, it.Author.Verified})
		}
	}
	return out
}

// formatMessage formats a report into a Telegram message
func (c *Client) formatMessage(report *models.Report) string {
	total, label := report.Total()

	message := fmt.Sprintf("📊 *Outliers on %s*\n\n", escapeMarkdownV2(report.Platform))
	message += fmt.Sprintf("📅 Generated: %s\n", escapeMarkdownV2(report.Generated.Format("2006-01-02 15:04:05")))
	message += fmt.Sprintf("🔎 %s of %s %s above %s\n\n",
		escapeMarkdownV2(humanize.Comma(int64(report.OutlierCount))),
		escapeMarkdownV2(humanize.Comma(int64(total))),
		label,
		escapeMarkdownV2(fmt.Sprintf("%.2f", report.Stats.ThresholdValue)))

	list := entries(report.Outliers)
	if len(list) > c.topN {
		list = list[:c.topN]
	}

	for i, e := range list {
		title := escapeMarkdownV2(truncate(e.text, maxTextRunes))
		if title == "" {
			title = escapeMarkdownV2("(no text)")
		}
		// MarkdownV2 hyperlink format: [text](url); only ) and \ need escaping in the URL
		if e.url != "" {
			title = fmt.Sprintf("[%s](%s)", title, escapeLinkURL(e.url))
		}

		author := "@" + escapeMarkdownV2(e.author)
		if e.verified {
			author += " ✔️"
		}

		message += fmt.Sprintf("%d\\. %s\n", i+1, title)
		message += fmt.Sprintf("   👤 %s\n", author)
		message += fmt.Sprintf("   📈 Score: *%s* \\(rate %s\\)\n\n",
			escapeMarkdownV2(humanize.Commaf(roundTo(e.score, 1))),
			escapeMarkdownV2(fmt.Sprintf("%.2f", e.rate)))
	}

	if len(report.Topics.Hashtags) > 0 {
		var tags []string
		for i, tc := range report.Topics.Hashtags {
			if i == 5 {
				break
			}
			tags = append(tags, escapeMarkdownV2(fmt.Sprintf("#%s (%d)", tc.Term, tc.Count)))
		}
		message += "🏷 " + strings.Join(tags, ", ") + "\n"
	}

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! and the backslash itself
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

func escapeLinkURL(url string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)
}

func truncate(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}

func roundTo(v float64, places int) float64 {
	p, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return p
}
