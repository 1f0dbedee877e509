package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxTelegramMessage is Telegram's message limit in UTF-16 code units.
const maxTelegramMessage = 4096

// Sender posts page summaries to Telegram chats.
type Sender struct {
	bot *tgbotapi.BotAPI
}

// New creates a Sender, verifying the token against the Telegram API.
func New(token string) (*Sender, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint is New against a custom API endpoint, a format string
// taking the token and the method name.
func NewWithEndpoint(token, endpoint string) (*Sender, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Sender{bot: bot}, nil
}

// ParseChatID parses a numeric chat id such as "-1001234567890".
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q", s)
	}
	return id, nil
}

// SendTo sends text to the chat, split into as many messages as needed.
// Each part is sent as Markdown first and as plain text if Telegram
// rejects the markup.
func (s *Sender) SendTo(ctx context.Context, chatID int64, text string) error {
	for _, part := range splitMessage(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := s.bot.Send(msg); err != nil {
			slog.Debug("telegram rejected markdown, retrying as plain text", "chat_id", chatID, "error", err)
			msg.ParseMode = ""
			if _, err := s.bot.Send(msg); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

// splitMessage cuts text into parts of at most maxTelegramMessage UTF-16
// units, preferring to break after a newline.
func splitMessage(text string) []string {
	if utf16Len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for text != "" {
		end, units, lastNewline := 0, 0, -1
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			n := utf16.RuneLen(r)
			if n < 0 {
				n = 1
			}
			if units+n > maxTelegramMessage {
				break
			}
			units += n
			end += size
			if r == '\n' {
				lastNewline = end
			}
		}
		if end < len(text) && lastNewline > 0 {
			end = lastNewline
		}
		parts = append(parts, strings.TrimSuffix(text[:end], "\n"))
		text = text[end:]
	}
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
