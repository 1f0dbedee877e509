package delivery

import (
	"context"
	"fmt"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/discord"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/telegram"
)

// DiscordSender posts a message to a Discord channel.
type DiscordSender interface {
	SendMessage(ctx context.Context, channelID string, msg *discord.Message) (*discord.SentMessage, error)
}

// TelegramSender posts text to a Telegram chat.
type TelegramSender interface {
	SendTo(ctx context.Context, chatID int64, text string) error
}

// Discord returns a handler posting messages laid out with layout to the
// target channel.
func Discord(sender DiscordSender, layout compose.Layout) Handler {
	return func(ctx context.Context, channelID string, msg compose.Message) error {
		_, err := sender.SendMessage(ctx, channelID, discord.Build(msg, layout))
		return err
	}
}

// Telegram returns a handler posting the text layout to the target chat.
func Telegram(sender TelegramSender) Handler {
	return func(ctx context.Context, target string, msg compose.Message) error {
		chatID, err := telegram.ParseChatID(target)
		if err != nil {
			return fmt.Errorf("telegram destination: %w", err)
		}
		return sender.SendTo(ctx, chatID, msg.Text())
	}
}
