// Package notifier delivers operator alerts about pipeline outcomes.
package notifier

import (
	"context"

	"MarketETL/internal/logging"
)

// Notifier delivers one formatted message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// New returns a Telegram notifier, or Nop when no bot token is configured.
func New(botToken, chatID, proxyURL string, logger logging.Logger) Notifier {
	if botToken == "" || chatID == "" {
		return Nop{}
	}
	return NewTelegramNotifier(botToken, chatID, proxyURL, logger)
}
