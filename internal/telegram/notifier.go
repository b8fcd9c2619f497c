package telegram

import (
	"context"

	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"

	"github.com/pkg/errors"
)

// Notifier delivers plain text alert notifications through the bot.
type Notifier struct {
	bot *Bot
}

func NewNotifier(bot *Bot) *Notifier {
	return &Notifier{bot: bot}
}

// Send escapes text and delivers it to recipient. It does not retry; any
// failure, including ctx expiring first, is reported as ErrDeliveryFailure.
func (n *Notifier) Send(ctx context.Context, recipient int64, text string) error {
	done := make(chan error, 1)
	go func() {
		done <- n.bot.SendMessage(Message{
			ChatID: recipient,
			Text:   helpers.EscapeMarkdownV2(text),
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(types.ErrDeliveryFailure, err.Error())
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(types.ErrDeliveryFailure, ctx.Err().Error())
	}
}
