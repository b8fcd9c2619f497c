package telegram

import (
	"context"

	"stock-alert-bot/internal/commands"
	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, handler *commands.Handler) (*Bot, error) {
	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if c.APIEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(c.Token, c.APIEndpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(c.Token)
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug
	log.Debugf("Authorized on account %s", bot.Self.UserName)

	return &Bot{
		Bot:      bot,
		Config:   c,
		commands: handler,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// StopReceivingUpdates closes the updates channel.
func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// HandleUpdate runs the command carried by u and returns the MarkdownV2 reply.
// Updates without a message yield an empty reply.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	msg := u.Message
	if msg == nil {
		return ""
	}
	log.Debugf("received command: %s", msg.Command())

	externalID, displayName := sender(msg)

	var (
		text string
		err  error
	)

	switch msg.Command() {
	case "start":
		text, err = b.commands.Register(ctx, externalID, displayName)
	case "setalert":
		text, err = b.commands.CreateAlert(ctx, externalID, displayName, msg.CommandArguments())
	case "listalerts":
		text, err = b.commands.List(ctx, externalID)
	case "removealert":
		text, err = b.commands.Delete(ctx, externalID, msg.CommandArguments())
	case "price", "p":
		text, err = b.commands.Price(ctx, msg.CommandArguments())
	default:
		text = b.commands.Help()
	}

	if err != nil {
		log.Error(err)
		text = helpers.EscapeMarkdownV2(translation.Translate("Something went wrong, please try again later."))
	}

	return text
}

// sender identifies who issued msg. Alerts are delivered to this id, so it
// falls back to the chat when the message has no author (channel posts).
func sender(msg *tgbotapi.Message) (int64, string) {
	if msg.From == nil {
		return msg.Chat.ID, msg.Chat.Title
	}

	displayName := msg.From.UserName
	if displayName == "" {
		displayName = msg.From.FirstName
	}
	if displayName == "" {
		displayName = "Unknown"
	}
	return msg.From.ID, displayName
}
