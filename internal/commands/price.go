package commands

import (
	"context"
	"fmt"
	"strings"

	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Price handles /price <symbol>.
func (h *Handler) Price(ctx context.Context, args string) (string, error) {
	log.Debugf("processing command /price with argument :%s", args)

	fields := ParseArguments(args)
	if len(fields) != 1 {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /price <symbol>")), nil
	}

	symbol := strings.ToUpper(fields[0])
	marketSymbol := h.resolver.Resolve(symbol)

	if h.quoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.quoteTimeout)
		defer cancel()
	}

	obs, err := h.quotes.LatestPrice(ctx, marketSymbol)
	if err != nil {
		return "", errors.Wrapf(err, "command /price %s", marketSymbol)
	}
	if !obs.Usable() {
		return helpers.EscapeMarkdownV2(translation.Translate("No price available for %s right now.", marketSymbol)), nil
	}

	quoted := h.currencySymbol + helpers.FormatPrice(obs.Price, false)
	if obs.Currency != "" {
		quoted += " " + obs.Currency
	}

	return fmt.Sprintf("*%s* ▫️ `%s`",
		helpers.EscapeMarkdownV2(marketSymbol),
		helpers.EscapeCodeBlock(quoted),
	), nil
}

const helpText = `Available commands:
/setalert <symbol> <price> - notify me when the price reaches the target
/listalerts - show your active alerts
/removealert <symbol> - remove your alerts for a symbol
/price <symbol> - show the latest price`

// Help lists the available commands.
func (h *Handler) Help() string {
	return helpers.EscapeMarkdownV2(translation.Translate(helpText))
}
