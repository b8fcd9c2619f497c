package commands

import (
	"context"
	"fmt"
	"strings"

	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Register handles /start.
func (h *Handler) Register(ctx context.Context, externalID int64, displayName string) (string, error) {
	if _, err := h.store.GetOrCreateUser(ctx, externalID, displayName); err != nil {
		return "", errors.Wrap(err, "command /start")
	}
	return helpers.EscapeMarkdownV2(translation.Translate("Welcome! Use /setalert <symbol> <price> to set an alert.")), nil
}

// CreateAlert handles /setalert <symbol> <price>.
func (h *Handler) CreateAlert(ctx context.Context, externalID int64, displayName, args string) (string, error) {
	log.Debugf("processing command /setalert with argument :%s", args)

	fields := ParseArguments(args)
	if len(fields) != 2 {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /setalert <symbol> <price>")), nil
	}

	target, err := ParsePrice(fields[1])
	if err != nil {
		return helpers.EscapeMarkdownV2(translation.Translate("Invalid price.")), nil
	}

	user, err := h.store.GetOrCreateUser(ctx, externalID, displayName)
	if err != nil {
		return "", errors.Wrap(err, "command /setalert")
	}

	alert, err := h.store.AddAlert(ctx, user.ID, fields[0], target)
	if errors.Is(err, types.ErrInvalidArgument) {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /setalert <symbol> <price>")), nil
	}
	if err != nil {
		return "", errors.Wrap(err, "command /setalert")
	}

	return helpers.EscapeMarkdownV2(translation.Translate(
		"Alert set for %s at %s%s",
		alert.Symbol, h.currencySymbol, helpers.FormatTarget(alert.TargetPrice),
	)), nil
}

// List handles /listalerts.
func (h *Handler) List(ctx context.Context, externalID int64) (string, error) {
	alerts, err := h.alertsOf(ctx, externalID)
	if err != nil {
		return "", errors.Wrap(err, "command /listalerts")
	}

	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("You have no active alerts.")), nil
	}

	rows := lo.Map(alerts, func(a types.Alert, _ int) []string {
		return []string{
			a.Symbol,
			h.currencySymbol + helpers.FormatPrice(a.TargetPrice, false),
			humanize.Time(a.CreatedAt),
		}
	})

	var table strings.Builder
	writer := tablewriter.NewWriter(&table)
	writer.SetHeader([]string{
		translation.Translate("Symbol"),
		translation.Translate("Target"),
		translation.Translate("Set"),
	})
	writer.SetBorder(false)
	writer.SetAutoWrapText(false)
	writer.SetAlignment(tablewriter.ALIGN_LEFT)
	writer.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	writer.AppendBulk(rows)
	writer.Render()

	return fmt.Sprintf("*%s*\n```\n%s```",
		helpers.EscapeMarkdownV2(translation.Translate("Your alerts:")),
		helpers.EscapeCodeBlock(table.String()),
	), nil
}

// Delete handles /removealert <symbol>.
func (h *Handler) Delete(ctx context.Context, externalID int64, args string) (string, error) {
	fields := ParseArguments(args)
	if len(fields) != 1 {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /removealert <symbol>")), nil
	}
	symbol := strings.ToUpper(fields[0])

	removed, err := h.remove(ctx, externalID, symbol)
	if err != nil {
		return "", errors.Wrap(err, "command /removealert")
	}

	if removed == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("No alert found for %s", symbol)), nil
	}
	if removed == 1 {
		return helpers.EscapeMarkdownV2(translation.Translate("Removed alert for %s", symbol)), nil
	}
	return helpers.EscapeMarkdownV2(translation.Translate("Removed %d alerts for %s", removed, symbol)), nil
}

func (h *Handler) alertsOf(ctx context.Context, externalID int64) ([]types.Alert, error) {
	user, err := h.store.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h.store.ListAlerts(ctx, user.ID)
}

func (h *Handler) remove(ctx context.Context, externalID int64, symbol string) (int64, error) {
	user, err := h.store.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, types.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return h.store.RemoveAlerts(ctx, user.ID, symbol)
}
