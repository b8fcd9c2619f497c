package commands

import (
	"context"
	"time"

	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/types"
)

// Store is what the chat commands need from the alert store.
type Store interface {
	GetOrCreateUser(ctx context.Context, externalID int64, displayName string) (*types.User, error)
	GetUserByExternalID(ctx context.Context, externalID int64) (*types.User, error)
	AddAlert(ctx context.Context, ownerID int64, symbol string, targetPrice float64) (*types.Alert, error)
	ListAlerts(ctx context.Context, ownerID int64) ([]types.Alert, error)
	RemoveAlerts(ctx context.Context, ownerID int64, symbol string) (int64, error)
}

// Handler turns chat commands into store mutations and renders MarkdownV2 replies.
type Handler struct {
	store          Store
	quotes         price.Oracle
	resolver       price.SymbolResolver
	currencySymbol string
	quoteTimeout   time.Duration
}

const defaultQuoteTimeout = 10 * time.Second

func NewHandler(store Store, quotes price.Oracle, resolver price.SymbolResolver, currencySymbol string, quoteTimeout time.Duration) *Handler {
	if quoteTimeout <= 0 {
		quoteTimeout = defaultQuoteTimeout
	}
	return &Handler{
		store:          store,
		quotes:         quotes,
		resolver:       resolver,
		currencySymbol: currencySymbol,
		quoteTimeout:   quoteTimeout,
	}
}
