package database

import (
	"context"
	"math"
	"strings"
	"time"

	"stock-alert-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const alertColumns = `id, owner_id, symbol, target_price, created_at`

// AddAlert saves a new alert for ownerID. Duplicate (owner, symbol) pairs are allowed.
func (s *Store) AddAlert(ctx context.Context, ownerID int64, symbol string, targetPrice float64) (*types.Alert, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(types.ErrInvalidArgument, "symbol must not be empty")
	}
	if math.IsNaN(targetPrice) || math.IsInf(targetPrice, 0) || targetPrice <= 0 {
		return nil, errors.Wrapf(types.ErrInvalidArgument, "target price %v must be a finite positive number", targetPrice)
	}

	if _, err := s.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}

	createdAt := time.Now()
	query := `INSERT INTO alerts (owner_id, symbol, target_price, created_at) VALUES (?, ?, ?, ?);`
	res, err := s.db.ExecContext(ctx, query, ownerID, symbol, targetPrice, createdAt.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert alert")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read alert id")
	}

	log.Debugf("Alert inserted: ID: %d, Owner: %d, Symbol: %s, Target: %v", id, ownerID, symbol, targetPrice)
	return &types.Alert{
		ID:          id,
		OwnerID:     ownerID,
		Symbol:      symbol,
		TargetPrice: targetPrice,
		CreatedAt:   time.Unix(createdAt.Unix(), 0),
	}, nil
}

// ListAlerts returns the owner's active alerts in creation order.
func (s *Store) ListAlerts(ctx context.Context, ownerID int64) ([]types.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE owner_id = ? ORDER BY id;`
	alerts, err := s.queryAlerts(ctx, query, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query alerts for owner %d", ownerID)
	}
	return alerts, nil
}

// RemoveAlerts deletes every alert of ownerID for symbol, ignoring case, and reports how many went away.
func (s *Store) RemoveAlerts(ctx context.Context, ownerID int64, symbol string) (int64, error) {
	query := `DELETE FROM alerts WHERE owner_id = ? AND symbol = ? COLLATE NOCASE;`
	res, err := s.db.ExecContext(ctx, query, ownerID, NormalizeSymbol(symbol))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to remove alerts for owner %d", ownerID)
	}
	return res.RowsAffected()
}

// AllAlerts fetches a snapshot of every alert.
func (s *Store) AllAlerts(ctx context.Context) ([]types.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY id;`
	alerts, err := s.queryAlerts(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alerts")
	}
	return alerts, nil
}

// DeleteAlert removes a fired alert. Deleting an unknown id is a no-op.
func (s *Store) DeleteAlert(ctx context.Context, alertID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?;`, alertID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete alert %d", alertID)
	}
	return nil
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]types.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var (
			alert     types.Alert
			createdAt int64
		)
		if err := rows.Scan(&alert.ID, &alert.OwnerID, &alert.Symbol, &alert.TargetPrice, &createdAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		alert.CreatedAt = time.Unix(createdAt, 0)
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
