package commands

import (
	"math"
	"strings"

	"stock-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseArguments splits command arguments on whitespace.
func ParseArguments(args string) []string {
	return strings.Fields(args)
}

// ParsePrice accepts plain decimal numbers greater than zero.
func ParsePrice(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Wrapf(types.ErrInvalidArgument, "invalid price %q", raw)
	}
	if !d.IsPositive() {
		return 0, errors.Wrapf(types.ErrInvalidArgument, "price %q must be positive", raw)
	}

	value := d.InexactFloat64()
	if math.IsInf(value, 0) || value <= 0 {
		return 0, errors.Wrapf(types.ErrInvalidArgument, "price %q is out of range", raw)
	}
	return value, nil
}
