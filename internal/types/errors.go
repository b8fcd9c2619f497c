package types

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a referenced user or alert does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for empty symbols and non-positive or non-finite prices.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable means a price could not be obtained this cycle. It is a normal skip, not a failure.
	ErrUnavailable = errors.New("price unavailable")
	// ErrDeliveryFailure means a notification could not be delivered.
	ErrDeliveryFailure = errors.New("delivery failed")
)
