package price

import (
	"context"
	"math"
)

// Observation is the latest known trade price for a market symbol.
// Available is false when the source has no usable price this time.
type Observation struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Available bool    `json:"available"`
}

// Oracle returns the latest price for a fully qualified market symbol.
type Oracle interface {
	LatestPrice(ctx context.Context, symbol string) (Observation, error)
}

// Unavailable builds the "no price this time" observation.
func Unavailable(symbol string) Observation {
	return Observation{Symbol: symbol}
}

// Usable reports whether the observation carries a finite positive price.
func (o Observation) Usable() bool {
	return o.Available && !math.IsNaN(o.Price) && !math.IsInf(o.Price, 0) && o.Price > 0
}
