package price

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PaprikaOracle quotes coin tickers in USD through the CoinPaprika API.
type PaprikaOracle struct {
	client *coinpaprika.Client
}

func NewPaprikaOracle(apiProKey string, timeout time.Duration) *PaprikaOracle {
	httpClient := &http.Client{Timeout: timeout}
	if apiProKey != "" {
		return &PaprikaOracle{client: coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &PaprikaOracle{client: coinpaprika.NewClient(httpClient)}
}

// LatestPrice searches the coin by symbol and returns its USD price.
// The client has no context support, so cancellation is only checked up front
// and the HTTP timeout bounds each request.
func (p *PaprikaOracle) LatestPrice(ctx context.Context, symbol string) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Unavailable(symbol), err
	}

	coin, err := p.searchCoin(symbol)
	if err != nil {
		log.Debugf("CoinPaprika has no coin for %s: %v", symbol, err)
		return Unavailable(symbol), nil
	}

	ticker, err := p.client.Tickers.GetByID(*coin.ID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return Unavailable(symbol), errors.Wrapf(err, "could not fetch ticker %s", *coin.ID)
	}

	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil {
		return Unavailable(symbol), nil
	}

	return Observation{
		Symbol:    symbol,
		Price:     *quote.Price,
		Currency:  "USD",
		Available: true,
	}, nil
}

func (p *PaprikaOracle) searchCoin(symbol string) (*coinpaprika.Coin, error) {
	result, err := p.client.Search.Search(&coinpaprika.SearchOptions{
		Query:      strings.ToLower(symbol),
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}
	if result == nil || len(result.Currencies) == 0 || result.Currencies[0].ID == nil {
		return nil, errors.Errorf("invalid coin ticker: %s", symbol)
	}
	return result.Currencies[0], nil
}
