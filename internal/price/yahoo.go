package price

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOracle reads the last trade price from the Yahoo Finance chart endpoint.
type YahooOracle struct {
	baseURL    string
	httpClient *http.Client
}

func NewYahooOracle(baseURL string, timeout time.Duration) *YahooOracle {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooOracle{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LatestPrice fetches the one day chart for symbol and returns its latest price.
func (y *YahooOracle) LatestPrice(ctx context.Context, symbol string) (Observation, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", y.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Unavailable(symbol), errors.Wrap(err, "could not build price request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return Unavailable(symbol), errors.Wrapf(err, "could not fetch price for %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Debugf("Yahoo has no chart for %s", symbol)
		return Unavailable(symbol), nil
	}
	if resp.StatusCode != http.StatusOK {
		return Unavailable(symbol), errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Unavailable(symbol), errors.Wrapf(err, "could not read price response for %s", symbol)
	}

	return parseChart(symbol, body), nil
}

func parseChart(symbol string, body []byte) Observation {
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return Unavailable(symbol)
	}

	obs := Observation{
		Symbol:   symbol,
		Currency: result.Get("meta.currency").String(),
	}

	if p := result.Get("meta.regularMarketPrice"); p.Type == gjson.Number && p.Float() > 0 {
		obs.Price = p.Float()
		obs.Available = true
		return obs
	}

	closes := result.Get("indicators.quote.0.close").Array()
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i].Type == gjson.Number {
			obs.Price = closes[i].Float()
			obs.Available = true
			break
		}
	}
	return obs
}
