package exchange

import (
	"context"
	"net/http"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Prices maps a trading pair code such as "ETHBTC" to its last price, as Binance
// reports it.
type Prices map[string]string

// Binance reads the public ticker price table. No API key is needed.
type Binance struct {
	client *binance.Client
}

func NewBinance(baseURL string, httpClient *http.Client) *Binance {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	return &Binance{client: client}
}

// Prices fetches the latest price of every pair in one call.
func (b *Binance) Prices(ctx context.Context) (Prices, error) {
	tickers, err := b.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance ticker prices")
	}

	prices := make(Prices, len(tickers))
	for _, t := range tickers {
		prices[t.Symbol] = t.Price
	}
	log.Debugf("Called Binance API, %d pairs", len(prices))
	return prices, nil
}
