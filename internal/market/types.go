package market

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no coin matches a name, symbol or rank.
var ErrNotFound = errors.New("currency not found")

// Coin is one coin's market record as shown by /info.
type Coin struct {
	Provider          string    `json:"provider"`
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	Rank              int       `json:"rank"`
	URL               string    `json:"url"`
	PriceUSD          float64   `json:"price"`
	PriceBTC          *float64  `json:"price_btc,omitempty"`
	MarketCapUSD      float64   `json:"market_cap"`
	Volume24hUSD      float64   `json:"volume_24h"`
	CirculatingSupply float64   `json:"circulating_supply"`
	TotalSupply       float64   `json:"total_supply"`
	MaxSupply         *float64  `json:"max_supply,omitempty"`
	PercentChange1h   float64   `json:"percent_change_1h"`
	PercentChange24h  float64   `json:"percent_change_24h"`
	PercentChange7d   float64   `json:"percent_change_7d"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Global is the whole-market snapshot shown by /global.
type Global struct {
	TotalMarketCapUSD float64   `json:"total_market_cap"`
	TotalVolume24hUSD float64   `json:"total_volume_24h"`
	BitcoinPercentage float64   `json:"bitcoin_percentage_of_market_cap"`
	ActiveCurrencies  int64     `json:"active_cryptocurrencies"`
	ActiveMarkets     int64     `json:"active_markets"`
	LastUpdated       time.Time `json:"last_updated"`
}

// APIError is a non-2xx answer from a market data API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("market api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("market api returned status %d: %s", e.StatusCode, e.Message)
}
