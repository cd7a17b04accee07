package market

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const coinMarketCapName = "CoinMarketCap"

// CoinMarketCap talks to the CoinMarketCap Pro API v1.
type CoinMarketCap struct {
	baseURL string
	apiKey  string
	client  *http.Client
	convert string
}

type CoinMarketCapOption func(*CoinMarketCap)

// WithBTCQuote also requests BTC quotes for /info. Each extra convert costs an
// API credit and the Basic plan rejects it.
func WithBTCQuote() CoinMarketCapOption {
	return func(c *CoinMarketCap) {
		c.convert = "USD,BTC"
	}
}

type cmcStatus struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type cmcEnvelope struct {
	Status cmcStatus       `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type cmcQuote struct {
	Price            float64 `json:"price"`
	Volume24h        float64 `json:"volume_24h"`
	PercentChange1h  float64 `json:"percent_change_1h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	PercentChange7d  float64 `json:"percent_change_7d"`
	MarketCap        float64 `json:"market_cap"`
}

type cmcCoin struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	Symbol            string              `json:"symbol"`
	Slug              string              `json:"slug"`
	CMCRank           int                 `json:"cmc_rank"`
	CirculatingSupply float64             `json:"circulating_supply"`
	TotalSupply       float64             `json:"total_supply"`
	MaxSupply         *float64            `json:"max_supply"`
	LastUpdated       time.Time           `json:"last_updated"`
	Quote             map[string]cmcQuote `json:"quote"`
}

type cmcGlobal struct {
	ActiveCryptocurrencies int64     `json:"active_cryptocurrencies"`
	ActiveMarketPairs      int64     `json:"active_market_pairs"`
	BTCDominance           float64   `json:"btc_dominance"`
	LastUpdated            time.Time `json:"last_updated"`
	Quote                  map[string]struct {
		TotalMarketCap float64 `json:"total_market_cap"`
		TotalVolume24h float64 `json:"total_volume_24h"`
	} `json:"quote"`
}

func NewCoinMarketCap(baseURL, apiKey string, client *http.Client, opts ...CoinMarketCapOption) *CoinMarketCap {
	if client == nil {
		client = http.DefaultClient
	}
	c := &CoinMarketCap{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		convert: "USD",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CoinMarketCap) Name() string {
	return coinMarketCapName
}

// CoinByQuery resolves query as a symbol first and as a slug second.
func (c *CoinMarketCap) CoinByQuery(ctx context.Context, query string) (*Coin, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNotFound
	}

	coin, err := c.quotesLatest(ctx, url.Values{"symbol": {strings.ToUpper(query)}})
	if err == nil {
		return coin, nil
	}
	if !isNotFound(err) {
		return nil, errors.Wrapf(err, "quotes by symbol %s", query)
	}

	log.Debugf("No coin with symbol %q, trying slug", query)
	slug := strings.ReplaceAll(strings.ToLower(query), " ", "-")
	coin, err = c.quotesLatest(ctx, url.Values{"slug": {slug}})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "quotes by slug %s", slug)
	}
	return coin, nil
}

// CoinByRank returns the coin currently ranked rank by market cap.
func (c *CoinMarketCap) CoinByRank(ctx context.Context, rank int) (*Coin, error) {
	if rank < 1 {
		return nil, ErrNotFound
	}

	var listing []cmcCoin
	params := url.Values{
		"start":   {"1"},
		"limit":   {strconv.Itoa(rank)},
		"convert": {c.convert},
	}
	if err := c.get(ctx, "/v1/cryptocurrency/listings/latest", params, &listing); err != nil {
		return nil, errors.Wrapf(err, "listings up to rank %d", rank)
	}
	if len(listing) < rank {
		return nil, ErrNotFound
	}
	return listing[rank-1].toCoin(), nil
}

func (c *CoinMarketCap) Global(ctx context.Context) (*Global, error) {
	var g cmcGlobal
	if err := c.get(ctx, "/v1/global-metrics/quotes/latest", url.Values{"convert": {"USD"}}, &g); err != nil {
		return nil, errors.Wrap(err, "global metrics")
	}

	usd := g.Quote["USD"]
	return &Global{
		TotalMarketCapUSD: usd.TotalMarketCap,
		TotalVolume24hUSD: usd.TotalVolume24h,
		BitcoinPercentage: g.BTCDominance,
		ActiveCurrencies:  g.ActiveCryptocurrencies,
		ActiveMarkets:     g.ActiveMarketPairs,
		LastUpdated:       g.LastUpdated,
	}, nil
}

func (c *CoinMarketCap) quotesLatest(ctx context.Context, params url.Values) (*Coin, error) {
	params.Set("convert", c.convert)

	// data is keyed by symbol or by numeric id depending on the lookup
	var data map[string]cmcCoin
	if err := c.get(ctx, "/v1/cryptocurrency/quotes/latest", params, &data); err != nil {
		return nil, err
	}
	for _, coin := range data {
		return coin.toCoin(), nil
	}
	return nil, ErrNotFound
}

func (c *CoinMarketCap) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "could not read %s response", path)
	}

	var envelope cmcEnvelope
	decodeErr := json.Unmarshal(body, &envelope)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Status.ErrorMessage}
	}
	if decodeErr != nil {
		return errors.Wrapf(decodeErr, "could not decode %s response", path)
	}
	if envelope.Status.ErrorCode != 0 {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Status.ErrorMessage}
	}
	if len(envelope.Data) == 0 {
		return ErrNotFound
	}
	return errors.Wrapf(json.Unmarshal(envelope.Data, out), "could not decode %s data", path)
}

func (c cmcCoin) toCoin() *Coin {
	usd := c.Quote["USD"]
	coin := &Coin{
		Provider:          coinMarketCapName,
		ID:                c.Slug,
		Name:              c.Name,
		Symbol:            c.Symbol,
		Rank:              c.CMCRank,
		URL:               "https://coinmarketcap.com/currencies/" + c.Slug + "/",
		PriceUSD:          usd.Price,
		MarketCapUSD:      usd.MarketCap,
		Volume24hUSD:      usd.Volume24h,
		CirculatingSupply: c.CirculatingSupply,
		TotalSupply:       c.TotalSupply,
		MaxSupply:         c.MaxSupply,
		PercentChange1h:   usd.PercentChange1h,
		PercentChange24h:  usd.PercentChange24h,
		PercentChange7d:   usd.PercentChange7d,
		LastUpdated:       c.LastUpdated,
	}
	if btc, ok := c.Quote["BTC"]; ok {
		price := btc.Price
		coin.PriceBTC = &price
	}
	return coin
}

// isNotFound reports whether err means the lookup matched nothing.
// CoinMarketCap answers unknown symbols and slugs with 400.
func isNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
