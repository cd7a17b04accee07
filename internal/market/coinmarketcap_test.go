package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const btcQuotes = `{
  "status": {"error_code": 0, "error_message": null},
  "data": {
    "BTC": {
      "id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin", "cmc_rank": 1,
      "circulating_supply": 19750000, "total_supply": 19750000, "max_supply": 21000000,
      "last_updated": "2026-10-14T11:59:00.000Z",
      "quote": {"USD": {"price": 65000.5, "volume_24h": 30000000000, "percent_change_1h": 0.1,
        "percent_change_24h": -1.25, "percent_change_7d": 4.5, "market_cap": 1283759875000}}
    }
  }
}`

const invalidSymbol = `{"status": {"error_code": 400, "error_message": "Invalid value for \"symbol\": \"NOPE\""}}`

func newTestCMC(t *testing.T, handler http.HandlerFunc) *CoinMarketCap {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCoinMarketCap(srv.URL+"/", "secret", srv.Client())
}

func TestCoinMarketCap_CoinByQuerySymbol(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cryptocurrency/quotes/latest", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("symbol"))
		assert.Equal(t, "USD", r.URL.Query().Get("convert"))
		assert.Equal(t, "secret", r.Header.Get("X-CMC_PRO_API_KEY"))
		w.Write([]byte(btcQuotes))
	})

	coin, err := cmc.CoinByQuery(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "CoinMarketCap", coin.Provider)
	assert.Equal(t, "bitcoin", coin.ID)
	assert.Equal(t, "BTC", coin.Symbol)
	assert.Equal(t, 1, coin.Rank)
	assert.Equal(t, "https://coinmarketcap.com/currencies/bitcoin/", coin.URL)
	assert.Equal(t, 65000.5, coin.PriceUSD)
	assert.Nil(t, coin.PriceBTC)
	require.NotNil(t, coin.MaxSupply)
	assert.Equal(t, 21000000.0, *coin.MaxSupply)
	assert.Equal(t, -1.25, coin.PercentChange24h)
	assert.True(t, time.Date(2026, time.October, 14, 11, 59, 0, 0, time.UTC).Equal(coin.LastUpdated))
}

func TestCoinMarketCap_CoinByQueryFallsBackToSlug(t *testing.T) {
	var calls int32
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("symbol") != "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(invalidSymbol))
			return
		}
		assert.Equal(t, "bitcoin-cash", r.URL.Query().Get("slug"))
		w.Write([]byte(`{"status":{"error_code":0},"data":{"1831":{"name":"Bitcoin Cash","symbol":"BCH","slug":"bitcoin-cash","cmc_rank":20,"quote":{"USD":{"price":350}}}}}`))
	})

	coin, err := cmc.CoinByQuery(context.Background(), "Bitcoin Cash")
	require.NoError(t, err)
	assert.Equal(t, "BCH", coin.Symbol)
	assert.Equal(t, 20, coin.Rank)
	assert.Nil(t, coin.MaxSupply)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCoinMarketCap_CoinByQueryNotFound(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(invalidSymbol))
	})

	_, err := cmc.CoinByQuery(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCoinMarketCap_ServerErrorIsNotNotFound(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status":{"error_code":1008,"error_message":"rate limit"}}`))
	})

	_, err := cmc.CoinByQuery(context.Background(), "btc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate limit", apiErr.Message)
}

func TestCoinMarketCap_CoinByRank(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cryptocurrency/listings/latest", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"status":{"error_code":0},"data":[
			{"name":"Bitcoin","symbol":"BTC","slug":"bitcoin","cmc_rank":1,"quote":{"USD":{"price":65000}}},
			{"name":"Ethereum","symbol":"ETH","slug":"ethereum","cmc_rank":2,"quote":{"USD":{"price":2500}}}]}`))
	})

	coin, err := cmc.CoinByRank(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Ethereum", coin.Name)
	assert.Equal(t, 2, coin.Rank)
}

func TestCoinMarketCap_CoinByRankShortListing(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"error_code":0},"data":[{"name":"Bitcoin","slug":"bitcoin","cmc_rank":1}]}`))
	})

	_, err := cmc.CoinByRank(context.Background(), 5)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCoinMarketCap_Global(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/global-metrics/quotes/latest", r.URL.Path)
		w.Write([]byte(`{"status":{"error_code":0},"data":{
			"active_cryptocurrencies": 9800, "active_market_pairs": 81000, "btc_dominance": 54.2,
			"last_updated": "2026-10-14T12:00:00Z",
			"quote": {"USD": {"total_market_cap": 2400000000000.4, "total_volume_24h": 90000000000}}}}`))
	})

	g, err := cmc.Global(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2400000000000.4, g.TotalMarketCapUSD)
	assert.Equal(t, 90000000000.0, g.TotalVolume24hUSD)
	assert.Equal(t, 54.2, g.BitcoinPercentage)
	assert.Equal(t, int64(9800), g.ActiveCurrencies)
	assert.Equal(t, int64(81000), g.ActiveMarkets)
}

func TestCoinMarketCap_UndecodableBody(t *testing.T) {
	cmc := newTestCMC(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})

	_, err := cmc.Global(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCoinMarketCap_BTCQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD,BTC", r.URL.Query().Get("convert"))
		w.Write([]byte(`{"status":{"error_code":0},"data":{"ETH":{"name":"Ethereum","symbol":"ETH",
			"slug":"ethereum","cmc_rank":2,"quote":{"USD":{"price":2500},"BTC":{"price":0.0385}}}}}`))
	}))
	defer srv.Close()

	cmc := NewCoinMarketCap(srv.URL, "secret", srv.Client(), WithBTCQuote())
	coin, err := cmc.CoinByQuery(context.Background(), "eth")
	require.NoError(t, err)
	require.NotNil(t, coin.PriceBTC)
	assert.Equal(t, 0.0385, *coin.PriceBTC)
}
