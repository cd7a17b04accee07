package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerToCoin(t *testing.T) {
	id, name, symbol := "btc-bitcoin", "Bitcoin", "BTC"
	rank, circulating, total, maxSupply := int64(1), int64(19750000), int64(19750000), int64(21000000)
	updated := "2026-10-14T12:00:00Z"
	usdPrice, usdCap, usdVol, change := 65000.0, 1.28e12, 3e10, 1.5
	btcPrice := 1.0

	coin := tickerToCoin(&coinpaprika.Ticker{
		ID:                &id,
		Name:              &name,
		Symbol:            &symbol,
		Rank:              &rank,
		CirculatingSupply: &circulating,
		TotalSupply:       &total,
		MaxSupply:         &maxSupply,
		LastUpdated:       &updated,
		Quotes: map[string]coinpaprika.Quote{
			"USD": {Price: &usdPrice, MarketCap: &usdCap, Volume24h: &usdVol, PercentChange24h: &change},
			"BTC": {Price: &btcPrice},
		},
	})

	assert.Equal(t, "CoinPaprika", coin.Provider)
	assert.Equal(t, "btc-bitcoin", coin.ID)
	assert.Equal(t, "https://coinpaprika.com/coin/btc-bitcoin/", coin.URL)
	assert.Equal(t, 1, coin.Rank)
	assert.Equal(t, 65000.0, coin.PriceUSD)
	assert.Equal(t, 1.5, coin.PercentChange24h)
	require.NotNil(t, coin.PriceBTC)
	assert.Equal(t, 1.0, *coin.PriceBTC)
	require.NotNil(t, coin.MaxSupply)
	assert.Equal(t, 21000000.0, *coin.MaxSupply)
	assert.True(t, time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC).Equal(coin.LastUpdated))
}

func TestTickerToCoin_MissingFields(t *testing.T) {
	id := "xyz-unknown"
	zero := int64(0)

	coin := tickerToCoin(&coinpaprika.Ticker{ID: &id, MaxSupply: &zero})

	assert.Equal(t, "xyz-unknown", coin.ID)
	assert.Nil(t, coin.MaxSupply, "a zero max supply means uncapped")
	assert.Nil(t, coin.PriceBTC)
	assert.Zero(t, coin.PriceUSD)
	assert.True(t, coin.LastUpdated.IsZero())
}

// rewriteTransport sends every request to the test server whatever host it names.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

const btcTicker = `{"id":"btc-bitcoin","name":"Bitcoin","symbol":"BTC","rank":1,
	"quotes":{"USD":{"price":65000},"BTC":{"price":1}}}`

func newPaprika(t *testing.T, handler http.HandlerFunc) *CoinPaprika {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewCoinPaprika(&http.Client{Transport: rewriteTransport{target: target}}, "")
}

func TestCoinPaprika_CoinByQuerySymbolSearch(t *testing.T) {
	searches := 0
	p := newPaprika(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"), strings.HasSuffix(r.URL.Path, "/search/"):
			searches++
			w.Write([]byte(`{"currencies":[{"id":"btc-bitcoin","name":"Bitcoin","symbol":"BTC"}]}`))
		case strings.Contains(r.URL.Path, "/tickers/btc-bitcoin"):
			assert.Contains(t, r.URL.Query().Get("quotes"), "BTC")
			w.Write([]byte(btcTicker))
		default:
			http.NotFound(w, r)
		}
	})

	coin, err := p.CoinByQuery(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", coin.Name)
	assert.Equal(t, 65000.0, coin.PriceUSD)
	require.NotNil(t, coin.PriceBTC)
	assert.Equal(t, 1, searches)
}

func TestCoinPaprika_CoinByQueryFallsBackToNameSearch(t *testing.T) {
	searches := 0
	p := newPaprika(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search"):
			searches++
			if searches == 1 {
				w.Write([]byte(`{"currencies":[]}`))
				return
			}
			w.Write([]byte(`{"currencies":[{"id":"btc-bitcoin","name":"Bitcoin","symbol":"BTC"}]}`))
		case strings.Contains(r.URL.Path, "/tickers/btc-bitcoin"):
			w.Write([]byte(btcTicker))
		default:
			http.NotFound(w, r)
		}
	})

	coin, err := p.CoinByQuery(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "btc-bitcoin", coin.ID)
	assert.Equal(t, 2, searches)
}

func TestCoinPaprika_CoinByQueryMatchWithoutID(t *testing.T) {
	p := newPaprika(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/search") {
			w.Write([]byte(`{"currencies":[{"name":"Nameless"}]}`))
			return
		}
		t.Errorf("unexpected request %s", r.URL.Path)
		http.NotFound(w, r)
	})

	_, err := p.CoinByQuery(context.Background(), "nameless")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoinPaprika_CoinByRank(t *testing.T) {
	p := newPaprika(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[` + btcTicker + `,{"id":"eth-ethereum","name":"Ethereum","symbol":"ETH","rank":2}]`))
	})

	coin, err := p.CoinByRank(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Ethereum", coin.Name)

	_, err = p.CoinByRank(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoinPaprika_Global(t *testing.T) {
	p := newPaprika(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/global"), r.URL.Path)
		w.Write([]byte(`{"market_cap_usd":2300000000000.5,"volume_24h_usd":91000000000.25,
			"bitcoin_dominance_percentage":55.1,"cryptocurrencies_number":9000,"last_updated":1791979200}`))
	})

	g, err := p.Global(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2300000000000.5, g.TotalMarketCapUSD)
	assert.Equal(t, 91000000000.25, g.TotalVolume24hUSD)
	assert.Equal(t, 55.1, g.BitcoinPercentage)
	assert.Equal(t, int64(9000), g.ActiveCurrencies)
	assert.True(t, time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC).Equal(g.LastUpdated))
}
