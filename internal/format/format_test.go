package format

import (
	"testing"
	"time"

	"cryptoinfo-bot/internal/exchange"
	"cryptoinfo-bot/internal/market"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }

func btc() market.Coin {
	return market.Coin{
		Provider:          "CoinMarketCap",
		ID:                "bitcoin",
		Name:              "Bitcoin",
		Symbol:            "BTC",
		Rank:              1,
		URL:               "https://coinmarketcap.com/currencies/bitcoin/",
		PriceUSD:          65000.5,
		MarketCapUSD:      1283759875000,
		Volume24hUSD:      30000000000.25,
		CirculatingSupply: 19750000,
		TotalSupply:       19750000,
		MaxSupply:         floatPtr(21000000),
		PercentChange1h:   0.1,
		PercentChange24h:  -1.25,
		PercentChange7d:   4.5,
		LastUpdated:       time.Date(2026, time.October, 14, 11, 59, 0, 0, time.UTC),
	}
}

func TestInfo(t *testing.T) {
	want := "Bitcoin (BTC)\n" +
		"CoinMarketCap ID: bitcoin\n" +
		"CoinMarketCap Rank: 1\n" +
		"https://coinmarketcap.com/currencies/bitcoin/\n\n" +
		"Price USD: $65,000.5\n\n" +
		"Market Cap: $1,283,759,875,000\n" +
		"24h Volume: $30,000,000,000.25\n" +
		"Available Supply: 19,750,000\n" +
		"Total Supply: 19,750,000\n" +
		"Maximum Supply: 21,000,000\n\n" +
		"Change 1h: 0.1%\n" +
		"Change 24h: -1.25%\n" +
		"Change 7d: 4.5%\n\n" +
		"Last Updated: Wed Oct 14 2026 11:59:00 GMT+0000 (UTC)"

	assert.Equal(t, want, Info(btc()))
}

func TestInfo_WithoutMaxSupply(t *testing.T) {
	c := btc()
	c.MaxSupply = nil

	out := Info(c)
	assert.NotContains(t, out, "Maximum Supply")
	assert.Contains(t, out, "Total Supply: 19,750,000\n\nChange 1h")
}

func TestInfo_PriceBTC(t *testing.T) {
	c := btc()
	c.Symbol, c.Name = "ETH", "Ethereum"
	c.PriceBTC = floatPtr(0.0384)

	out := Info(c)
	assert.Contains(t, out, "Ethereum (ETH)\n")
	assert.Contains(t, out, "Price USD: $65,000.5\nPrice BTC: 0.0384 BTC\n\n")
}

func TestGlobal(t *testing.T) {
	want := "Total Market Cap: $2,400,000,000,000\n" +
		"Total 24h Volume: $90,000,000,000\n" +
		"Bitcoin Percentage of Market Cap: 54.2%\n\n" +
		"Number of Active Currencies: 9,800\n" +
		"Number of Active Markets: 81,000\n\n" +
		"Last Updated: Wed Oct 14 2026 12:00:00 GMT+0000 (UTC)"

	assert.Equal(t, want, Global(market.Global{
		TotalMarketCapUSD: 2400000000000.4,
		TotalVolume24hUSD: 90000000000,
		BitcoinPercentage: 54.2,
		ActiveCurrencies:  9800,
		ActiveMarkets:     81000,
		LastUpdated:       time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC),
	}))
}

func TestGlobal_WithoutMarkets(t *testing.T) {
	out := Global(market.Global{ActiveCurrencies: 5})
	assert.NotContains(t, out, "Active Markets")
	assert.Contains(t, out, "Number of Active Currencies: 5\n\nLast Updated")
}

var prices = exchange.Prices{
	"ETHBTC":    "0.03850000",
	"ETHUSDT":   "2500.00000000",
	"ETHBNB":    "4.10000000",
	"ETHFIUSDT": "1.20000000",
	"BTCUSDT":   "65000.00000000",
	"BNBUSDT":   "600.50000000",
	"NEOETH":    "0.00400000",
}

func TestTicker(t *testing.T) {
	out, found := Ticker(prices, "eth")
	assert.True(t, found)
	assert.Equal(t,
		"4.10000000 ETH/BNB ($2,462.05)\n"+
			"0.03850000 ETH/BTC ($2,502.5)\n"+
			"2500.00000000 ETH/USDT",
		out)
}

func TestTicker_ConvertsThroughQuotePair(t *testing.T) {
	out, found := Ticker(prices, "NEO")
	assert.True(t, found)
	assert.Equal(t, "0.00400000 NEO/ETH ($10)", out)
}

func TestTicker_NotFound(t *testing.T) {
	_, found := Ticker(prices, "xyz")
	assert.False(t, found)

	_, found = Ticker(exchange.Prices{}, "eth")
	assert.False(t, found)
}

func TestTicker_MissingUSDTRateSkipsDollarValue(t *testing.T) {
	out, found := Ticker(exchange.Prices{"LTCBTC": "0.001"}, "ltc")
	assert.True(t, found)
	assert.Equal(t, "0.001 LTC/BTC", out)
}
