// Package format renders market payloads as the plain-text replies sent to chats.
package format

import (
	"sort"
	"strconv"
	"strings"

	"cryptoinfo-bot/internal/exchange"
	"cryptoinfo-bot/internal/market"
	"cryptoinfo-bot/lib/helpers"
)

// quoteAssets are the pair suffixes a bare ticker lookup reports.
var quoteAssets = map[string]bool{
	"BTC": true, "ETH": true, "BNB": true,
	"USDT": true, "USDC": true, "FDUSD": true, "TUSD": true, "BUSD": true,
	"EUR": true, "TRY": true, "BRL": true,
}

// usdPriced quote assets get a converted dollar price through their USDT pair.
var usdPriced = []string{"ETH", "BTC", "BNB"}

func Info(c market.Coin) string {
	var b strings.Builder

	b.WriteString(c.Name + " (" + c.Symbol + ")\n")
	b.WriteString(c.Provider + " ID: " + c.ID + "\n")
	b.WriteString(c.Provider + " Rank: " + strconv.Itoa(c.Rank) + "\n")
	b.WriteString(c.URL + "\n\n")

	b.WriteString("Price USD: $" + helpers.FormatNumber(c.PriceUSD) + "\n")
	if c.PriceBTC != nil {
		b.WriteString("Price BTC: " + strconv.FormatFloat(*c.PriceBTC, 'f', -1, 64) + " BTC\n")
	}
	b.WriteString("\n")

	b.WriteString("Market Cap: $" + helpers.FormatNumber(c.MarketCapUSD) + "\n")
	b.WriteString("24h Volume: $" + helpers.FormatNumber(c.Volume24hUSD) + "\n")
	b.WriteString("Available Supply: " + helpers.FormatNumber(c.CirculatingSupply) + "\n")
	b.WriteString("Total Supply: " + helpers.FormatNumber(c.TotalSupply) + "\n")
	if c.MaxSupply != nil && *c.MaxSupply > 0 {
		b.WriteString("Maximum Supply: " + helpers.FormatNumber(*c.MaxSupply) + "\n")
	}

	b.WriteString("\nChange 1h: " + helpers.FormatNumber(c.PercentChange1h) + "%\n")
	b.WriteString("Change 24h: " + helpers.FormatNumber(c.PercentChange24h) + "%\n")
	b.WriteString("Change 7d: " + helpers.FormatNumber(c.PercentChange7d) + "%\n\n")

	b.WriteString("Last Updated: " + helpers.FormatDate(c.LastUpdated))
	return b.String()
}

func Global(g market.Global) string {
	var b strings.Builder

	b.WriteString("Total Market Cap: $" + helpers.FormatInteger(g.TotalMarketCapUSD) + "\n")
	b.WriteString("Total 24h Volume: $" + helpers.FormatInteger(g.TotalVolume24hUSD) + "\n")
	b.WriteString("Bitcoin Percentage of Market Cap: " + helpers.FormatNumber(g.BitcoinPercentage) + "%\n\n")

	b.WriteString("Number of Active Currencies: " + helpers.FormatCount(g.ActiveCurrencies) + "\n")
	if g.ActiveMarkets > 0 {
		b.WriteString("Number of Active Markets: " + helpers.FormatCount(g.ActiveMarkets) + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Last Updated: " + helpers.FormatDate(g.LastUpdated))
	return b.String()
}

// Ticker lists every pair of symbol against a known quote asset. It returns false
// when the table holds no such pair.
func Ticker(prices exchange.Prices, symbol string) (string, bool) {
	symbol = strings.ToUpper(symbol)

	var pairs []string
	for pair := range prices {
		if !strings.HasPrefix(pair, symbol) {
			continue
		}
		if quoteAssets[strings.TrimPrefix(pair, symbol)] {
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) == 0 {
		return "", false
	}
	sort.Strings(pairs)

	var b strings.Builder
	for _, pair := range pairs {
		quote := strings.TrimPrefix(pair, symbol)
		b.WriteString(prices[pair] + " " + symbol + "/" + quote)
		if usd, ok := usdValue(prices, prices[pair], quote); ok {
			b.WriteString(" ($" + helpers.FormatNumber(usd) + ")")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n"), true
}

func usdValue(prices exchange.Prices, price, quote string) (float64, bool) {
	for _, q := range usdPriced {
		if q != quote {
			continue
		}
		p, err := strconv.ParseFloat(price, 64)
		if err != nil {
			return 0, false
		}
		rate, err := strconv.ParseFloat(prices[q+"USDT"], 64)
		if err != nil {
			return 0, false
		}
		return p * rate, true
	}
	return 0, false
}
