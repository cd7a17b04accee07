package market

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const coinPaprikaName = "CoinPaprika"

// CoinPaprika serves coin and market data from api.coinpaprika.com.
type CoinPaprika struct {
	client *coinpaprika.Client
}

func NewCoinPaprika(httpClient *http.Client, apiProKey string) *CoinPaprika {
	if apiProKey != "" {
		return &CoinPaprika{client: coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &CoinPaprika{client: coinpaprika.NewClient(httpClient)}
}

func (p *CoinPaprika) Name() string {
	return coinPaprikaName
}

// CoinByQuery retrieves the ticker for the given query (symbol, name, etc.)
func (p *CoinPaprika) CoinByQuery(ctx context.Context, query string) (*Coin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	currency, err := p.searchCoin(query)
	if err != nil {
		return nil, err
	}

	log.Debugf("Best match for query '%s' is: %s", query, *currency.ID)
	ticker, err := p.client.Tickers.GetByID(*currency.ID, &coinpaprika.TickersOptions{Quotes: "USD,BTC"})
	if err != nil {
		return nil, errors.Wrapf(err, "ticker %s", *currency.ID)
	}
	return tickerToCoin(ticker), nil
}

// CoinByRank scans the full ticker list for the coin holding rank.
func (p *CoinPaprika) CoinByRank(ctx context.Context, rank int) (*Coin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tickers, err := p.client.Tickers.List(&coinpaprika.TickersOptions{Quotes: "USD,BTC"})
	if err != nil {
		return nil, errors.Wrap(err, "ticker list")
	}
	for _, t := range tickers {
		if t.Rank != nil && int(*t.Rank) == rank {
			return tickerToCoin(t), nil
		}
	}
	return nil, ErrNotFound
}

func (p *CoinPaprika) Global(ctx context.Context) (*Global, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, err := p.client.Global.Get()
	if err != nil {
		return nil, errors.Wrap(err, "global stats")
	}

	g := &Global{
		TotalMarketCapUSD: derefFloat(stats.MarketCapUSD),
		TotalVolume24hUSD: derefFloat(stats.Volume24hUSD),
		BitcoinPercentage: derefFloat(stats.BitcoinDominancePercentage),
		ActiveCurrencies:  derefInt(stats.CryptocurrenciesNumber),
	}
	if stats.LastUpdated != nil {
		g.LastUpdated = time.Unix(*stats.LastUpdated, 0).UTC()
	}
	return g, nil
}

// searchCoin searches for a coin by symbol first and falls back to a name search.
func (p *CoinPaprika) searchCoin(query string) (*coinpaprika.Coin, error) {
	searchOpts := &coinpaprika.SearchOptions{
		Query:      query,
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := p.client.Search.Search(searchOpts)
	if err == nil {
		if coin := firstCurrency(result.Currencies); coin != nil {
			return coin, nil
		}
	}

	log.Debugf("No results for symbol search, trying name search for '%s'", query)
	searchOpts = &coinpaprika.SearchOptions{Query: query, Categories: "currencies"}
	result, err = p.client.Search.Search(searchOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", query)
	}
	if coin := firstCurrency(result.Currencies); coin != nil {
		return coin, nil
	}
	return nil, ErrNotFound
}

// firstCurrency returns the best match, or nil when there is none with an id.
func firstCurrency(currencies []*coinpaprika.Coin) *coinpaprika.Coin {
	if len(currencies) == 0 {
		return nil
	}
	if coin := currencies[0]; coin != nil && coin.ID != nil {
		return coin
	}
	return nil
}

func tickerToCoin(t *coinpaprika.Ticker) *Coin {
	id := derefString(t.ID)
	coin := &Coin{
		Provider:          coinPaprikaName,
		ID:                id,
		Name:              derefString(t.Name),
		Symbol:            derefString(t.Symbol),
		Rank:              int(derefInt(t.Rank)),
		URL:               "https://coinpaprika.com/coin/" + id + "/",
		CirculatingSupply: float64(derefInt(t.CirculatingSupply)),
		TotalSupply:       float64(derefInt(t.TotalSupply)),
	}
	if t.MaxSupply != nil && *t.MaxSupply > 0 {
		maxSupply := float64(*t.MaxSupply)
		coin.MaxSupply = &maxSupply
	}
	if t.LastUpdated != nil {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*t.LastUpdated)); err == nil {
			coin.LastUpdated = ts
		}
	}

	if usd, ok := t.Quotes["USD"]; ok {
		coin.PriceUSD = derefFloat(usd.Price)
		coin.MarketCapUSD = derefFloat(usd.MarketCap)
		coin.Volume24hUSD = derefFloat(usd.Volume24h)
		coin.PercentChange1h = derefFloat(usd.PercentChange1h)
		coin.PercentChange24h = derefFloat(usd.PercentChange24h)
		coin.PercentChange7d = derefFloat(usd.PercentChange7d)
	}
	if btc, ok := t.Quotes["BTC"]; ok && btc.Price != nil {
		price := *btc.Price
		coin.PriceBTC = &price
	}
	return coin
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
