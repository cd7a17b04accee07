package main

import (
	"net/http"
	"strings"

	"cryptoinfo-bot/config"
	"cryptoinfo-bot/internal/cache"
	"cryptoinfo-bot/internal/commands"
	"cryptoinfo-bot/internal/database"
	"cryptoinfo-bot/internal/market"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func newMarketSource(provider string, client *http.Client) (commands.MarketSource, error) {
	switch strings.ToLower(provider) {
	case "", "coinmarketcap", "cmc":
		var opts []market.CoinMarketCapOption
		if config.GetBool("cmc_btc_quote") {
			opts = append(opts, market.WithBTCQuote())
		}
		return market.NewCoinMarketCap(config.GetString("cmc_base_url"), config.GetString("cmc_api_key"), client, opts...), nil
	case "coinpaprika":
		return market.NewCoinPaprika(client, config.GetString("api_pro_key")), nil
	}
	return nil, errors.Errorf("unknown market provider %q", provider)
}

// openCacheStore returns the configured persistence for the response caches, or
// nil when caches live in memory only. The sqlite store shares db.
func openCacheStore(db *database.DB) (cache.Store, error) {
	switch kind := strings.ToLower(config.GetString("cache_store")); kind {
	case "", "none":
		return nil, nil
	case "json":
		return cache.NewJSONFile(config.GetString("cache_file")), nil
	case "sqlite":
		return db.CacheStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.GetString("redis_addr"),
			Password: config.GetString("redis_password"),
			DB:       config.GetInt("redis_db"),
		})
		return cache.NewRedis(client, cache.DefaultRedisKey), nil
	default:
		return nil, errors.Errorf("unknown cache store %q", kind)
	}
}
