package config

import (
	"github.com/spf13/viper"
	"sync"
	"time"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("webhook_url", "WEBHOOK_URL")
		viper.BindEnv("updates_timeout", "UPDATES_TIMEOUT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.BindEnv("market_provider", "MARKET_PROVIDER")
		viper.BindEnv("cmc_api_key", "CMC_API_KEY")
		viper.BindEnv("cmc_base_url", "CMC_BASE_URL")
		viper.BindEnv("cmc_btc_quote", "CMC_BTC_QUOTE")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("binance_base_url", "BINANCE_BASE_URL")
		viper.BindEnv("upstream_timeout", "UPSTREAM_TIMEOUT")

		viper.BindEnv("rate_limit", "RATE_LIMIT")
		viper.BindEnv("rate_window", "RATE_WINDOW")
		viper.BindEnv("cache_ttl", "CACHE_TTL")
		viper.BindEnv("cache_clear_interval", "CACHE_CLEAR_INTERVAL")
		viper.BindEnv("cache_store", "CACHE_STORE")
		viper.BindEnv("cache_file", "CACHE_FILE")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("redis_addr", "REDIS_ADDR")
		viper.BindEnv("redis_password", "REDIS_PASSWORD")
		viper.BindEnv("redis_db", "REDIS_DB")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("updates_timeout", 60)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")

		viper.SetDefault("market_provider", "coinmarketcap")
		viper.SetDefault("cmc_base_url", "https://pro-api.coinmarketcap.com")
		viper.SetDefault("cmc_btc_quote", false)
		viper.SetDefault("binance_base_url", "https://api.binance.com")
		viper.SetDefault("upstream_timeout", 30*time.Second)

		// 10 upstream calls a minute
		viper.SetDefault("rate_limit", 10)
		viper.SetDefault("rate_window", time.Minute)
		viper.SetDefault("cache_ttl", 5*time.Minute)
		viper.SetDefault("cache_clear_interval", time.Duration(0))
		viper.SetDefault("cache_store", "")
		viper.SetDefault("cache_file", "cache.json")
		viper.SetDefault("db_path", "bot.db")
		viper.SetDefault("redis_addr", "localhost:6379")
		viper.SetDefault("redis_db", 0)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
