package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptoinfo-bot/config"
	"cryptoinfo-bot/internal/commands"
	"cryptoinfo-bot/internal/database"
	"cryptoinfo-bot/internal/exchange"
	"cryptoinfo-bot/internal/metrics"
	"cryptoinfo-bot/internal/ratelimit"
	"cryptoinfo-bot/internal/server"
	"cryptoinfo-bot/internal/telegram"
	"cryptoinfo-bot/lib/helpers"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const metricsSaveInterval = 5 * time.Minute

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot (default)",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(config.GetString("db_path"))
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	defer db.Close()

	botMetrics := metrics.NewBotMetrics(prometheus.DefaultRegisterer)
	if err := botMetrics.Load(db); err != nil {
		log.Errorf("Failed to load metrics: %v", err)
	}

	store, err := openCacheStore(db)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	httpClient := helpers.NewHTTPClient(config.GetDuration("upstream_timeout"))
	source, err := newMarketSource(config.GetString("market_provider"), httpClient)
	if err != nil {
		return err
	}

	service := commands.NewService(commands.Config{
		Limiter:       ratelimit.New(config.GetInt("rate_limit"), config.GetDuration("rate_window")),
		Market:        source,
		Prices:        exchange.NewBinance(config.GetString("binance_base_url"), httpClient),
		Recorder:      botMetrics,
		CacheTTL:      config.GetDuration("cache_ttl"),
		ClearInterval: config.GetDuration("cache_clear_interval"),
		Store:         store,
	})
	if store != nil {
		if err := service.Restore(ctx, store); err != nil {
			log.Errorf("Starting with empty caches: %v", err)
		}
	}
	go service.Run(ctx)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: config.GetInt("updates_timeout"),
		WebhookURL:     config.GetString("webhook_url"),
	}, service, telegram.WithObserver(botMetrics))
	if err != nil {
		return errors.Wrap(err, "failed to create bot")
	}

	updates, err := bot.Updates()
	if err != nil {
		return errors.Wrap(err, "failed to get updates channel")
	}
	go bot.Serve(ctx, updates)

	go func() {
		ticker := time.NewTicker(metricsSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := botMetrics.Save(db); err != nil {
					log.Errorf("Failed to save metrics: %v", err)
				}
			}
		}
	}()

	srvConfig := server.Config{
		Port:     config.GetInt("metrics_port"),
		Gatherer: prometheus.DefaultGatherer,
		Status:   service,
	}
	if config.GetString("webhook_url") != "" {
		srvConfig.WebhookPath = bot.WebhookPath()
		srvConfig.Webhook = bot.WebhookHandler()
	}
	srvErr := server.New(srvConfig).Run(ctx)

	if err := botMetrics.Save(db); err != nil {
		log.Errorf("Failed to save metrics: %v", err)
	}
	log.Info("Metrics saved, shutting down...")
	return srvErr
}
