package commands

import (
	"context"
	"strings"

	"cryptoinfo-bot/internal/cache"
	"cryptoinfo-bot/internal/format"
	"cryptoinfo-bot/lib/helpers"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Ticker answers /<symbol> with the symbol's Binance pairs. The whole price table
// is cached as one entry and filtered per request.
func (s *Service) Ticker(ctx context.Context, symbol string) (string, error) {
	log.Debugf("processing ticker command with argument :%s", symbol)

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", ErrUsage
	}
	if helpers.IsNumeric(symbol) {
		return "", ErrNumericTicker
	}

	if !s.consume("/" + strings.ToLower(symbol)) {
		return "", ErrTooManyRequests
	}

	prices, found := s.tickers.Get(cache.BinanceKey)
	s.recorder.CacheLookup(cache.SpaceBinance, found)
	if !found {
		var err error
		prices, err = s.prices.Prices(ctx)
		s.recorder.UpstreamCall(binanceSource, err)
		if err != nil {
			return "", errors.Wrap(err, "ticker command")
		}
		s.tickers.Put(cache.BinanceKey, prices)
	}

	text, ok := format.Ticker(prices, symbol)
	if !ok {
		return "", ErrTickerNotFound
	}
	return text, nil
}

// Help is the /start text.
func Help() string {
	return "/info <name> for information on the coin with that name\n" +
		"/info <rank> for information on the coin with that rank\n" +
		"/global for total market information\n" +
		"/<ticker> for latest Binance ticker price"
}

// Chart answers the retired /chart command.
func Chart(argument string) string {
	log.Debugf("processing deprecated command /chart with argument :%s", argument)
	return "Deprecated"
}
