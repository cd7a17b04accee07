package commands

import (
	"context"
	"strconv"
	"strings"

	"cryptoinfo-bot/internal/cache"
	"cryptoinfo-bot/internal/format"
	"cryptoinfo-bot/internal/market"
	"cryptoinfo-bot/lib/helpers"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Info answers /info with a coin looked up by name, symbol or market cap rank.
//
// Ranked lookups are cached under the rank string, so a cached rank keeps showing
// the coin that held it at fetch time until the entry goes stale.
func (s *Service) Info(ctx context.Context, argument string) (string, error) {
	log.Debugf("processing command /info with argument :%s", argument)

	key := strings.ToLower(strings.TrimSpace(argument))
	if key == "" {
		return "", ErrUsage
	}

	byRank := helpers.IsNumeric(key)
	rank := 0
	if byRank {
		rank, _ = strconv.Atoi(key)
		if rank < MinRank || rank > MaxRank {
			return "", ErrRankRange
		}
	}

	if !s.consume("/info") {
		return "", ErrTooManyRequests
	}

	coin, found := s.coins.Get(key)
	s.recorder.CacheLookup(cache.SpaceCoin, found)
	if found {
		log.Debugf("returning cached result for %s", key)
		return format.Info(coin), nil
	}

	var fetched *market.Coin
	var err error
	if byRank {
		fetched, err = s.market.CoinByRank(ctx, rank)
	} else {
		fetched, err = s.market.CoinByQuery(ctx, key)
	}
	s.recorder.UpstreamCall(s.market.Name(), err)

	if errors.Is(err, market.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "command /info %s", key)
	}

	s.coins.Put(key, *fetched)
	return format.Info(*fetched), nil
}
