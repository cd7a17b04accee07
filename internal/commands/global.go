package commands

import (
	"context"

	"cryptoinfo-bot/internal/cache"
	"cryptoinfo-bot/internal/format"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Global answers /global with the total market snapshot.
func (s *Service) Global(ctx context.Context) (string, error) {
	log.Debug("processing command /global")

	if !s.consume("/global") {
		return "", ErrTooManyRequests
	}

	snapshot, found := s.global.Get(cache.GlobalKey)
	s.recorder.CacheLookup(cache.SpaceGlobal, found)
	if found {
		return format.Global(snapshot), nil
	}

	fetched, err := s.market.Global(ctx)
	s.recorder.UpstreamCall(s.market.Name(), err)
	if err != nil {
		return "", errors.Wrap(err, "command /global")
	}

	s.global.Put(cache.GlobalKey, *fetched)
	return format.Global(*fetched), nil
}
