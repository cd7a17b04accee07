package commands

import (
	"context"
	"time"

	"cryptoinfo-bot/internal/cache"
	"cryptoinfo-bot/internal/exchange"
	"cryptoinfo-bot/internal/market"
	"cryptoinfo-bot/internal/ratelimit"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Errors with a fixed user-facing reply.
var (
	ErrUsage           = errors.New("missing argument")
	ErrTooManyRequests = errors.New("too many requests")
	ErrNotFound        = errors.New("currency not found")
	ErrRankRange       = errors.New("rank out of range")
	ErrNumericTicker   = errors.New("ticker is a number")
	ErrTickerNotFound  = errors.New("ticker not found")
)

const (
	MinRank = 1
	MaxRank = 100

	binanceSource = "Binance"
)

// MarketSource looks up coins and the global market snapshot.
type MarketSource interface {
	Name() string
	CoinByQuery(ctx context.Context, query string) (*market.Coin, error)
	CoinByRank(ctx context.Context, rank int) (*market.Coin, error)
	Global(ctx context.Context) (*market.Global, error)
}

// PriceSource returns the whole exchange price table in one call.
type PriceSource interface {
	Prices(ctx context.Context) (exchange.Prices, error)
}

// Recorder is told about cache lookups, upstream calls and rejected requests.
type Recorder interface {
	CacheLookup(space string, hit bool)
	UpstreamCall(source string, err error)
	RateLimited(command string)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, bool)   {}
func (nopRecorder) UpstreamCall(string, error) {}
func (nopRecorder) RateLimited(string)         {}

type Config struct {
	Limiter  *ratelimit.Limiter
	Market   MarketSource
	Prices   PriceSource
	Recorder Recorder

	// CacheTTL is the freshness window shared by every cache.
	CacheTTL time.Duration
	// ClearInterval empties all caches periodically when positive.
	ClearInterval time.Duration
	// Store, when set, receives every cache write.
	Store cache.Store
	Clock func() time.Time
}

// Service owns the state shared by every chat: the call limiter and the caches in
// front of the upstream APIs. One Service lives for the whole process.
type Service struct {
	limiter       *ratelimit.Limiter
	market        MarketSource
	prices        PriceSource
	recorder      Recorder
	clearInterval time.Duration

	coins   *cache.Cache[market.Coin]
	global  *cache.Cache[market.Global]
	tickers *cache.Cache[exchange.Prices]
}

func NewService(c Config) *Service {
	var opts []cache.Option
	if c.Clock != nil {
		opts = append(opts, cache.WithClock(c.Clock))
	}
	if c.Store != nil {
		opts = append(opts, cache.WithStore(c.Store))
	}

	recorder := c.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Service{
		limiter:       c.Limiter,
		market:        c.Market,
		prices:        c.Prices,
		recorder:      recorder,
		clearInterval: c.ClearInterval,
		coins:         cache.New[market.Coin](cache.SpaceCoin, c.CacheTTL, opts...),
		global:        cache.New[market.Global](cache.SpaceGlobal, c.CacheTTL, opts...),
		tickers:       cache.New[exchange.Prices](cache.SpaceBinance, c.CacheTTL, opts...),
	}
}

// Restore loads persisted entries into the caches.
func (s *Service) Restore(ctx context.Context, store cache.Store) error {
	records, err := store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "could not load cache")
	}

	coins := s.coins.Restore(records)
	global := s.global.Restore(records)
	tickers := s.tickers.Restore(records)
	log.Debugf("Restored %d coin, %d global and %d ticker cache entries", coins, global, tickers)
	return nil
}

// Run empties the caches every ClearInterval until ctx is done.
// It returns at once when periodic clearing is disabled.
func (s *Service) Run(ctx context.Context) {
	if s.clearInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.clearInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ClearCaches()
		}
	}
}

func (s *Service) ClearCaches() {
	s.coins.Clear()
	s.global.Clear()
	s.tickers.Clear()
	log.Debug("Caches cleared")
}

// Stats describes the shared state for the status endpoint.
type Stats struct {
	CoinEntries    int `json:"coin_entries"`
	GlobalEntries  int `json:"global_entries"`
	TickerEntries  int `json:"ticker_entries"`
	RemainingCalls int `json:"remaining_calls"`
}

func (s *Service) Stats() Stats {
	return Stats{
		CoinEntries:    s.coins.Len(),
		GlobalEntries:  s.global.Len(),
		TickerEntries:  s.tickers.Len(),
		RemainingCalls: s.limiter.Remaining(),
	}
}

func (s *Service) consume(command string) bool {
	if s.limiter.TryConsume() {
		return true
	}
	log.Debugf("rate limit reached, rejecting %s", command)
	s.recorder.RateLimited(command)
	return false
}
