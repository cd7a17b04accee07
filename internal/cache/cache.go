package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Key spaces kept apart by the bot.
const (
	SpaceCoin    = "coin"
	SpaceGlobal  = "global"
	SpaceBinance = "binance"
)

// Single-slot keys for the global market and the Binance price table.
const (
	GlobalKey  = "global"
	BinanceKey = "bin"
)

// Entry is a cached payload and the moment it was fetched.
type Entry[T any] struct {
	Key       string
	Payload   T
	FetchedAt time.Time
}

// Cache serves payloads fetched less than window ago. Stale entries are kept
// until a new fetch overwrites them.
type Cache[T any] struct {
	space  string
	window time.Duration
	items  *gocache.Cache
	now    func() time.Time
	store  Store
}

type options struct {
	now   func() time.Time
	store Store
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithStore writes every Put through to s.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

func New[T any](space string, window time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[T]{
		space:  space,
		window: window,
		items:  gocache.New(gocache.NoExpiration, 0),
		now:    o.now,
		store:  o.store,
	}
}

// Get returns the payload for key if it was fetched strictly less than window ago.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	entry, found := c.lookup(key)
	if !found {
		return zero, false
	}
	if c.now().Sub(entry.FetchedAt) >= c.window {
		return zero, false
	}
	return entry.Payload, true
}

// Put replaces whatever is stored under key and stamps it with the current time.
func (c *Cache[T]) Put(key string, payload T) {
	entry := Entry[T]{Key: key, Payload: payload, FetchedAt: c.now()}
	c.items.Set(key, entry, gocache.NoExpiration)

	if c.store == nil {
		return
	}
	if err := c.persist(entry); err != nil {
		log.Errorf("failed to persist %s cache entry %q: %v", c.space, key, err)
	}
}

func (c *Cache[T]) Len() int {
	return c.items.ItemCount()
}

func (c *Cache[T]) Clear() {
	c.items.Flush()
}

// Restore loads the records that belong to this cache's key space.
// Records that cannot be decoded are skipped.
func (c *Cache[T]) Restore(records []Record) int {
	restored := 0
	for _, rec := range records {
		if rec.Space != c.space {
			continue
		}
		var payload T
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			log.Warnf("skipping %s cache record %q: %v", c.space, rec.Key, err)
			continue
		}
		c.items.Set(rec.Key, Entry[T]{Key: rec.Key, Payload: payload, FetchedAt: rec.FetchedAt}, gocache.NoExpiration)
		restored++
	}
	return restored
}

func (c *Cache[T]) lookup(key string) (Entry[T], bool) {
	value, found := c.items.Get(key)
	if !found {
		return Entry[T]{}, false
	}
	entry, ok := value.(Entry[T])
	return entry, ok
}

func (c *Cache[T]) persist(entry Entry[T]) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return errors.Wrap(err, "could not encode payload")
	}
	return c.store.Save(context.Background(), Record{
		Space:     c.space,
		Key:       entry.Key,
		Payload:   payload,
		FetchedAt: entry.FetchedAt,
	})
}
