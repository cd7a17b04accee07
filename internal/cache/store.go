package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ErrCorrupt is returned when persisted cache content cannot be parsed.
var ErrCorrupt = errors.New("corrupt cache")

// Record is one persisted cache entry.
type Record struct {
	Space     string          `json:"space"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Store persists cache entries between restarts.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
	Close() error
}
