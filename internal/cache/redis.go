package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding every entry.
const DefaultRedisKey = "cryptoinfo:cache"

// Redis stores entries as fields "<space>/<key>" of a single hash, so several bot
// replicas can share one cache snapshot.
type Redis struct {
	client *redis.Client
	key    string
}

type redisValue struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt int64           `json:"fetched_at"`
}

func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Load(ctx context.Context) ([]Record, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "could not read hash %s", r.key)
	}

	records := make([]Record, 0, len(values))
	for field, value := range values {
		rec, err := decodeRedisField(field, value)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "%s field %q: %v", r.key, field, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Redis) Save(ctx context.Context, rec Record) error {
	field, value, err := encodeRedisField(rec)
	if err != nil {
		return err
	}
	return errors.Wrapf(r.client.HSet(ctx, r.key, field, value).Err(), "could not write %s", field)
}

func (r *Redis) Clear(ctx context.Context) error {
	return errors.Wrapf(r.client.Del(ctx, r.key).Err(), "could not delete %s", r.key)
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func encodeRedisField(rec Record) (string, string, error) {
	data, err := json.Marshal(redisValue{Payload: rec.Payload, FetchedAt: rec.FetchedAt.UnixMilli()})
	if err != nil {
		return "", "", errors.Wrap(err, "could not encode record")
	}
	return rec.Space + "/" + rec.Key, string(data), nil
}

func decodeRedisField(field, value string) (Record, error) {
	space, key, ok := strings.Cut(field, "/")
	if !ok {
		return Record{}, errors.New("missing space prefix")
	}

	var v redisValue
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return Record{}, err
	}
	return Record{
		Space:     space,
		Key:       key,
		Payload:   v.Payload,
		FetchedAt: time.UnixMilli(v.FetchedAt).UTC(),
	}, nil
}
