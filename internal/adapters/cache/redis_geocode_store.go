package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisGeocodePrefix = "geocode:"

type redisGeocodeValue struct {
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// RedisGeocodeStore keeps one JSON value per address under the geocode:
// prefix. Writes use SETNX so an existing entry always wins. Absent entries
// expire after negativeTTL when it is set.
type RedisGeocodeStore struct {
	client      redis.Cmdable
	negativeTTL time.Duration
}

func NewRedisGeocodeStore(client redis.Cmdable, negativeTTL time.Duration) *RedisGeocodeStore {
	return &RedisGeocodeStore{client: client, negativeTTL: negativeTTL}
}

func (s *RedisGeocodeStore) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.GeocodeEntry, err error) {
	defer obs.Time(ctx, "geocode.redis.GetMany")(&err)

	if s.client == nil {
		return nil, errors.New("geocode store: redis client is nil")
	}

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.GeocodeEntry{}, nil
	}

	keys := make([]string, len(uniq))
	for i, a := range uniq {
		keys[i] = redisGeocodePrefix + a
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode store: mget: %w", err)
	}

	out := make(map[string]domain.GeocodeEntry, len(uniq))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}

		// An undecodable value is a miss for its key only.
		var stored redisGeocodeValue
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			logger.WarnContext(ctx, "skipping undecodable geocode entry",
				zap.String("address", uniq[i]), zap.Error(err))
			continue
		}

		e := domain.GeocodeEntry{Address: uniq[i], ResolvedAt: stored.ResolvedAt}
		if stored.Lat != nil && stored.Lon != nil {
			e.Coords = &domain.Coordinates{Lat: *stored.Lat, Lon: *stored.Lon}
		}
		out[uniq[i]] = e
	}

	return out, nil
}

func (s *RedisGeocodeStore) PutMany(ctx context.Context, entries []domain.GeocodeEntry) (err error) {
	defer obs.Time(ctx, "geocode.redis.PutMany")(&err)

	if s.client == nil {
		return errors.New("geocode store: redis client is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, e := range entries {
		if e.Address == "" {
			return errors.New("insert geocode store: empty address key")
		}

		v := redisGeocodeValue{ResolvedAt: e.ResolvedAt.UTC()}
		var ttl time.Duration
		if e.Coords != nil {
			lat, lon := e.Coords.Lat, e.Coords.Lon
			v.Lat, v.Lon = &lat, &lon
		} else {
			ttl = s.negativeTTL
		}

		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("insert geocode store: encode %q: %w", e.Address, err)
		}
		pipe.SetNX(ctx, redisGeocodePrefix+e.Address, b, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode store: exec pipeline: %w", err)
	}
	return nil
}
