package listings

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/parkspot/reservations/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis decorator over a Directory. Space records are
// small and change rarely, so a short TTL keeps rates fresh enough. Cache
// failures fall back to the inner directory and never fail a booking.
type Cache struct {
	client *redis.Client
	inner  Directory
	ttl    time.Duration
	logger *log.Logger
}

func NewCache(client *redis.Client, inner Directory, ttl time.Duration, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) Space(ctx context.Context, id string) (domain.ParkingSpace, error) {
	key := cacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var space domain.ParkingSpace
		if jerr := json.Unmarshal(data, &space); jerr == nil {
			return space, nil
		}
		c.logger.Printf("WARN: listings cache entry for %s is malformed, refetching", id)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Printf("WARN: listings cache get: %v", err)
	}

	space, err := c.inner.Space(ctx, id)
	if err != nil {
		return domain.ParkingSpace{}, err
	}

	payload, err := json.Marshal(space)
	if err == nil {
		if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Printf("WARN: listings cache set: %v", serr)
		}
	}
	return space, nil
}

func cacheKey(id string) string {
	return "listings:space:" + id
}
