package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	publicListKey = "playlists:public"
	publicListTTL = 30 * time.Second
)

// Cache is a read-through cache for the public playlist listing, the one
// query anonymous clients hammer. Everything else goes straight to Postgres.
// Cache failures degrade to a database read, never to an error.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) GetPublic(ctx context.Context) ([]Playlist, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, publicListKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("playlist-service: cache get: %v", err)
		}
		return nil, false
	}
	var playlists []Playlist
	if err := json.Unmarshal(data, &playlists); err != nil {
		log.Printf("playlist-service: cache decode: %v", err)
		return nil, false
	}
	return playlists, true
}

func (c *Cache) SetPublic(ctx context.Context, playlists []Playlist) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(playlists)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, publicListKey, data, publicListTTL).Err(); err != nil {
		log.Printf("playlist-service: cache set: %v", err)
	}
}

// InvalidatePublic drops the cached listing after any mutation that could
// change what the public sees.
func (c *Cache) InvalidatePublic(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, publicListKey).Err(); err != nil {
		log.Printf("playlist-service: cache invalidate: %v", err)
	}
}
