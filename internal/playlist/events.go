package playlist

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Events publishes domain events to the shared "broadcast" channel.
// Publishing is best effort: a down Redis never fails the request.
type Events struct {
	rdb *redis.Client
}

func NewEvents(rdb *redis.Client) *Events {
	return &Events{rdb: rdb}
}

func (e *Events) Publish(ctx context.Context, event map[string]any) {
	if e == nil || e.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("playlist-service: marshal event: %v", err)
		return
	}
	if err := e.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("playlist-service: publish event: %v", err)
	}
}
