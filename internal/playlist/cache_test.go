package playlist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func TestCachePublicListing(t *testing.T) {
	rdb, mr := setupRedis(t)
	c := NewCache(rdb)
	ctx := context.Background()

	t.Run("MissThenHit", func(t *testing.T) {
		_, ok := c.GetPublic(ctx)
		assert.False(t, ok)

		c.SetPublic(ctx, []Playlist{{ID: "pl-1", Name: "Party", IsPublic: true}})

		got, ok := c.GetPublic(ctx)
		require.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, "Party", got[0].Name)
	})

	t.Run("EntryExpires", func(t *testing.T) {
		c.SetPublic(ctx, []Playlist{{ID: "pl-1"}})
		mr.FastForward(publicListTTL * 2)

		_, ok := c.GetPublic(ctx)
		assert.False(t, ok)
	})

	t.Run("InvalidateDrops", func(t *testing.T) {
		c.SetPublic(ctx, []Playlist{{ID: "pl-1"}})
		c.InvalidatePublic(ctx)

		_, ok := c.GetPublic(ctx)
		assert.False(t, ok)
	})

	t.Run("CorruptEntryIsAMiss", func(t *testing.T) {
		mr.Set(publicListKey, "{not json")

		_, ok := c.GetPublic(ctx)
		assert.False(t, ok)
	})
}

func TestCacheNilClient(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	_, ok := c.GetPublic(ctx)
	assert.False(t, ok)
	c.SetPublic(ctx, nil)
	c.InvalidatePublic(ctx)
}

func TestEventsPublish(t *testing.T) {
	rdb, _ := setupRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "broadcast")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	e := NewEvents(rdb)
	e.Publish(ctx, map[string]any{
		"type":       "playlist.created",
		"playlistId": "pl-1",
	})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var evt map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
	assert.Equal(t, "playlist.created", evt["type"])
	assert.Equal(t, "pl-1", evt["playlistId"])
}

func TestEventsNilClientIsNoop(t *testing.T) {
	var e *Events
	e.Publish(context.Background(), map[string]any{"type": "x"})
}
