package catalog

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS tracks (
          id         TEXT PRIMARY KEY,
          name       TEXT NOT NULL,
          genre      TEXT NOT NULL,
          band       TEXT NOT NULL,
          image_url  TEXT NOT NULL DEFAULT '',
          image_file_id TEXT NOT NULL DEFAULT '',
          youtube_video_id TEXT NOT NULL DEFAULT '',
          youtube_thumbnail_url TEXT NOT NULL DEFAULT '',
          created_by TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (name, band, genre)
      )
    `)
	if err != nil {
		log.Printf("migrate tracks: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS track_likes (
          track_id   TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
          user_id    TEXT NOT NULL,
          created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
          PRIMARY KEY (track_id, user_id)
      )
    `); err != nil {
		log.Printf("migrate track_likes: %v", err)
		return err
	}

	return nil
}
