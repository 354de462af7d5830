package playlist

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AutoMigrate creates the playlist tables. It expects the catalog tables
// (tracks) to exist already, so the catalog migration must run first.
func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		log.Printf("playlist-service: migrate pgcrypto: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlists (
          id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          owner_id      TEXT NOT NULL,
          name          TEXT NOT NULL,
          image_url     TEXT NOT NULL DEFAULT '',
          image_file_id TEXT NOT NULL DEFAULT '',
          is_public     BOOLEAN NOT NULL DEFAULT FALSE,
          created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
          updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("playlist-service: migrate playlists: %v", err)
		return err
	}

	// No ON DELETE CASCADE on playlist_id: playlist deletion removes its
	// rows explicitly inside one transaction with the collaborator rows.
	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_tracks (
          playlist_id uuid NOT NULL REFERENCES playlists(id),
          track_id    TEXT NOT NULL REFERENCES tracks(id),
          position    INT NOT NULL,
          added_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
          UNIQUE (playlist_id, track_id)
      )
    `); err != nil {
		log.Printf("playlist-service: migrate playlist_tracks: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS idx_playlist_tracks_position
      ON playlist_tracks(playlist_id, position)
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS playlist_collaborators (
          id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          playlist_id  uuid NOT NULL REFERENCES playlists(id),
          user_id      TEXT NOT NULL,
          invited_by   TEXT NOT NULL,
          status       TEXT NOT NULL DEFAULT 'PENDING',
          invited_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
          responded_at TIMESTAMPTZ,
          UNIQUE (playlist_id, user_id)
      )
    `); err != nil {
		log.Printf("playlist-service: migrate playlist_collaborators: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_collaborators_user
      ON playlist_collaborators(user_id, status)
    `); err != nil {
		return err
	}

	return nil
}
