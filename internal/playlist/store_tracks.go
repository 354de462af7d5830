package playlist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AddTrack appends a track to the playlist at max(position)+1 and returns
// the assigned position. The playlist row is locked for the duration so
// concurrent adds cannot compute the same position; the UNIQUE constraint
// on (playlist_id, track_id) is the real duplicate guard, the existence
// check is just a fast path.
func (s *PostgresStore) AddTrack(ctx context.Context, playlistID, trackID string) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var lockedID string
	err = tx.QueryRow(ctx, `
		SELECT id FROM playlists WHERE id = $1 FOR UPDATE
	`, playlistID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPlaylistNotFound
	}
	if err != nil {
		return 0, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM playlist_tracks WHERE playlist_id = $1 AND track_id = $2)
	`, playlistID, trackID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrDuplicateTrack
	}

	var position int
	err = tx.QueryRow(ctx, `
		INSERT INTO playlist_tracks (playlist_id, track_id, position)
		VALUES (
			$1, $2,
			COALESCE((SELECT MAX(position)+1 FROM playlist_tracks WHERE playlist_id = $1), 0)
		)
		RETURNING position
	`, playlistID, trackID).Scan(&position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateTrack
		}
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE playlists SET updated_at = now() WHERE id = $1
	`, playlistID); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return position, nil
}

// RemoveTrack deletes one membership row. Remaining positions are left
// untouched: position is an insertion-order marker, and listing order does
// not depend on the sequence being dense.
func (s *PostgresStore) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	res, err := s.db.Exec(ctx, `
		DELETE FROM playlist_tracks
		WHERE playlist_id = $1 AND track_id = $2
	`, playlistID, trackID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrTrackNotInPlaylist
	}
	return s.TouchPlaylist(ctx, playlistID)
}

// ListTracks returns the playlist's tracks with catalog metadata, ordered
// by position ascending. This is the authoritative order shown to viewers.
func (s *PostgresStore) ListTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	rows, err := s.db.Query(ctx, `
		SELECT pt.track_id, t.name, t.genre, t.band, t.image_url,
		       t.youtube_video_id, t.youtube_thumbnail_url,
		       pt.position, pt.added_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = $1
		ORDER BY pt.position ASC
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []PlaylistTrack{}
	for rows.Next() {
		var tr PlaylistTrack
		if err := rows.Scan(
			&tr.TrackID, &tr.Name, &tr.Genre, &tr.Band, &tr.ImageURL,
			&tr.YoutubeVideoID, &tr.YoutubeThumbnailURL,
			&tr.Position, &tr.AddedAt,
		); err != nil {
			return nil, err
		}
		tracks = append(tracks, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}
