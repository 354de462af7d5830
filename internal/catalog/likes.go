package catalog

import (
	"context"
)

// ToggleLike flips the caller's like on a track and reports the new state.
func (s *Store) ToggleLike(ctx context.Context, trackID, userID string) (liked bool, err error) {
	exists, err := s.Exists(ctx, trackID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrTrackNotFound
	}

	res, err := s.db.Exec(ctx, `
		DELETE FROM track_likes WHERE track_id = $1 AND user_id = $2
	`, trackID, userID)
	if err != nil {
		return false, err
	}
	if res.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO track_likes (track_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (track_id, user_id) DO NOTHING
	`, trackID, userID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) IsLiked(ctx context.Context, trackID, userID string) (bool, error) {
	var liked bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM track_likes WHERE track_id = $1 AND user_id = $2)
	`, trackID, userID).Scan(&liked)
	if err != nil {
		return false, err
	}
	return liked, nil
}

// ListLiked returns the caller's liked tracks, most recently liked first.
func (s *Store) ListLiked(ctx context.Context, userID string, limit, offset int) ([]Track, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.name, t.genre, t.band, t.image_url, t.image_file_id,
		       t.youtube_video_id, t.youtube_thumbnail_url, t.created_by,
		       t.created_at, t.updated_at
		FROM track_likes l
		JOIN tracks t ON t.id = l.track_id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks, err := collectTracks(rows, false)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		tracks[i].IsLiked = true
	}
	return tracks, nil
}
