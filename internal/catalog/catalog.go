package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Track is a catalog entry, independent of any playlist. IDs are assigned
// by this service (uuid strings) so external references stay stable.
type Track struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Genre               string    `json:"genre"`
	Band                string    `json:"band"`
	ImageURL            string    `json:"imageUrl,omitempty"`
	ImageFileID         string    `json:"imageFileId,omitempty"`
	YoutubeVideoID      string    `json:"youtubeVideoId,omitempty"`
	YoutubeThumbnailURL string    `json:"youtubeThumbnailUrl,omitempty"`
	CreatedBy           string    `json:"createdBy"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	IsLiked             bool      `json:"isLiked,omitempty"`
}

var (
	ErrTrackNotFound  = errors.New("track not found")
	ErrDuplicateTrack = errors.New("a track with this name, band and genre already exists")
	ErrTrackInUse     = errors.New("track is referenced by one or more playlists")
)

// DB is the subset of pgxpool.Pool the catalog store needs. pgxmock
// implements it too.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

const trackColumns = `id, name, genre, band, image_url, image_file_id,
	       youtube_video_id, youtube_thumbnail_url, created_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, tr *Track) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tracks (id, name, genre, band, image_url, image_file_id,
		                    youtube_video_id, youtube_thumbnail_url, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tr.ID, tr.Name, tr.Genre, tr.Band, tr.ImageURL, tr.ImageFileID,
		tr.YoutubeVideoID, tr.YoutubeThumbnailURL, tr.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTrack
		}
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Track, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+trackColumns+`
		FROM tracks
		WHERE id = $1
	`, id)
	return scanTrack(row)
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM tracks WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// List returns catalog tracks newest first. When userID is set, each track
// carries the caller's like flag.
func (s *Store) List(ctx context.Context, userID string, limit, offset int) ([]Track, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.name, t.genre, t.band, t.image_url, t.image_file_id,
		       t.youtube_video_id, t.youtube_thumbnail_url, t.created_by,
		       t.created_at, t.updated_at,
		       (l.user_id IS NOT NULL) AS is_liked
		FROM tracks t
		LEFT JOIN track_likes l ON l.track_id = t.id AND l.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows, true)
}

// Delete removes a catalog track. Fails with ErrTrackInUse while any
// playlist still references it; membership rows own that decision, not a
// cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	var referenced bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM playlist_tracks WHERE track_id = $1)
	`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return ErrTrackInUse
	}

	res, err := s.db.Exec(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	if err != nil {
		// A membership row inserted after the check above trips the
		// playlist_tracks foreign key.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTrackInUse
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrTrackNotFound
	}
	return nil
}

func scanTrack(row pgx.Row) (Track, error) {
	var tr Track
	err := row.Scan(
		&tr.ID, &tr.Name, &tr.Genre, &tr.Band, &tr.ImageURL, &tr.ImageFileID,
		&tr.YoutubeVideoID, &tr.YoutubeThumbnailURL, &tr.CreatedBy,
		&tr.CreatedAt, &tr.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Track{}, ErrTrackNotFound
	}
	if err != nil {
		return Track{}, err
	}
	return tr, nil
}

func collectTracks(rows pgx.Rows, withLiked bool) ([]Track, error) {
	tracks := []Track{}
	for rows.Next() {
		var tr Track
		dest := []any{
			&tr.ID, &tr.Name, &tr.Genre, &tr.Band, &tr.ImageURL, &tr.ImageFileID,
			&tr.YoutubeVideoID, &tr.YoutubeThumbnailURL, &tr.CreatedBy,
			&tr.CreatedAt, &tr.UpdatedAt,
		}
		if withLiked {
			dest = append(dest, &tr.IsLiked)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		tracks = append(tracks, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}
