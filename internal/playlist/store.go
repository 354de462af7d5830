package playlist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrPlaylistNotFound      = errors.New("playlist not found")
	ErrDuplicateTrack        = errors.New("track is already in the playlist")
	ErrTrackNotInPlaylist    = errors.New("track is not in the playlist")
	ErrAlreadyInvited        = errors.New("user has already been invited to this playlist")
	ErrCollaborationNotFound = errors.New("collaboration not found")
	ErrAlreadyResponded      = errors.New("invite has already been responded to")
)

// PostgresStore holds the durable state of all three subsystems: playlists,
// track memberships and collaborations. Uniqueness invariants live in the
// schema, not here; application-level checks are fast paths only.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const playlistColumns = `p.id, p.name, p.owner_id, p.image_url, p.image_file_id,
	       p.is_public, p.created_at, p.updated_at,
	       (SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id) AS track_count,
	       (c.user_id IS NOT NULL) AS is_collaborator`

const playlistJoin = `FROM playlists p
	LEFT JOIN playlist_collaborators c
	  ON c.playlist_id = p.id AND c.user_id = $1 AND c.status = 'ACCEPTED'`

func (s *PostgresStore) CreatePlaylist(ctx context.Context, pl *Playlist) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO playlists (owner_id, name, image_url, image_file_id, is_public)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at
	`, pl.OwnerID, pl.Name, pl.ImageURL, pl.ImageFileID, pl.IsPublic).Scan(
		&pl.ID, &pl.CreatedAt, &pl.UpdatedAt,
	)
}

// GetPlaylist loads one playlist with the caller-dependent derived fields.
// callerID may be empty for anonymous reads.
func (s *PostgresStore) GetPlaylist(ctx context.Context, playlistID, callerID string) (Playlist, error) {
	var pl Playlist
	err := s.db.QueryRow(ctx, `
		SELECT `+playlistColumns+`
		`+playlistJoin+`
		WHERE p.id = $2
	`, callerID, playlistID).Scan(
		&pl.ID, &pl.Name, &pl.OwnerID, &pl.ImageURL, &pl.ImageFileID,
		&pl.IsPublic, &pl.CreatedAt, &pl.UpdatedAt,
		&pl.TrackCount, &pl.IsCollaborator,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return Playlist{}, err
	}
	return pl, nil
}

// SavePlaylist persists the mutable attributes (name, image, visibility)
// and bumps updated_at.
func (s *PostgresStore) SavePlaylist(ctx context.Context, pl *Playlist) error {
	res, err := s.db.Exec(ctx, `
		UPDATE playlists
		SET name = $2,
			image_url = $3,
			image_file_id = $4,
			is_public = $5,
			updated_at = now()
		WHERE id = $1
	`, pl.ID, pl.Name, pl.ImageURL, pl.ImageFileID, pl.IsPublic)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// TouchPlaylist bumps updated_at after a membership mutation.
func (s *PostgresStore) TouchPlaylist(ctx context.Context, playlistID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE playlists SET updated_at = now() WHERE id = $1
	`, playlistID)
	return err
}

// DeletePlaylistCascade removes the playlist and everything it owns in one
// transaction: membership rows first, collaboration rows second, the
// playlist row last. All-or-nothing.
func (s *PostgresStore) DeletePlaylistCascade(ctx context.Context, playlistID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM playlist_tracks WHERE playlist_id = $1
	`, playlistID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM playlist_collaborators WHERE playlist_id = $1
	`, playlistID); err != nil {
		return err
	}

	res, err := tx.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, playlistID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrPlaylistNotFound
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListPublic(ctx context.Context) ([]Playlist, error) {
	return s.listPlaylists(ctx, `WHERE p.is_public = TRUE`, "")
}

// ListMine returns playlists the user owns plus those they collaborate on
// (ACCEPTED only), newest first.
func (s *PostgresStore) ListMine(ctx context.Context, userID string) ([]Playlist, error) {
	return s.listPlaylists(ctx, `WHERE p.owner_id = $1 OR c.user_id IS NOT NULL`, userID)
}

// ListAccessible returns public plus owned plus collaborated. The collaborator
// join is unique per (playlist, user), so no deduplication is needed.
func (s *PostgresStore) ListAccessible(ctx context.Context, userID string) ([]Playlist, error) {
	return s.listPlaylists(ctx,
		`WHERE p.is_public = TRUE OR p.owner_id = $1 OR c.user_id IS NOT NULL`, userID)
}

func (s *PostgresStore) listPlaylists(ctx context.Context, where, userID string) ([]Playlist, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+playlistColumns+`
		`+playlistJoin+`
		`+where+`
		ORDER BY p.created_at DESC
		LIMIT 200
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		var pl Playlist
		if err := rows.Scan(
			&pl.ID, &pl.Name, &pl.OwnerID, &pl.ImageURL, &pl.ImageFileID,
			&pl.IsPublic, &pl.CreatedAt, &pl.UpdatedAt,
			&pl.TrackCount, &pl.IsCollaborator,
		); err != nil {
			return nil, err
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return playlists, nil
}
