package playlist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CreateInvite records a PENDING collaboration. The UNIQUE constraint on
// (playlist_id, user_id) means a user can be invited to a playlist exactly
// once, whatever the current status: a rejected invite stays on record and
// blocks re-invitation.
func (s *PostgresStore) CreateInvite(ctx context.Context, playlistID, userID, invitedBy string) (Collaboration, error) {
	var c Collaboration
	err := s.db.QueryRow(ctx, `
		INSERT INTO playlist_collaborators (playlist_id, user_id, invited_by, status)
		VALUES ($1, $2, $3, 'PENDING')
		RETURNING id, playlist_id, user_id, invited_by, status, invited_at, responded_at
	`, playlistID, userID, invitedBy).Scan(
		&c.ID, &c.PlaylistID, &c.UserID, &c.InvitedBy, &c.Status, &c.InvitedAt, &c.RespondedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Collaboration{}, ErrAlreadyInvited
		}
		return Collaboration{}, err
	}
	return c, nil
}

func (s *PostgresStore) GetCollaboration(ctx context.Context, id string) (Collaboration, error) {
	var c Collaboration
	err := s.db.QueryRow(ctx, `
		SELECT id, playlist_id, user_id, invited_by, status, invited_at, responded_at
		FROM playlist_collaborators
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.PlaylistID, &c.UserID, &c.InvitedBy, &c.Status, &c.InvitedAt, &c.RespondedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Collaboration{}, ErrCollaborationNotFound
	}
	if err != nil {
		return Collaboration{}, err
	}
	return c, nil
}

// Respond flips a PENDING invite to ACCEPTED or REJECTED. The status guard
// in the WHERE clause makes the transition a compare-and-swap: two racing
// responses cannot both win, and a settled invite never changes again.
func (s *PostgresStore) Respond(ctx context.Context, id, status string) error {
	res, err := s.db.Exec(ctx, `
		UPDATE playlist_collaborators
		SET status = $2, responded_at = now()
		WHERE id = $1 AND status = 'PENDING'
	`, id, status)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// Either the invite is gone or it was already settled.
		if _, err := s.GetCollaboration(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyResponded
	}
	return nil
}

func (s *PostgresStore) DeleteCollaboration(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx, `
		DELETE FROM playlist_collaborators WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrCollaborationNotFound
	}
	return nil
}

// ListCollaborations returns the playlist's accepted collaborations, newest
// first. PENDING and REJECTED rows are invites, not collaborators, and stay
// out of the listing.
func (s *PostgresStore) ListCollaborations(ctx context.Context, playlistID string) ([]Collaboration, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, playlist_id, user_id, invited_by, status, invited_at, responded_at
		FROM playlist_collaborators
		WHERE playlist_id = $1 AND status = 'ACCEPTED'
		ORDER BY invited_at DESC
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collabs := []Collaboration{}
	for rows.Next() {
		var c Collaboration
		if err := rows.Scan(
			&c.ID, &c.PlaylistID, &c.UserID, &c.InvitedBy, &c.Status, &c.InvitedAt, &c.RespondedAt,
		); err != nil {
			return nil, err
		}
		collabs = append(collabs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return collabs, nil
}

// ListPendingFor returns the user's open invites enriched with playlist
// name and cover so the client can render them without extra lookups.
func (s *PostgresStore) ListPendingFor(ctx context.Context, userID string) ([]Invite, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.playlist_id, p.name, p.image_url, c.invited_by, c.status, c.invited_at
		FROM playlist_collaborators c
		JOIN playlists p ON p.id = c.playlist_id
		WHERE c.user_id = $1 AND c.status = 'PENDING'
		ORDER BY c.invited_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []Invite{}
	for rows.Next() {
		var inv Invite
		if err := rows.Scan(
			&inv.ID, &inv.PlaylistID, &inv.PlaylistName, &inv.PlaylistImageURL,
			&inv.InvitedBy, &inv.Status, &inv.InvitedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}
