package playlist

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInvite(t *testing.T) {
	h, mock, _ := setupHandlerTest(t)
	defer mock.Close()
	now := time.Now()

	private := Playlist{
		ID: "pl-1", Name: "Shared", OwnerID: alice, IsPublic: false,
		CreatedAt: now, UpdatedAt: now,
	}

	t.Run("OwnerInvitesByEmail", func(t *testing.T) {
		expectGetPlaylist(mock, alice, private)
		mock.ExpectQuery("INSERT INTO playlist_collaborators").
			WithArgs("pl-1", bob, alice).
			WillReturnRows(collaborationRows().AddRow(
				"c-1", "pl-1", bob, alice, StatusPending, now, nil,
			))

		w := doRequest(h, "POST", "/playlists/pl-1/collaborators", alice, map[string]any{
			"email": "bob@example.com",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var c Collaboration
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		assert.Equal(t, StatusPending, c.Status)
		assert.Equal(t, "Bob", c.UserName)
		assert.Equal(t, "Alice", c.InvitedByName)
	})

	t.Run("SelfInvite", func(t *testing.T) {
		expectGetPlaylist(mock, alice, private)

		w := doRequest(h, "POST", "/playlists/pl-1/collaborators", alice, map[string]any{
			"email": "alice@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AlreadyInvited", func(t *testing.T) {
		expectGetPlaylist(mock, alice, private)
		mock.ExpectQuery("INSERT INTO playlist_collaborators").
			WithArgs("pl-1", bob, alice).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		w := doRequest(h, "POST", "/playlists/pl-1/collaborators", alice, map[string]any{
			"email": "bob@example.com",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		expectGetPlaylist(mock, alice, private)

		w := doRequest(h, "POST", "/playlists/pl-1/collaborators", alice, map[string]any{
			"email": "nobody@example.com",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("CollaboratorCannotInvite", func(t *testing.T) {
		pl := private
		pl.IsCollaborator = true
		expectGetPlaylist(mock, bob, pl)

		w := doRequest(h, "POST", "/playlists/pl-1/collaborators", bob, map[string]any{
			"email": "carol@example.com",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleListCollaborators(t *testing.T) {
	h, mock, _ := setupHandlerTest(t)
	defer mock.Close()
	now := time.Now()
	responded := now.Add(time.Minute)

	expectGetPlaylist(mock, alice, Playlist{
		ID: "pl-1", Name: "Shared", OwnerID: alice, IsPublic: false,
		CreatedAt: now, UpdatedAt: now,
	})
	// Only accepted rows count as collaborators; pending and rejected
	// invites never show up here.
	mock.ExpectQuery("AND status = 'ACCEPTED'").
		WithArgs("pl-1").
		WillReturnRows(collaborationRows().
			AddRow("c-2", "pl-1", carol, alice, StatusAccepted, now, &responded).
			AddRow("c-1", "pl-1", bob, alice, StatusAccepted, now, &responded))

	w := doRequest(h, "GET", "/playlists/pl-1/collaborators", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var collabs []Collaboration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &collabs))
	require.Len(t, collabs, 2)
	assert.Equal(t, StatusAccepted, collabs[0].Status)
	assert.Equal(t, "Carol", collabs[0].UserName)
	assert.Equal(t, "Bob", collabs[1].UserName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRemoveCollaborator(t *testing.T) {
	h, mock, _ := setupHandlerTest(t)
	defer mock.Close()
	now := time.Now()

	private := Playlist{
		ID: "pl-1", Name: "Shared", OwnerID: alice, IsPublic: false,
		CreatedAt: now, UpdatedAt: now,
	}

	t.Run("OwnerRemoves", func(t *testing.T) {
		expectGetPlaylist(mock, alice, private)
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-1").
			WillReturnRows(collaborationRows().AddRow(
				"c-1", "pl-1", bob, alice, StatusAccepted, now, nil,
			))
		mock.ExpectExec("DELETE FROM playlist_collaborators").
			WithArgs("c-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		w := doRequest(h, "DELETE", "/playlists/pl-1/collaborators/c-1", alice, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("PlaylistMismatch", func(t *testing.T) {
		expectGetPlaylist(mock, alice, private)
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-9").
			WillReturnRows(collaborationRows().AddRow(
				"c-9", "other-playlist", bob, alice, StatusAccepted, now, nil,
			))

		w := doRequest(h, "DELETE", "/playlists/pl-1/collaborators/c-9", alice, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleMyInvites(t *testing.T) {
	h, mock, _ := setupHandlerTest(t)
	defer mock.Close()
	now := time.Now()

	mock.ExpectQuery("SELECT c.id, c.playlist_id, p.name").
		WithArgs(bob).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "playlist_id", "name", "image_url", "invited_by", "status", "invited_at",
		}).AddRow("c-1", "pl-1", "Road Trip", "", alice, StatusPending, now))

	w := doRequest(h, "GET", "/collaborator-invites", bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var invites []Invite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invites))
	require.Len(t, invites, 1)
	assert.Equal(t, "Road Trip", invites[0].PlaylistName)
	assert.Equal(t, "Alice", invites[0].InvitedByName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRespond(t *testing.T) {
	h, mock, _ := setupHandlerTest(t)
	defer mock.Close()
	now := time.Now()

	t.Run("InviteeAccepts", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-1").
			WillReturnRows(collaborationRows().AddRow(
				"c-1", "pl-1", bob, alice, StatusPending, now, nil,
			))
		mock.ExpectExec("UPDATE playlist_collaborators").
			WithArgs("c-1", StatusAccepted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		w := doRequest(h, "POST", "/collaborator-invites/c-1/accept", bob, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("InviteeRejects", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-2").
			WillReturnRows(collaborationRows().AddRow(
				"c-2", "pl-1", bob, alice, StatusPending, now, nil,
			))
		mock.ExpectExec("UPDATE playlist_collaborators").
			WithArgs("c-2", StatusRejected).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		w := doRequest(h, "POST", "/collaborator-invites/c-2/reject", bob, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("OnlyInviteeMayRespond", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-1").
			WillReturnRows(collaborationRows().AddRow(
				"c-1", "pl-1", bob, alice, StatusPending, now, nil,
			))

		w := doRequest(h, "POST", "/collaborator-invites/c-1/accept", carol, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("AlreadySettled", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-1").
			WillReturnRows(collaborationRows().AddRow(
				"c-1", "pl-1", bob, alice, StatusAccepted, now, nil,
			))
		mock.ExpectExec("UPDATE playlist_collaborators").
			WithArgs("c-1", StatusAccepted).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT id, playlist_id, user_id").
			WithArgs("c-1").
			WillReturnRows(collaborationRows().AddRow(
				"c-1", "pl-1", bob, alice, StatusAccepted, now, nil,
			))

		w := doRequest(h, "POST", "/collaborator-invites/c-1/accept", bob, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
