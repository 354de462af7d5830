package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockServer(t *testing.T) (http.Handler, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewServer(NewStore(mock)).Router(), mock
}

func doRequest(h http.Handler, method, url, userID string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, rd)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func trackRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "genre", "band", "image_url", "image_file_id",
		"youtube_video_id", "youtube_thumbnail_url", "created_by",
		"created_at", "updated_at",
	})
}

const creator = "11111111-1111-1111-1111-111111111111"

func TestHandleCreateTrack(t *testing.T) {
	h, mock := setupMockServer(t)
	defer mock.Close()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO tracks").
			WithArgs(pgxmock.AnyArg(), "Kashmir", "Rock", "Led Zeppelin",
				"", "", "dQw4w9WgXcQ", "", creator).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("SELECT id, name, genre, band").
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(trackRows().AddRow(
				"tr-1", "Kashmir", "Rock", "Led Zeppelin", "", "",
				"dQw4w9WgXcQ", "", creator, now, now,
			))

		w := doRequest(h, "POST", "/tracks", creator, map[string]any{
			"name":           "Kashmir",
			"genre":          "Rock",
			"band":           "Led Zeppelin",
			"youtubeVideoId": "dQw4w9WgXcQ",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var tr Track
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
		assert.Equal(t, "Kashmir", tr.Name)
		assert.Equal(t, creator, tr.CreatedBy)
	})

	t.Run("DuplicateTriple", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO tracks").
			WithArgs(pgxmock.AnyArg(), "Kashmir", "Rock", "Led Zeppelin",
				"", "", "", "", creator).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		w := doRequest(h, "POST", "/tracks", creator, map[string]any{
			"name":  "Kashmir",
			"genre": "Rock",
			"band":  "Led Zeppelin",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		w := doRequest(h, "POST", "/tracks", creator, map[string]any{
			"name": "Kashmir",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		w := doRequest(h, "POST", "/tracks", "", map[string]any{
			"name": "X", "genre": "Y", "band": "Z",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleGetTrack(t *testing.T) {
	h, mock := setupMockServer(t)
	defer mock.Close()
	now := time.Now()

	t.Run("FoundWithLikeFlag", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, genre, band").
			WithArgs("tr-1").
			WillReturnRows(trackRows().AddRow(
				"tr-1", "Kashmir", "Rock", "Led Zeppelin", "", "", "", "",
				creator, now, now,
			))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tr-1", creator).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		w := doRequest(h, "GET", "/tracks/tr-1", creator, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var tr Track
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
		assert.True(t, tr.IsLiked)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, genre, band").
			WithArgs("missing").
			WillReturnRows(trackRows())

		w := doRequest(h, "GET", "/tracks/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleDeleteTrack(t *testing.T) {
	h, mock := setupMockServer(t)
	defer mock.Close()
	now := time.Now()

	existing := func(id, owner string) {
		mock.ExpectQuery("SELECT id, name, genre, band").
			WithArgs(id).
			WillReturnRows(trackRows().AddRow(
				id, "Song", "Rock", "Band", "", "", "", "", owner, now, now,
			))
	}

	t.Run("CreatorDeletesUnreferenced", func(t *testing.T) {
		existing("tr-1", creator)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tr-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("DELETE FROM tracks").
			WithArgs("tr-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		w := doRequest(h, "DELETE", "/tracks/tr-1", creator, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("InUseConflicts", func(t *testing.T) {
		existing("tr-1", creator)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tr-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		w := doRequest(h, "DELETE", "/tracks/tr-1", creator, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("ReferencedBetweenCheckAndDelete", func(t *testing.T) {
		// A playlist picked the track up after the existence check; the
		// foreign key still turns the delete into a conflict.
		existing("tr-1", creator)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tr-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("DELETE FROM tracks").
			WithArgs("tr-1").
			WillReturnError(&pgconn.PgError{Code: "23503"})

		w := doRequest(h, "DELETE", "/tracks/tr-1", creator, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("NotTheCreator", func(t *testing.T) {
		existing("tr-1", creator)

		w := doRequest(h, "DELETE", "/tracks/tr-1", "someone-else", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleToggleLike(t *testing.T) {
	h, mock := setupMockServer(t)
	defer mock.Close()

	t.Run("FirstToggleLikes", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tr-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec("DELETE FROM track_likes").
			WithArgs("tr-1", creator).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec("INSERT INTO track_likes").
			WithArgs("tr-1", creator).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		w := doRequest(h, "POST", "/tracks/tr-1/like", creator, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"liked":true`)
	})

	t.Run("SecondToggleUnlikes", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("tr-1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec("DELETE FROM track_likes").
			WithArgs("tr-1", creator).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		w := doRequest(h, "POST", "/tracks/tr-1/like", creator, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"liked":false`)
	})

	t.Run("UnknownTrack", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		w := doRequest(h, "POST", "/tracks/missing/like", creator, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleListTracks(t *testing.T) {
	h, mock := setupMockServer(t)
	defer mock.Close()
	now := time.Now()

	mock.ExpectQuery("SELECT t.id, t.name, t.genre").
		WithArgs("", 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "genre", "band", "image_url", "image_file_id",
			"youtube_video_id", "youtube_thumbnail_url", "created_by",
			"created_at", "updated_at", "is_liked",
		}).AddRow(
			"tr-1", "Song", "Rock", "Band", "", "", "", "", creator, now, now, false,
		))

	w := doRequest(h, "GET", "/tracks", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var tracks []Track
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tracks))
	assert.Len(t, tracks, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/tracks?size=10&page=3", nil)
	limit, offset := pageParams(req, 50)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 30, offset)

	req = httptest.NewRequest("GET", "/tracks?size=9999", nil)
	limit, offset = pageParams(req, 50)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)
}
