package catalog

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Server struct {
	store *Store
}

func NewServer(store *Store) *Server {
	return &Server{store: store}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Post("/tracks", s.handleCreateTrack)
	r.Get("/tracks", s.handleListTracks)
	r.Get("/tracks/{id}", s.handleGetTrack)
	r.Delete("/tracks/{id}", s.handleDeleteTrack)

	r.Post("/tracks/{id}/like", s.handleToggleLike)
	r.Get("/me/likes", s.handleListLiked)

	return r
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body struct {
		Name                string `json:"name"`
		Genre               string `json:"genre"`
		Band                string `json:"band"`
		ImageURL            string `json:"imageUrl"`
		ImageFileID         string `json:"imageFileId"`
		YoutubeVideoID      string `json:"youtubeVideoId"`
		YoutubeThumbnailURL string `json:"youtubeThumbnailUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Genre = strings.TrimSpace(body.Genre)
	body.Band = strings.TrimSpace(body.Band)

	if body.Name == "" || len(body.Name) > 200 {
		writeError(w, http.StatusBadRequest, "name must be between 1 and 200 characters")
		return
	}
	if body.Genre == "" || len(body.Genre) > 50 {
		writeError(w, http.StatusBadRequest, "genre must be between 1 and 50 characters")
		return
	}
	if body.Band == "" || len(body.Band) > 200 {
		writeError(w, http.StatusBadRequest, "band must be between 1 and 200 characters")
		return
	}

	tr := Track{
		ID:                  uuid.NewString(),
		Name:                body.Name,
		Genre:               body.Genre,
		Band:                body.Band,
		ImageURL:            body.ImageURL,
		ImageFileID:         body.ImageFileID,
		YoutubeVideoID:      body.YoutubeVideoID,
		YoutubeThumbnailURL: body.YoutubeThumbnailURL,
		CreatedBy:           userID,
	}

	if err := s.store.Create(ctx, &tr); err != nil {
		if errors.Is(err, ErrDuplicateTrack) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		log.Printf("catalog: create track: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	created, err := s.store.Get(ctx, tr.ID)
	if err != nil {
		log.Printf("catalog: reload track: %v", err)
		writeJSON(w, http.StatusCreated, tr)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	tr, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrTrackNotFound) {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	if err != nil {
		log.Printf("catalog: get track: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if userID := r.Header.Get("X-User-Id"); userID != "" {
		liked, err := s.store.IsLiked(ctx, id, userID)
		if err != nil {
			log.Printf("catalog: liked check: %v", err)
		} else {
			tr.IsLiked = liked
		}
	}

	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	limit, offset := pageParams(r, 50)

	tracks, err := s.store.List(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("catalog: list tracks: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	id := chi.URLParam(r, "id")

	tr, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrTrackNotFound) {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	if err != nil {
		log.Printf("catalog: delete track fetch: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if tr.CreatedBy != userID {
		writeError(w, http.StatusForbidden, "only the track creator can delete it")
		return
	}

	switch err := s.store.Delete(ctx, id); {
	case errors.Is(err, ErrTrackInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "track not found")
	case err != nil:
		log.Printf("catalog: delete track: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	id := chi.URLParam(r, "id")

	liked, err := s.store.ToggleLike(ctx, id, userID)
	if errors.Is(err, ErrTrackNotFound) {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	if err != nil {
		log.Printf("catalog: toggle like: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trackId": id,
		"liked":   liked,
	})
}

func (s *Server) handleListLiked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}
	limit, offset := pageParams(r, 50)

	tracks, err := s.store.ListLiked(ctx, userID, limit, offset)
	if err != nil {
		log.Printf("catalog: list liked: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func pageParams(r *http.Request, defSize int) (limit, offset int) {
	limit = defSize
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	page := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	return limit, page * limit
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
