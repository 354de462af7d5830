package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	svc *Service
}

func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/playlists/public", s.handleListPublic)

	r.Group(func(r chi.Router) {
		r.Get("/playlists", s.handleListAccessible)
		r.Get("/playlists/my-playlists", s.handleListMine)
		r.Post("/playlists", s.handleCreatePlaylist)
		r.Get("/playlists/{id}", s.handleGetPlaylist)
		r.Patch("/playlists/{id}", s.handlePatchPlaylist)
		r.Delete("/playlists/{id}", s.handleDeletePlaylist)
		r.Post("/playlists/{id}/image", s.handleUploadImage)

		r.Post("/playlists/{id}/tracks", s.handleAddTrack)
		r.Delete("/playlists/{id}/tracks/{trackId}", s.handleRemoveTrack)

		r.Post("/playlists/{id}/collaborators", s.handleInvite)
		r.Get("/playlists/{id}/collaborators", s.handleListCollaborators)
		r.Delete("/playlists/{id}/collaborators/{collabId}", s.handleRemoveCollaborator)

		r.Get("/collaborator-invites", s.handleMyInvites)
		r.Post("/collaborator-invites/{inviteId}/accept", s.handleAcceptInvite)
		r.Post("/collaborator-invites/{inviteId}/reject", s.handleRejectInvite)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "playlist-service",
	})
}
