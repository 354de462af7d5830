package playlist

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"playlist-service/internal/identity"
	"playlist-service/internal/storage"
)

// TrackCatalog is the slice of the catalog the playlist domain needs:
// membership rows may only reference tracks that exist.
type TrackCatalog interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service implements the playlist domain: ownership, collaboration invites
// and the ordered track ledger. Handlers stay thin and call into here.
type Service struct {
	store     *PostgresStore
	directory identity.Directory
	catalog   TrackCatalog
	images    storage.Store
	events    *Events
	cache     *Cache
}

func NewService(store *PostgresStore, directory identity.Directory, catalog TrackCatalog, images storage.Store, events *Events, cache *Cache) *Service {
	return &Service{
		store:     store,
		directory: directory,
		catalog:   catalog,
		images:    images,
		events:    events,
		cache:     cache,
	}
}

// resolveCaller confirms the authenticated user still exists in the
// directory. A vanished user gets a not-found, a directory outage a 502.
func (svc *Service) resolveCaller(ctx context.Context, callerID string) (identity.User, error) {
	u, err := svc.directory.Resolve(ctx, callerID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return identity.User{}, notFound("user not found")
	}
	if err != nil {
		return identity.User{}, dependency("user service unavailable")
	}
	return u, nil
}

// loadAuthorized fetches the playlist and applies the access policy.
// Callers who may not view a private playlist get a forbidden; viewers
// lacking the requested permission get a forbidden too.
func (svc *Service) loadAuthorized(ctx context.Context, callerID, playlistID string, act action) (Playlist, error) {
	pl, err := svc.store.GetPlaylist(ctx, playlistID, callerID)
	if errors.Is(err, ErrPlaylistNotFound) {
		return Playlist{}, notFound("playlist not found")
	}
	if err != nil {
		return Playlist{}, err
	}
	if !authorize(actView, &pl, callerID, pl.IsCollaborator) {
		return Playlist{}, forbidden("playlist is private")
	}
	if act != actView && !authorize(act, &pl, callerID, pl.IsCollaborator) {
		return Playlist{}, forbidden("not allowed")
	}
	return pl, nil
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= 200
}

func (svc *Service) Create(ctx context.Context, callerID, name string, isPublic bool) (Playlist, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return Playlist{}, err
	}
	if !validName(name) {
		return Playlist{}, invalid("name must be between 1 and 200 characters")
	}

	pl := Playlist{
		Name:     strings.TrimSpace(name),
		OwnerID:  callerID,
		IsPublic: isPublic,
	}
	if err := svc.store.CreatePlaylist(ctx, &pl); err != nil {
		return Playlist{}, err
	}

	if pl.IsPublic {
		svc.cache.InvalidatePublic(ctx)
	}
	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.created",
		"playlistId": pl.ID,
		"ownerId":    pl.OwnerID,
	})
	return pl, nil
}

// Update patches name and visibility. Nil fields are left unchanged.
// Owner only.
func (svc *Service) Update(ctx context.Context, callerID, playlistID string, name *string, isPublic *bool) (Playlist, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return Playlist{}, err
	}
	pl, err := svc.loadAuthorized(ctx, callerID, playlistID, actEditDetails)
	if err != nil {
		return Playlist{}, err
	}

	if name != nil {
		if !validName(*name) {
			return Playlist{}, invalid("name must be between 1 and 200 characters")
		}
		pl.Name = strings.TrimSpace(*name)
	}
	if isPublic != nil {
		pl.IsPublic = *isPublic
	}

	if err := svc.store.SavePlaylist(ctx, &pl); err != nil {
		if errors.Is(err, ErrPlaylistNotFound) {
			return Playlist{}, notFound("playlist not found")
		}
		return Playlist{}, err
	}

	svc.cache.InvalidatePublic(ctx)
	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.updated",
		"playlistId": pl.ID,
	})
	return pl, nil
}

// Delete removes the playlist with its memberships and collaborations in
// one transaction. Owner only. The cover image is cleaned up best effort.
func (svc *Service) Delete(ctx context.Context, callerID, playlistID string) error {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return err
	}
	pl, err := svc.loadAuthorized(ctx, callerID, playlistID, actDelete)
	if err != nil {
		return err
	}

	if err := svc.store.DeletePlaylistCascade(ctx, playlistID); err != nil {
		if errors.Is(err, ErrPlaylistNotFound) {
			return notFound("playlist not found")
		}
		return err
	}

	if pl.ImageFileID != "" {
		if err := svc.images.Delete(ctx, pl.ImageFileID); err != nil {
			log.Printf("playlist-service: delete cover %s: %v", pl.ImageFileID, err)
		}
	}
	svc.cache.InvalidatePublic(ctx)
	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.deleted",
		"playlistId": playlistID,
	})
	return nil
}

// SetCover replaces the playlist cover image. Owner only.
func (svc *Service) SetCover(ctx context.Context, callerID, playlistID, filename string, r io.Reader) (Playlist, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return Playlist{}, err
	}
	pl, err := svc.loadAuthorized(ctx, callerID, playlistID, actEditDetails)
	if err != nil {
		return Playlist{}, err
	}

	url, handle, err := svc.images.Store(ctx, filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return Playlist{}, invalid(err.Error())
		}
		return Playlist{}, err
	}

	oldHandle := pl.ImageFileID
	pl.ImageURL = url
	pl.ImageFileID = handle
	if err := svc.store.SavePlaylist(ctx, &pl); err != nil {
		return Playlist{}, err
	}

	if oldHandle != "" {
		if err := svc.images.Delete(ctx, oldHandle); err != nil {
			log.Printf("playlist-service: delete cover %s: %v", oldHandle, err)
		}
	}
	return pl, nil
}

func (svc *Service) ListMine(ctx context.Context, callerID string) ([]Playlist, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return nil, err
	}
	return svc.store.ListMine(ctx, callerID)
}

func (svc *Service) ListAccessible(ctx context.Context, callerID string) ([]Playlist, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return nil, err
	}
	return svc.store.ListAccessible(ctx, callerID)
}

// ListPublic serves the anonymous listing through the Redis cache.
func (svc *Service) ListPublic(ctx context.Context) ([]Playlist, error) {
	if cached, ok := svc.cache.GetPublic(ctx); ok {
		return cached, nil
	}
	playlists, err := svc.store.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	svc.cache.SetPublic(ctx, playlists)
	return playlists, nil
}

// View assembles the detail payload: metadata plus the ordered tracks.
// callerID may be empty for anonymous requests against public playlists.
func (svc *Service) View(ctx context.Context, callerID, playlistID string) (PlaylistView, error) {
	if callerID != "" {
		if _, err := svc.resolveCaller(ctx, callerID); err != nil {
			return PlaylistView{}, err
		}
	}
	pl, err := svc.loadAuthorized(ctx, callerID, playlistID, actView)
	if err != nil {
		return PlaylistView{}, err
	}

	tracks, err := svc.store.ListTracks(ctx, playlistID)
	if err != nil {
		return PlaylistView{}, err
	}

	// Owner name is decoration; a directory hiccup must not break the view.
	if owner, err := svc.directory.Resolve(ctx, pl.OwnerID); err == nil {
		pl.OwnerName = owner.DisplayName
	}

	return PlaylistView{Playlist: pl, Tracks: tracks}, nil
}

// AddTrack appends a catalog track to the playlist. Owner or accepted
// collaborator.
func (svc *Service) AddTrack(ctx context.Context, callerID, playlistID, trackID string) (int, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return 0, err
	}
	if _, err := svc.loadAuthorized(ctx, callerID, playlistID, actEditTracks); err != nil {
		return 0, err
	}

	ok, err := svc.catalog.Exists(ctx, trackID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, notFound("track not found")
	}

	position, err := svc.store.AddTrack(ctx, playlistID, trackID)
	if errors.Is(err, ErrDuplicateTrack) {
		return 0, conflict("track already in playlist")
	}
	if errors.Is(err, ErrPlaylistNotFound) {
		return 0, notFound("playlist not found")
	}
	if err != nil {
		return 0, err
	}

	svc.cache.InvalidatePublic(ctx)
	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.track_added",
		"playlistId": playlistID,
		"trackId":    trackID,
		"position":   position,
	})
	return position, nil
}

// RemoveTrack drops a membership row. Positions of the remaining tracks
// are not renumbered.
func (svc *Service) RemoveTrack(ctx context.Context, callerID, playlistID, trackID string) error {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return err
	}
	if _, err := svc.loadAuthorized(ctx, callerID, playlistID, actEditTracks); err != nil {
		return err
	}

	err := svc.store.RemoveTrack(ctx, playlistID, trackID)
	if errors.Is(err, ErrTrackNotInPlaylist) {
		return notFound("track is not in this playlist")
	}
	if err != nil {
		return err
	}

	svc.cache.InvalidatePublic(ctx)
	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.track_removed",
		"playlistId": playlistID,
		"trackId":    trackID,
	})
	return nil
}

// Invite records a PENDING collaboration for the user behind email.
// Owner only; the owner cannot invite themselves, and any existing invite,
// whatever its status, blocks a new one.
func (svc *Service) Invite(ctx context.Context, callerID, playlistID, email string) (Collaboration, error) {
	caller, err := svc.resolveCaller(ctx, callerID)
	if err != nil {
		return Collaboration{}, err
	}
	if _, err := svc.loadAuthorized(ctx, callerID, playlistID, actManageCollaborators); err != nil {
		return Collaboration{}, err
	}

	invitee, err := svc.directory.LookupEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, identity.ErrUserNotFound) {
		return Collaboration{}, notFound("user not found")
	}
	if err != nil {
		return Collaboration{}, dependency("user service unavailable")
	}
	if invitee.ID == callerID {
		return Collaboration{}, invalid("cannot invite yourself")
	}

	c, err := svc.store.CreateInvite(ctx, playlistID, invitee.ID, callerID)
	if errors.Is(err, ErrAlreadyInvited) {
		return Collaboration{}, conflict("user already invited")
	}
	if err != nil {
		return Collaboration{}, err
	}

	c.UserName = invitee.DisplayName
	c.InvitedByName = caller.DisplayName
	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.invite_created",
		"playlistId": playlistID,
		"userId":     invitee.ID,
	})
	return c, nil
}

// ListCollaborators returns the playlist's accepted collaborators. Owner only.
func (svc *Service) ListCollaborators(ctx context.Context, callerID, playlistID string) ([]Collaboration, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return nil, err
	}
	if _, err := svc.loadAuthorized(ctx, callerID, playlistID, actManageCollaborators); err != nil {
		return nil, err
	}

	collabs, err := svc.store.ListCollaborations(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	for i := range collabs {
		if u, err := svc.directory.Resolve(ctx, collabs[i].UserID); err == nil {
			collabs[i].UserName = u.DisplayName
		}
	}
	return collabs, nil
}

// RemoveCollaborator deletes a collaboration row in any status: it revokes
// access, cancels a pending invite, or clears a rejection so the user can
// be invited again. Owner only.
func (svc *Service) RemoveCollaborator(ctx context.Context, callerID, playlistID, collabID string) error {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return err
	}
	if _, err := svc.loadAuthorized(ctx, callerID, playlistID, actManageCollaborators); err != nil {
		return err
	}

	c, err := svc.store.GetCollaboration(ctx, collabID)
	if errors.Is(err, ErrCollaborationNotFound) {
		return notFound("collaboration not found")
	}
	if err != nil {
		return err
	}
	if c.PlaylistID != playlistID {
		return notFound("collaboration not found")
	}

	if err := svc.store.DeleteCollaboration(ctx, collabID); err != nil {
		if errors.Is(err, ErrCollaborationNotFound) {
			return notFound("collaboration not found")
		}
		return err
	}

	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.collaborator_removed",
		"playlistId": playlistID,
		"userId":     c.UserID,
	})
	return nil
}

// MyInvites returns the caller's open invites.
func (svc *Service) MyInvites(ctx context.Context, callerID string) ([]Invite, error) {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return nil, err
	}

	invites, err := svc.store.ListPendingFor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for i := range invites {
		if u, err := svc.directory.Resolve(ctx, invites[i].InvitedBy); err == nil {
			invites[i].InvitedByName = u.DisplayName
		}
	}
	return invites, nil
}

// Respond settles a PENDING invite. Only the invited user may respond, and
// only once: the status update is guarded so a settled invite stays settled.
func (svc *Service) Respond(ctx context.Context, callerID, inviteID string, accept bool) error {
	if _, err := svc.resolveCaller(ctx, callerID); err != nil {
		return err
	}

	c, err := svc.store.GetCollaboration(ctx, inviteID)
	if errors.Is(err, ErrCollaborationNotFound) {
		return notFound("invite not found")
	}
	if err != nil {
		return err
	}
	if c.UserID != callerID {
		return forbidden("not your invite")
	}

	status := StatusRejected
	if accept {
		status = StatusAccepted
	}
	err = svc.store.Respond(ctx, inviteID, status)
	if errors.Is(err, ErrAlreadyResponded) {
		return conflict("invite already responded to")
	}
	if errors.Is(err, ErrCollaborationNotFound) {
		return notFound("invite not found")
	}
	if err != nil {
		return err
	}

	svc.events.Publish(ctx, map[string]any{
		"type":       "playlist.invite_responded",
		"playlistId": c.PlaylistID,
		"userId":     callerID,
		"status":     status,
	})
	return nil
}
