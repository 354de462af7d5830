package playlist

import (
	"time"
)

// Playlist metadata. Tracks are modelled separately as membership rows.
// The owner is set at creation and never changes.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ImageFileID string    `json:"imageFileId,omitempty"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Derived, filled per caller on list/view responses.
	TrackCount     int  `json:"trackCount"`
	IsCollaborator bool `json:"isCollaborator"`
}

// PlaylistTrack is a membership row joined with its catalog metadata.
// Position marks insertion order; it is not compacted after removals, so
// gaps are expected.
type PlaylistTrack struct {
	TrackID             string    `json:"trackId"`
	Name                string    `json:"name"`
	Genre               string    `json:"genre"`
	Band                string    `json:"band"`
	ImageURL            string    `json:"imageUrl,omitempty"`
	YoutubeVideoID      string    `json:"youtubeVideoId,omitempty"`
	YoutubeThumbnailURL string    `json:"youtubeThumbnailUrl,omitempty"`
	Position            int       `json:"position"`
	AddedAt             time.Time `json:"addedAt"`
}

// PlaylistView is the assembled detail payload: the playlist, its ordered
// tracks and whether the current caller is an accepted collaborator.
type PlaylistView struct {
	Playlist Playlist        `json:"playlist"`
	Tracks   []PlaylistTrack `json:"tracks"`
}

// Collaboration statuses. PENDING is the only state that can transition;
// ACCEPTED and REJECTED are terminal.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// Collaboration is an invite row. At most one exists per (playlist, user),
// ever: a rejected user cannot be re-invited.
type Collaboration struct {
	ID          string     `json:"id"`
	PlaylistID  string     `json:"playlistId"`
	UserID      string     `json:"userId"`
	InvitedBy   string     `json:"invitedByUserId"`
	Status      string     `json:"status"`
	InvitedAt   time.Time  `json:"invitedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`

	// Resolved via the identity directory for responses.
	UserName      string `json:"userName,omitempty"`
	InvitedByName string `json:"invitedByUserName,omitempty"`
}

// Invite is the invited user's own view of a pending collaboration.
type Invite struct {
	ID               string    `json:"id"`
	PlaylistID       string    `json:"playlistId"`
	PlaylistName     string    `json:"playlistName"`
	PlaylistImageURL string    `json:"playlistImageUrl,omitempty"`
	InvitedBy        string    `json:"invitedByUserId"`
	InvitedByName    string    `json:"invitedByUserName,omitempty"`
	Status           string    `json:"status"`
	InvitedAt        time.Time `json:"invitedAt"`
}
