package playlist

// action enumerates everything a caller can do to a playlist. Keeping the
// policy in one table stops the per-handler checks from drifting apart.
type action int

const (
	actView action = iota
	actEditDetails
	actDelete
	actEditTracks
	actManageCollaborators
)

// authorize applies the access policy. isCollaborator means an ACCEPTED
// collaboration row exists for callerID; callers pass false when they have
// not looked it up (e.g. anonymous requests).
func authorize(act action, pl *Playlist, callerID string, isCollaborator bool) bool {
	isOwner := callerID != "" && callerID == pl.OwnerID

	switch act {
	case actView:
		return pl.IsPublic || isOwner || isCollaborator
	case actEditDetails, actDelete, actManageCollaborators:
		return isOwner
	case actEditTracks:
		return isOwner || isCollaborator
	default:
		return false
	}
}
