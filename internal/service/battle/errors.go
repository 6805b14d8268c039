package battle

import "errors"

// Caller-facing rejections. None of them mutates session state.
var (
	ErrAlreadyActive   = errors.New("a battle is already active for this key")
	ErrNoActiveSession = errors.New("no active battle")
	ErrNotAParticipant = errors.New("not a participant of this battle")
	ErrNotOwner        = errors.New("collectible is not owned by the participant")
	ErrAlreadyProposed = errors.New("collectible is already in the proposal")
	ErrNotInProposal   = errors.New("collectible is not in the proposal")
	ErrAlreadyLocked   = errors.New("proposal is already locked")
	ErrInvalidState    = errors.New("battle is no longer accepting changes")
	ErrSameParticipant = errors.New("cannot battle with yourself")
	ErrInvalidIdentity = errors.New("battle key and both identities are required")
)

// Internal causes that force a session into the timed out state. They are reported
// through the final view's reason, never returned to callers.
var (
	ErrTimeout       = errors.New("the battle timed out")
	ErrRenderFailure = errors.New("the battle could not be rendered")
)
