package battle

import "time"

// ParticipantView is the display-ready state of one side. Proposal holds at most the
// display limit; Remaining counts what was cut.
type ParticipantView struct {
	Identity  Identity      `json:"identity"`
	Proposal  []Collectible `json:"proposal"`
	Remaining int           `json:"remaining"`
	Total     int           `json:"total"`
	Locked    bool          `json:"locked"`
}

// View is an immutable snapshot of a session handed to renderers and API callers.
// Revision increases with every snapshot of the same session.
type View struct {
	SessionID string          `json:"sessionId"`
	Key       string          `json:"key"`
	State     State           `json:"state"`
	Revision  uint64          `json:"revision"`
	A         ParticipantView `json:"a"`
	B         ParticipantView `json:"b"`
	StartedAt time.Time       `json:"startedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Result    *Result         `json:"result,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// Final reports whether the view describes a finished session.
func (v View) Final() bool {
	return v.State.Terminal()
}
