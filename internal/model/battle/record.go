package battle

import "time"

// Record is the persisted summary of a completed battle.
type Record struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"sessionId"`
	Key        string         `json:"key"`
	PlayerA    Identity       `json:"playerA"`
	PlayerB    Identity       `json:"playerB"`
	Winner     Identity       `json:"winner,omitempty"`
	WinsA      int            `json:"winsA"`
	WinsB      int            `json:"winsB"`
	Rounds     []RoundOutcome `json:"rounds,omitempty"`
	FinishedAt time.Time      `json:"finishedAt"`
}
