package battle

// RoundOutcome describes one paired comparison. Winner is empty for a draw.
type RoundOutcome struct {
	Index     int         `json:"index"`
	A         Collectible `json:"a"`
	B         Collectible `json:"b"`
	Winner    Identity    `json:"winner,omitempty"`
	Exchanges int         `json:"exchanges"`
	Capped    bool        `json:"capped,omitempty"`
}

// Result is the resolved outcome of a battle. Winner is empty for an overall draw.
type Result struct {
	Rounds []RoundOutcome `json:"rounds"`
	Winner Identity       `json:"winner,omitempty"`
	WinsA  int            `json:"winsA"`
	WinsB  int            `json:"winsB"`
}

// Draw reports whether nobody won overall.
func (r Result) Draw() bool {
	return r.Winner.None()
}
