package battle

// Identity references an external user. Only equality is meaningful.
type Identity string

// None reports whether the identity is unset (used for draws).
func (i Identity) None() bool {
	return i == ""
}

// Collectible is a read-only snapshot of an owned item's combat stats, taken when it is
// offered. Battles never mutate or re-fetch it.
type Collectible struct {
	ID          string   `json:"id"`
	Owner       Identity `json:"owner"`
	AttackBonus int      `json:"attackBonus"`
	HealthBonus int      `json:"healthBonus"`
	Label       string   `json:"label"`
}
