package collectible

import "github.com/zhouzirui/ball-arena/backend/internal/model/battle"

// Seed provides a small demo catalogue shared by two local players.
func Seed() []battle.Collectible {
	return []battle.Collectible{
		{ID: "c-1001", Owner: "alice", AttackBonus: 5, HealthBonus: 10, Label: "Republic of Rome"},
		{ID: "c-1002", Owner: "alice", AttackBonus: 3, HealthBonus: 14, Label: "Kingdom of Sardinia"},
		{ID: "c-1003", Owner: "alice", AttackBonus: 8, HealthBonus: 4, Label: "Sparta"},
		{ID: "c-1004", Owner: "alice", AttackBonus: -2, HealthBonus: 6, Label: "Atlantis"},
		{ID: "c-2001", Owner: "bob", AttackBonus: 3, HealthBonus: 8, Label: "Carthage"},
		{ID: "c-2002", Owner: "bob", AttackBonus: 6, HealthBonus: 9, Label: "Byzantium"},
		{ID: "c-2003", Owner: "bob", AttackBonus: 1, HealthBonus: -2, Label: "Lemuria"},
		{ID: "c-2004", Owner: "bob", AttackBonus: 4, HealthBonus: 12, Label: "Venice"},
	}
}
