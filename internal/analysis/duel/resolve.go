// Package duel resolves a locked battle from the two ordered proposals.
//
// Resolution is a pure function of its inputs: the same identities and proposals always
// produce the same result.
package duel

import "github.com/zhouzirui/ball-arena/backend/internal/model/battle"

// DefaultMaxExchanges caps the exchanges simulated in a single round. Rounds that reach
// the cap end in a draw.
const DefaultMaxExchanges = 1000

// Rules tunes the simulation.
type Rules struct {
	MaxExchanges int
}

// DefaultRules is used by Resolve.
var DefaultRules = Rules{MaxExchanges: DefaultMaxExchanges}

// Resolve runs the battle with DefaultRules.
func Resolve(a, b battle.Identity, seqA, seqB []battle.Collectible) battle.Result {
	return DefaultRules.Resolve(a, b, seqA, seqB)
}

// Resolve pairs seqA[i] with seqB[i] for every index both proposals share and counts
// round wins. An empty proposal on one side hands the battle to the other side without
// simulating any round.
func (r Rules) Resolve(a, b battle.Identity, seqA, seqB []battle.Collectible) battle.Result {
	switch {
	case len(seqA) == 0 && len(seqB) == 0:
		return battle.Result{Rounds: []battle.RoundOutcome{}}
	case len(seqA) == 0:
		return battle.Result{Rounds: []battle.RoundOutcome{}, Winner: b}
	case len(seqB) == 0:
		return battle.Result{Rounds: []battle.RoundOutcome{}, Winner: a}
	}

	rounds := min(len(seqA), len(seqB))
	result := battle.Result{Rounds: make([]battle.RoundOutcome, 0, rounds)}
	for i := 0; i < rounds; i++ {
		outcome := r.round(a, b, seqA[i], seqB[i])
		outcome.Index = i
		switch outcome.Winner {
		case "":
		case a:
			result.WinsA++
		case b:
			result.WinsB++
		}
		result.Rounds = append(result.Rounds, outcome)
	}

	switch {
	case result.WinsA > result.WinsB:
		result.Winner = a
	case result.WinsB > result.WinsA:
		result.Winner = b
	}
	return result
}

// round simulates one pairing from full health. A strikes first in every exchange.
func (r Rules) round(a, b battle.Identity, ca, cb battle.Collectible) battle.RoundOutcome {
	outcome := battle.RoundOutcome{A: ca, B: cb}

	hpA, hpB := ca.HealthBonus, cb.HealthBonus
	if hpA <= 0 || hpB <= 0 {
		return outcome
	}

	limit := r.MaxExchanges
	if limit <= 0 {
		limit = DefaultMaxExchanges
	}

	for outcome.Exchanges < limit {
		outcome.Exchanges++

		hpB -= ca.AttackBonus
		if hpB <= 0 {
			outcome.Winner = a
			return outcome
		}

		hpA -= cb.AttackBonus
		if hpA <= 0 {
			outcome.Winner = b
			return outcome
		}
	}

	outcome.Capped = true
	return outcome
}
