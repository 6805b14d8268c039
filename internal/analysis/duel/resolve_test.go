package duel

import (
	"reflect"
	"testing"

	"github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

const (
	alice battle.Identity = "alice"
	bob   battle.Identity = "bob"
)

func ball(id string, owner battle.Identity, attack, health int) battle.Collectible {
	return battle.Collectible{ID: id, Owner: owner, AttackBonus: attack, HealthBonus: health, Label: id}
}

func TestResolveWorkedRound(t *testing.T) {
	result := Resolve(alice, bob,
		[]battle.Collectible{ball("a1", alice, 5, 10)},
		[]battle.Collectible{ball("b1", bob, 3, 8)},
	)

	if len(result.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(result.Rounds))
	}
	round := result.Rounds[0]
	if round.Winner != alice {
		t.Fatalf("expected alice to win the round, got %q", round.Winner)
	}
	if round.Exchanges != 2 {
		t.Fatalf("expected 2 exchanges, got %d", round.Exchanges)
	}
	if result.Winner != alice || result.WinsA != 1 || result.WinsB != 0 {
		t.Fatalf("unexpected overall result: %+v", result)
	}
}

func TestResolveNonPositiveHealthDraws(t *testing.T) {
	cases := []struct {
		name string
		a, b battle.Collectible
	}{
		{"negative a", ball("a1", alice, 5, -2), ball("b1", bob, 1, 5)},
		{"zero b", ball("a1", alice, 100, 5), ball("b1", bob, 100, 0)},
		{"both", ball("a1", alice, 1, 0), ball("b1", bob, 1, -1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Resolve(alice, bob, []battle.Collectible{tc.a}, []battle.Collectible{tc.b})
			if result.Rounds[0].Winner != "" {
				t.Fatalf("expected round draw, got %q", result.Rounds[0].Winner)
			}
			if result.Rounds[0].Exchanges != 0 {
				t.Fatalf("expected no exchanges, got %d", result.Rounds[0].Exchanges)
			}
			if !result.Draw() {
				t.Fatalf("expected overall draw, got %q", result.Winner)
			}
		})
	}
}

func TestResolveStalemateIsCapped(t *testing.T) {
	rules := Rules{MaxExchanges: 50}
	result := rules.Resolve(alice, bob,
		[]battle.Collectible{ball("a1", alice, 0, 10)},
		[]battle.Collectible{ball("b1", bob, -3, 10)},
	)

	round := result.Rounds[0]
	if !round.Capped {
		t.Fatal("expected round to hit the exchange cap")
	}
	if round.Exchanges != 50 {
		t.Fatalf("expected 50 exchanges, got %d", round.Exchanges)
	}
	if round.Winner != "" || !result.Draw() {
		t.Fatalf("expected draw, got round=%q overall=%q", round.Winner, result.Winner)
	}
}

func TestResolveZeroRulesUseDefaultCap(t *testing.T) {
	result := Rules{}.Resolve(alice, bob,
		[]battle.Collectible{ball("a1", alice, 0, 1)},
		[]battle.Collectible{ball("b1", bob, 0, 1)},
	)
	if result.Rounds[0].Exchanges != DefaultMaxExchanges {
		t.Fatalf("expected default cap %d, got %d", DefaultMaxExchanges, result.Rounds[0].Exchanges)
	}
}

func TestResolveGiftCases(t *testing.T) {
	x := ball("b1", bob, 1, 1)

	result := Resolve(alice, bob, nil, []battle.Collectible{x})
	if len(result.Rounds) != 0 || result.Winner != bob {
		t.Fatalf("expected bob to win without rounds, got %+v", result)
	}

	result = Resolve(alice, bob, []battle.Collectible{ball("a1", alice, 1, 1)}, nil)
	if len(result.Rounds) != 0 || result.Winner != alice {
		t.Fatalf("expected alice to win without rounds, got %+v", result)
	}

	result = Resolve(alice, bob, nil, nil)
	if len(result.Rounds) != 0 || !result.Draw() {
		t.Fatalf("expected empty draw, got %+v", result)
	}
}

func TestResolveSplitRoundsDraw(t *testing.T) {
	seqA := []battle.Collectible{
		ball("a1", alice, 10, 10),
		ball("a2", alice, 1, 1),
		ball("a3", alice, 10, 10),
		ball("a4", alice, 1, 1),
	}
	seqB := []battle.Collectible{
		ball("b1", bob, 1, 5),
		ball("b2", bob, 10, 10),
		ball("b3", bob, 1, 5),
		ball("b4", bob, 10, 10),
	}

	result := Resolve(alice, bob, seqA, seqB)
	if result.WinsA != 2 || result.WinsB != 2 {
		t.Fatalf("expected 2-2 split, got %d-%d", result.WinsA, result.WinsB)
	}
	if !result.Draw() {
		t.Fatalf("expected overall draw, got %q", result.Winner)
	}
}

func TestResolveUsesShortestProposal(t *testing.T) {
	seqA := []battle.Collectible{ball("a1", alice, 1, 1), ball("a2", alice, 1, 1), ball("a3", alice, 1, 1)}
	seqB := []battle.Collectible{ball("b1", bob, 5, 5)}

	result := Resolve(alice, bob, seqA, seqB)
	if len(result.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(result.Rounds))
	}
	if result.Winner != bob {
		t.Fatalf("expected bob to win, got %q", result.Winner)
	}
}

func TestResolveDeterministic(t *testing.T) {
	seqA := []battle.Collectible{ball("a1", alice, 4, 9), ball("a2", alice, 2, 20), ball("a3", alice, 7, 3)}
	seqB := []battle.Collectible{ball("b1", bob, 3, 12), ball("b2", bob, 5, 5), ball("b3", bob, 7, 3)}

	first := Resolve(alice, bob, seqA, seqB)
	for i := 0; i < 10; i++ {
		if got := Resolve(alice, bob, seqA, seqB); !reflect.DeepEqual(first, got) {
			t.Fatalf("resolution changed between runs: %+v vs %+v", first, got)
		}
	}
}
