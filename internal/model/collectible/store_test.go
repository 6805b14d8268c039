package collectible

import (
	"context"
	"testing"

	"github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

func TestMemoryStoreHoldingsFiltersByOwner(t *testing.T) {
	store := NewMemoryStore(Seed())

	owned, err := store.Holdings(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Holdings err: %v", err)
	}
	if len(owned) != 4 {
		t.Fatalf("expected 4 collectibles for alice, got %d", len(owned))
	}
	for _, item := range owned {
		if item.Owner != "alice" {
			t.Fatalf("unexpected owner %s for %s", item.Owner, item.ID)
		}
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(nil)
	if _, err := store.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreTransferDoesNotTouchSnapshots(t *testing.T) {
	store := NewMemoryStore(Seed())
	ctx := context.Background()

	snapshot, err := store.Get(ctx, "c-1001")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if err := store.Transfer(ctx, "c-1001", battle.Identity("bob")); err != nil {
		t.Fatalf("Transfer err: %v", err)
	}

	if snapshot.Owner != "alice" {
		t.Fatalf("snapshot owner changed to %s", snapshot.Owner)
	}
	current, _ := store.Get(ctx, "c-1001")
	if current.Owner != "bob" {
		t.Fatalf("expected bob to own c-1001, got %s", current.Owner)
	}
}
