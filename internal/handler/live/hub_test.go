package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	battle "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

type fixedRecap string

func (f fixedRecap) Recap(context.Context, battle.View) string { return string(f) }

func startHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, key string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/battles/" + key
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outgoingMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return msg
}

func TestSubscribeSendsCurrentSnapshot(t *testing.T) {
	hub := NewHub(nil, func(key string) (battle.View, bool) {
		return battle.View{Key: key, SessionID: "s1", State: battle.StateProposing, Revision: 3}, true
	})
	srv := startHub(t, hub)

	conn := dial(t, srv, "guild-1")
	hello := readMessage(t, conn)
	if hello.Type != "subscribed" {
		t.Fatalf("expected subscribed, got %s", hello.Type)
	}
	if hello.View == nil || hello.View.Revision != 3 {
		t.Fatalf("expected snapshot revision 3, got %+v", hello.View)
	}
	if hub.Subscribers("guild-1") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers("guild-1"))
	}
}

func TestRenderBroadcastsAndDropsStaleViews(t *testing.T) {
	hub := NewHub(fixedRecap("what a fight"), nil)
	srv := startHub(t, hub)

	conn := dial(t, srv, "guild-1")
	readMessage(t, conn)

	ctx := context.Background()
	if err := hub.Render(ctx, battle.View{Key: "guild-1", SessionID: "s1", State: battle.StateProposing, Revision: 2}); err != nil {
		t.Fatalf("Render err: %v", err)
	}
	if err := hub.Render(ctx, battle.View{Key: "guild-1", SessionID: "s1", State: battle.StateProposing, Revision: 1}); err != nil {
		t.Fatalf("stale Render err: %v", err)
	}
	final := battle.View{Key: "guild-1", SessionID: "s1", State: battle.StateCompleted, Revision: 3, Result: &battle.Result{Winner: "alice"}}
	if err := hub.Render(ctx, final); err != nil {
		t.Fatalf("final Render err: %v", err)
	}

	first := readMessage(t, conn)
	if first.View == nil || first.View.Revision != 2 {
		t.Fatalf("expected revision 2 first, got %+v", first.View)
	}
	if first.Recap != "" {
		t.Fatalf("live views must not carry a recap, got %q", first.Recap)
	}

	second := readMessage(t, conn)
	if second.View == nil || second.View.Revision != 3 {
		t.Fatalf("stale revision leaked, got %+v", second.View)
	}
	if second.Recap != "what a fight" {
		t.Fatalf("expected recap on final view, got %q", second.Recap)
	}
}

func TestRenderNewSessionResetsRevision(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := startHub(t, hub)

	conn := dial(t, srv, "guild-1")
	readMessage(t, conn)

	ctx := context.Background()
	hub.Render(ctx, battle.View{Key: "guild-1", SessionID: "s1", Revision: 9, State: battle.StateCancelled})
	hub.Render(ctx, battle.View{Key: "guild-1", SessionID: "s2", Revision: 1, State: battle.StateProposing})

	readMessage(t, conn)
	next := readMessage(t, conn)
	if next.View == nil || next.View.SessionID != "s2" {
		t.Fatalf("expected view from new session, got %+v", next.View)
	}
}

func TestRenderWithoutSubscribersSucceeds(t *testing.T) {
	hub := NewHub(nil, nil)
	if err := hub.Render(context.Background(), battle.View{Key: "nobody", Revision: 1}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
