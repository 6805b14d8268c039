package recap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	battle "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

type fakeChatModel struct {
	reply  string
	err    error
	inputs [][]*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func completedView() battle.View {
	return battle.View{
		State: battle.StateCompleted,
		A:     battle.ParticipantView{Identity: "alice"},
		B:     battle.ParticipantView{Identity: "bob"},
		Result: &battle.Result{
			Rounds: []battle.RoundOutcome{
				{Index: 0, Winner: "alice", Exchanges: 2},
				{Index: 1, Exchanges: 0},
			},
			Winner: "alice",
			WinsA:  1,
		},
	}
}

func TestSummaryListsRounds(t *testing.T) {
	got := Summary(completedView())
	want := "Round 1: alice wins!\nRound 2: Draw!\n\nOverall Winner: alice!"
	if got != want {
		t.Fatalf("unexpected summary:\n%s", got)
	}
}

func TestSummaryDrawAndCancel(t *testing.T) {
	view := battle.View{State: battle.StateCompleted, Result: &battle.Result{}}
	if got := Summary(view); got != "The battle ended in a draw!" {
		t.Fatalf("unexpected draw summary %q", got)
	}

	view = battle.View{State: battle.StateCancelled, Reason: "The battle has been cancelled."}
	if got := Summary(view); got != "The battle has been cancelled." {
		t.Fatalf("unexpected cancel summary %q", got)
	}
}

func TestRecapDisabledUsesSummary(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service without model must be disabled")
	}
	if got := svc.Recap(context.Background(), completedView()); got != Summary(completedView()) {
		t.Fatalf("unexpected recap %q", got)
	}
}

func TestRecapSkipsLiveViews(t *testing.T) {
	svc, _ := NewService(context.Background(), nil, Config{})
	if got := svc.Recap(context.Background(), battle.View{State: battle.StateProposing}); got != "" {
		t.Fatalf("expected empty recap, got %q", got)
	}
}

func TestRecapUsesNarrator(t *testing.T) {
	fake := &fakeChatModel{reply: "  Alice crushed it.  "}
	svc, err := NewService(context.Background(), fake, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	got := svc.Recap(context.Background(), completedView())
	if got != "Alice crushed it." {
		t.Fatalf("unexpected recap %q", got)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one model call, got %d", len(fake.inputs))
	}
	last := fake.inputs[0][len(fake.inputs[0])-1]
	if !strings.Contains(last.Content, "alice versus bob") {
		t.Fatalf("prompt missing players: %q", last.Content)
	}
}

func TestRecapFallsBackOnModelError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	svc, err := NewService(context.Background(), fake, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if got := svc.Recap(context.Background(), completedView()); got != Summary(completedView()) {
		t.Fatalf("expected summary fallback, got %q", got)
	}
}
