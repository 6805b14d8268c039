package recap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	battle "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

// Config 控制战报解说服务的行为。
type Config struct {
	Enabled bool
}

// Service 使用大模型为结束的对战生成解说，失败时回退到固定格式的战报。
type Service struct {
	enabled  bool
	narrator compose.Runnable[map[string]any, *schema.Message]
}

// NewService 创建解说服务。chatModel 为空时只使用固定战报。
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{enabled: cfg.Enabled && chatModel != nil}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(recapSystemPrompt),
		schema.UserMessage(recapUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile recap chain: %w", err)
	}

	svc.narrator = runnable
	return svc, nil
}

// Enabled 返回是否启用大模型解说。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.narrator != nil
}

// Recap 为终局视图生成解说文本。非终局视图返回空字符串。
func (s *Service) Recap(ctx context.Context, view battle.View) string {
	if !view.Final() {
		return ""
	}

	summary := Summary(view)
	if !s.Enabled() || view.Result == nil {
		return summary
	}

	msg, err := s.narrator.Invoke(ctx, map[string]any{
		"player_a": string(view.A.Identity),
		"player_b": string(view.B.Identity),
		"rounds":   describeRounds(view.Result),
		"summary":  summary,
	})
	if err != nil {
		log.Printf("[recap] narrator invoke failed, use summary: %v", err)
		return summary
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return summary
	}
	return strings.TrimSpace(msg.Content)
}

// Summary 生成固定格式的战报。
func Summary(view battle.View) string {
	if view.Result == nil {
		if view.Reason != "" {
			return view.Reason
		}
		return "The battle has ended."
	}

	var builder strings.Builder
	for _, round := range view.Result.Rounds {
		if round.Winner.None() {
			fmt.Fprintf(&builder, "Round %d: Draw!\n", round.Index+1)
			continue
		}
		fmt.Fprintf(&builder, "Round %d: %s wins!\n", round.Index+1, round.Winner)
	}

	if view.Result.Draw() {
		builder.WriteString("\nThe battle ended in a draw!")
	} else {
		fmt.Fprintf(&builder, "\nOverall Winner: %s!", view.Result.Winner)
	}
	return strings.TrimLeft(builder.String(), "\n")
}

func describeRounds(result *battle.Result) string {
	if len(result.Rounds) == 0 {
		return "no rounds were fought"
	}

	lines := make([]string, 0, len(result.Rounds))
	for _, round := range result.Rounds {
		outcome := "draw"
		if !round.Winner.None() {
			outcome = string(round.Winner) + " wins"
		}
		if round.Capped {
			outcome += " (stalemate)"
		}
		lines = append(lines, fmt.Sprintf("round %d: %s (atk %d, hp %d) vs %s (atk %d, hp %d), %d exchanges, %s",
			round.Index+1,
			round.A.Label, round.A.AttackBonus, round.A.HealthBonus,
			round.B.Label, round.B.AttackBonus, round.B.HealthBonus,
			round.Exchanges, outcome))
	}
	return strings.Join(lines, "\n")
}

const recapSystemPrompt = "You are the announcer of a collectible battle arena. Write a lively recap of at most four sentences. Never change who won a round or the battle, and do not invent rounds. Reply with plain text only."

const recapUserPrompt = "Players: {player_a} versus {player_b}\n\nRounds:\n{rounds}\n\nOfficial result:\n{summary}"
