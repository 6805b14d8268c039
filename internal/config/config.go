package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Battle  BattleConfig
	Storage StorageConfig
	AI      AIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.Battle.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string `env:"-"`
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// BattleConfig 描述对战会话的节奏与限制。
type BattleConfig struct {
	TickInterval  time.Duration `env:"BATTLE_TICK_INTERVAL" envDefault:"15s"`
	Deadline      time.Duration `env:"BATTLE_DEADLINE" envDefault:"30m"`
	RenderTimeout time.Duration `env:"BATTLE_RENDER_TIMEOUT" envDefault:"10s"`
	MaxExchanges  int           `env:"BATTLE_MAX_EXCHANGES" envDefault:"1000"`
	DisplayLimit  int           `env:"BATTLE_DISPLAY_LIMIT" envDefault:"10"`
}

func (c BattleConfig) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid BATTLE_TICK_INTERVAL value %q", c.TickInterval)
	}
	if c.Deadline < c.TickInterval {
		return fmt.Errorf("BATTLE_DEADLINE (%s) must not be shorter than BATTLE_TICK_INTERVAL (%s)", c.Deadline, c.TickInterval)
	}
	if c.MaxExchanges < 1 {
		return fmt.Errorf("invalid BATTLE_MAX_EXCHANGES value %d", c.MaxExchanges)
	}
	if c.DisplayLimit < 1 {
		return fmt.Errorf("invalid BATTLE_DISPLAY_LIMIT value %d", c.DisplayLimit)
	}
	return nil
}

// StorageConfig 描述对战记录的持久化方式。Driver 为空时不记录。
type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER"`
	DSN    string `env:"STORAGE_DSN"`
}

// Enabled 表示是否配置了对战记录存储。
func (c StorageConfig) Enabled() bool {
	return c.Driver != ""
}

func (c StorageConfig) validate() error {
	switch c.Driver {
	case "":
		return nil
	case "postgres", "sqlite":
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("STORAGE_DSN is required for driver %q", c.Driver)
		}
		return nil
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Driver)
	}
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey       string   `env:"ARK_API_KEY"`
	AccessKey    string   `env:"ARK_ACCESS_KEY"`
	SecretKey    string   `env:"ARK_SECRET_KEY"`
	Model        string   `env:"ARK_MODEL"`
	BaseURL      string   `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region       string   `env:"ARK_REGION" envDefault:"cn-beijing"`
	Temperature  *float32 `env:"ARK_TEMPERATURE"`
	MaxTokens    *int     `env:"ARK_MAX_TOKENS"`
	RecapEnabled bool     `env:"AI_RECAP_ENABLED" envDefault:"false"`
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}
