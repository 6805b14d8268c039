package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/ball-arena/backend/internal/analysis/duel"
	"github.com/zhouzirui/ball-arena/backend/internal/config"
	"github.com/zhouzirui/ball-arena/backend/internal/handler"
	battleHandler "github.com/zhouzirui/ball-arena/backend/internal/handler/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/handler/live"
	battleModel "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/model/collectible"
	"github.com/zhouzirui/ball-arena/backend/internal/service/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/service/recap"
	"github.com/zhouzirui/ball-arena/backend/internal/storage"
)

const shutdownReason = "The server is shutting down."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	collectibles := collectible.NewMemoryStore(collectible.Seed())

	// Result history
	var (
		store   storage.Store
		history battleHandler.History
	)
	if cfg.Storage.Enabled() {
		store, err = storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("failed to open %s storage: %v", cfg.Storage.Driver, err)
		}
		defer store.Close()
		history = store
		log.Printf("battle history stored with %s", cfg.Storage.Driver)
	} else {
		log.Println("STORAGE_DRIVER 未配置，对战记录不会持久化")
	}

	// AI recap (falls back to the plain summary)
	var chatModel model.ChatModel
	if cfg.AI.RecapEnabled {
		if cfg.AI.Enabled() {
			chatModel, err = cfg.AI.NewChatModel(ctx)
			if err != nil {
				log.Printf("warning: failed to initialize chat model: %v", err)
				log.Println("continuing with plain battle summaries")
			}
		} else {
			log.Println("Ark 凭证未配置，战报解说使用固定格式")
		}
	}
	recapSvc, err := recap.NewService(ctx, chatModel, recap.Config{Enabled: cfg.AI.RecapEnabled})
	if err != nil {
		log.Fatalf("failed to initialize recap service: %v", err)
	}
	if recapSvc.Enabled() {
		log.Println("AI recap service enabled")
	}

	var registry *battle.Registry
	hub := live.NewHub(recapSvc, func(key string) (battleModel.View, bool) {
		session, ok := registry.Get(key)
		if !ok {
			return battleModel.View{}, false
		}
		return session.Snapshot(), true
	})

	opts := battle.Options{
		TickInterval:  cfg.Battle.TickInterval,
		Deadline:      cfg.Battle.Deadline,
		RenderTimeout: cfg.Battle.RenderTimeout,
		DisplayLimit:  cfg.Battle.DisplayLimit,
		Rules:         duel.Rules{MaxExchanges: cfg.Battle.MaxExchanges},
		Renderer:      hub,
	}
	if store != nil {
		opts.Recorder = store
	}
	registry = battle.NewRegistry(opts)
	defer registry.Shutdown(shutdownReason)

	router := handler.NewRouter(battleHandler.New(registry, collectibles, history), hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Ball Arena backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
