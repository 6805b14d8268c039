package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/ball-arena/backend/internal/handler/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/handler/live"
	middlewarePkg "github.com/zhouzirui/ball-arena/backend/internal/middleware"
	"github.com/zhouzirui/ball-arena/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(battleHandler *battle.Handler, hub *live.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		battleHandler.RegisterRoutes(api)

		// 实时推送
		if hub != nil {
			hub.RegisterRoutes(api)
		}
	})

	return r
}
