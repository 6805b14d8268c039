package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhouzirui/ball-arena/backend/internal/handler/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/handler/live"
	"github.com/zhouzirui/ball-arena/backend/internal/model/collectible"
	battleService "github.com/zhouzirui/ball-arena/backend/internal/service/battle"
)

func TestRouterMountsBattleRoutes(t *testing.T) {
	registry := battleService.NewRegistry(battleService.Options{})
	defer registry.Shutdown("test finished")

	h := battle.New(registry, collectible.NewMemoryStore(collectible.Seed()), nil)
	router := NewRouter(h, live.NewHub(nil, nil))

	cases := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/api/battles", http.StatusOK},
		{"/api/battles/missing", http.StatusNotFound},
		{"/api/battles/history", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("GET %s: expected %d, got %d", tc.path, tc.status, resp.Code)
		}
	}
}
