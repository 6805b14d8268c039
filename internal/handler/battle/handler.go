package battle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	model "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
	"github.com/zhouzirui/ball-arena/backend/internal/model/collectible"
	battleService "github.com/zhouzirui/ball-arena/backend/internal/service/battle"
	"github.com/zhouzirui/ball-arena/backend/pkg/utils"
)

// IdentityHeader 携带调用方身份的请求头。
const IdentityHeader = "X-User-ID"

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	eventPollInterval   = 500 * time.Millisecond
)

// History 提供最近的对战记录。
type History interface {
	Recent(ctx context.Context, limit int) ([]model.Record, error)
}

// Handler 对战服务的HTTP处理器
type Handler struct {
	registry     *battleService.Registry
	collectibles collectible.Store
	history      History
	pollInterval time.Duration
}

// New 创建对战处理器。history 可为空，此时历史接口返回 503。
func New(registry *battleService.Registry, collectibles collectible.Store, history History) *Handler {
	return &Handler{
		registry:     registry,
		collectibles: collectibles,
		history:      history,
		pollInterval: eventPollInterval,
	}
}

// RegisterRoutes 注册对战相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/collectibles", h.handleHoldings)

	r.Route("/battles", func(r chi.Router) {
		r.Post("/", h.handleBegin)
		r.Get("/", h.handleList)
		r.Get("/history", h.handleHistory)

		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/events", h.handleEvents)
			r.Post("/proposal", h.handleAdd)
			r.Post("/proposal/all", h.handleAddAll)
			r.Delete("/proposal/{collectibleID}", h.handleRemove)
			r.Post("/lock", h.handleLock)
			r.Post("/cancel", h.handleCancel)
		})
	})
}

// handleBegin 发起对战
func (h *Handler) handleBegin(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var payload struct {
		Key        string `json:"key"`
		OpponentID string `json:"opponentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Key) == "" || strings.TrimSpace(payload.OpponentID) == "" {
		utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", "key and opponentId are required")
		return
	}

	session, err := h.registry.Begin(r.Context(), payload.Key, caller, model.Identity(payload.OpponentID))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session.Snapshot())
}

// handleList 列出进行中的对战
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessions := h.registry.Active()
	views := make([]model.View, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, session.Snapshot())
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

// handleGet 获取对战视图
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleAdd 添加藏品到提案
func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var payload struct {
		CollectibleID string `json:"collectibleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if payload.CollectibleID == "" {
		utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", "collectibleId is required")
		return
	}

	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	item, err := h.collectibles.Get(r.Context(), payload.CollectibleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := session.AddToProposal(caller, item); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleAddAll 将调用方的全部藏品加入提案
func (h *Handler) handleAddAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !session.IsParticipant(caller) {
		respondServiceError(w, battleService.ErrNotAParticipant)
		return
	}

	holdings, err := h.collectibles.Holdings(r.Context(), caller)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if len(holdings) == 0 {
		utils.RespondErrorCode(w, http.StatusNotFound, "no_collectibles", "you do not own any collectibles")
		return
	}

	added, err := session.AddAllOwned(caller, holdings)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if added == nil {
		added = []model.Collectible{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"added": added,
		"view":  session.Snapshot(),
	})
}

// handleRemove 从提案中移除藏品
func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := session.RemoveFromProposal(caller, chi.URLParam(r, "collectibleID")); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleLock 锁定提案，双方都锁定后立即结算
func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	result, err := session.Lock(caller)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"commenced": result != nil,
		"result":    result,
		"view":      session.Snapshot(),
	})
}

// handleCancel 取消对战
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
	}

	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := session.CancelBy(caller, payload.Reason); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleHoldings 列出调用方持有的藏品
func (h *Handler) handleHoldings(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	items, err := h.collectibles.Holdings(r.Context(), caller)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if items == nil {
		items = []model.Collectible{}
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// handleHistory 返回最近的对战记录
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		utils.RespondErrorCode(w, http.StatusServiceUnavailable, "history_unavailable", "battle history is not configured")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("[battle] load history failed: %v", err)
		utils.RespondErrorCode(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	utils.RespondJSON(w, http.StatusOK, records)
}

// handleEvents 以SSE推送对战视图，直到对战结束或客户端断开
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session, err := h.registry.Lookup(chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	var sent uint64
	push := func() bool {
		view := session.Snapshot()
		if view.Revision != sent {
			sent = view.Revision
			if err := utils.SendSSEEvent(w, flusher, "battle", view); err != nil {
				return true
			}
		}
		return view.Final()
	}

	if push() {
		return
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.Done():
			push()
			return
		case <-ticker.C:
			if push() {
				return
			}
		}
	}
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity := model.Identity(strings.TrimSpace(r.Header.Get(IdentityHeader)))
	if identity.None() {
		utils.RespondErrorCode(w, http.StatusUnauthorized, "missing_identity", IdentityHeader+" header is required")
		return "", false
	}
	return identity, true
}

// respondServiceError 将领域错误映射为HTTP状态码
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, battleService.ErrAlreadyActive):
		utils.RespondErrorCode(w, http.StatusConflict, "already_active", err.Error())
	case errors.Is(err, battleService.ErrAlreadyProposed):
		utils.RespondErrorCode(w, http.StatusConflict, "already_proposed", err.Error())
	case errors.Is(err, battleService.ErrAlreadyLocked):
		utils.RespondErrorCode(w, http.StatusConflict, "already_locked", err.Error())
	case errors.Is(err, battleService.ErrInvalidState):
		utils.RespondErrorCode(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, battleService.ErrNoActiveSession):
		utils.RespondErrorCode(w, http.StatusNotFound, "no_active_session", err.Error())
	case errors.Is(err, battleService.ErrNotInProposal):
		utils.RespondErrorCode(w, http.StatusNotFound, "not_in_proposal", err.Error())
	case errors.Is(err, collectible.ErrNotFound):
		utils.RespondErrorCode(w, http.StatusNotFound, "collectible_not_found", err.Error())
	case errors.Is(err, battleService.ErrNotAParticipant):
		utils.RespondErrorCode(w, http.StatusForbidden, "not_a_participant", err.Error())
	case errors.Is(err, battleService.ErrNotOwner):
		utils.RespondErrorCode(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, battleService.ErrSameParticipant), errors.Is(err, battleService.ErrInvalidIdentity):
		utils.RespondErrorCode(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		log.Printf("[battle] unexpected error: %v", err)
		utils.RespondErrorCode(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
