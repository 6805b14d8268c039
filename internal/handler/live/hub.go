package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	battle "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Recapper 为终局视图生成解说。
type Recapper interface {
	Recap(ctx context.Context, view battle.View) string
}

// SnapshotFunc 返回某个 key 当前的对战视图。
type SnapshotFunc func(key string) (battle.View, bool)

type outgoingMessage struct {
	Type      string       `json:"type"`
	Key       string       `json:"key"`
	View      *battle.View `json:"view,omitempty"`
	Recap     string       `json:"recap,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(msg outgoingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// room 保存某个 key 的订阅者以及最近一次广播的版本。
type room struct {
	clients  map[*client]struct{}
	session  string
	revision uint64
}

// Hub 将对战视图通过 WebSocket 推送给订阅者，实现 battle.Renderer。
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]*room
	recap    Recapper
	snapshot SnapshotFunc
	upgrader websocket.Upgrader
}

// NewHub 创建推送中心。recap 与 snapshot 均可为空。
func NewHub(recap Recapper, snapshot SnapshotFunc) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		recap:    recap,
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws/battles/{key}", h.handleSubscribe)
}

// Render 广播视图。旧版本的视图会被丢弃；所有订阅者都写入失败时返回错误。
func (h *Hub) Render(ctx context.Context, view battle.View) error {
	clients, fresh := h.accept(view)
	if !fresh || len(clients) == 0 {
		return nil
	}

	msg := outgoingMessage{
		Type:      "battle",
		Key:       view.Key,
		View:      &view,
		Timestamp: time.Now().Unix(),
	}
	if view.Final() && h.recap != nil {
		msg.Recap = h.recap.Recap(ctx, view)
	}

	var errs []error
	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.writeJSON(msg); err != nil {
			log.Printf("[live] write failed key=%s: %v", view.Key, err)
			h.remove(view.Key, c)
			errs = append(errs, err)
		}
	}
	if len(errs) == len(clients) {
		return fmt.Errorf("render battle %s: %w", view.Key, errors.Join(errs...))
	}
	return nil
}

// Subscribers 返回某个 key 的订阅者数量。
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rm, ok := h.rooms[key]; ok {
		return len(rm.clients)
	}
	return 0
}

// accept records view as the latest for its key and returns the clients to notify.
func (h *Hub) accept(view battle.View) ([]*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[view.Key]
	if !ok {
		return nil, true
	}
	if rm.session == view.SessionID && view.Revision <= rm.revision {
		return nil, false
	}
	rm.session = view.SessionID
	rm.revision = view.Revision

	clients := make([]*client, 0, len(rm.clients))
	for c := range rm.clients {
		clients = append(clients, c)
	}
	return clients, true
}

func (h *Hub) roomLocked(key string) *room {
	rm, ok := h.rooms[key]
	if !ok {
		rm = &room{clients: make(map[*client]struct{})}
		h.rooms[key] = rm
	}
	return rm
}

func (h *Hub) add(key string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomLocked(key).clients[c] = struct{}{}
}

func (h *Hub) remove(key string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[key]
	if !ok {
		return
	}
	if _, exists := rm.clients[c]; exists {
		delete(rm.clients, c)
		c.conn.Close()
	}
	if len(rm.clients) == 0 {
		delete(h.rooms, key)
	}
}

// handleSubscribe 处理WebSocket订阅
func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}
	h.add(key, c)
	defer h.remove(key, c)

	log.Printf("[live] new subscriber for key: %s", key)

	hello := outgoingMessage{Type: "subscribed", Key: key, Timestamp: time.Now().Unix()}
	if h.snapshot != nil {
		if view, ok := h.snapshot(key); ok {
			hello.View = &view
		}
	}
	if err := c.writeJSON(hello); err != nil {
		log.Printf("[live] write hello failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pingLoop(ctx, c)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 订阅者不发送业务消息，读循环只用于感知断开与处理控制帧。
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[live] read error: %v", err)
			}
			return
		}
	}
}

// pingLoop 定期发送ping消息
func (h *Hub) pingLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
