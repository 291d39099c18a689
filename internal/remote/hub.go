// Package remote relays clicker key presses to presenter sessions over
// websockets.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/input"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
)

// Peer roles.
const (
	RolePresenter = "presenter"
	RoleClicker   = "clicker"
)

// Message types.
const (
	TypeKey   = "key"
	TypeAck   = "ack"
	TypeError = "error"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Message is the websocket frame exchanged by clickers, the hub and
// presenter sessions.
type Message struct {
	Type      string `json:"type"`
	Key       string `json:"key,omitempty"`
	Shift     bool   `json:"shift,omitempty"`
	Delivered int    `json:"delivered,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Event converts a key message into an input event.
func (m Message) Event() input.KeyEvent {
	return input.KeyEvent{Key: m.Key, Shift: m.Shift}
}

// Presentations looks up the presentation a peer wants to join.
type Presentations interface {
	Get(ctx context.Context, id string) (*deck.Presentation, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks the presenter sessions subscribed to each presentation.
type Hub struct {
	store  Presentations
	logger *slog.Logger

	mu         sync.Mutex
	presenters map[string]map[*peer]struct{}
}

type peer struct {
	conn *websocket.Conn
	send chan Message

	mu     sync.Mutex
	closed bool
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

// NewHub creates a hub authorizing peers against store.
func NewHub(store Presentations, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		store:      store,
		logger:     logger,
		presenters: make(map[string]map[*peer]struct{}),
	}
}

// RegisterRoutes mounts the remote endpoint on the given router.
func RegisterRoutes(r chi.Router, hub *Hub) {
	r.Get("/api/presentations/{id}/remote", hub.handleConnect)
}

// Subscribers returns how many presenter sessions are listening on id.
func (h *Hub) Subscribers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presenters[id])
}

// requestUser reads the caller identity. Browsers cannot set headers on a
// websocket handshake so the query parameter is accepted too.
func requestUser(r *http.Request) string {
	if u := r.Header.Get(livesync.HeaderUserID); u != "" {
		return u
	}
	return r.URL.Query().Get("user")
}

func (h *Hub) handleConnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user := requestUser(r)
	role := r.URL.Query().Get("role")
	if role == "" {
		role = RoleClicker
	}
	if role != RolePresenter && role != RoleClicker {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	p, err := h.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, deck.ErrNotFound):
		http.Error(w, "presentation not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("remote lookup failed", "presentation", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	case user == "":
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	case !p.IsPresenter(user):
		http.Error(w, "only the presenter can use the remote", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	pr := &peer{conn: conn, send: make(chan Message, sendBuffer)}
	go pr.writePump(h.logger)

	h.logger.Info("remote connected", "presentation", id, "user", user, "role", role)
	if role == RolePresenter {
		h.join(id, pr)
		defer h.leave(id, pr)
	}
	h.readPump(id, role, pr)
	h.logger.Info("remote disconnected", "presentation", id, "user", user, "role", role)
}

func (h *Hub) join(id string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.presenters[id]
	if set == nil {
		set = make(map[*peer]struct{})
		h.presenters[id] = set
	}
	set[p] = struct{}{}
}

func (h *Hub) leave(id string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.presenters[id]; set != nil {
		delete(set, p)
		if len(set) == 0 {
			delete(h.presenters, id)
		}
	}
}

// readPump reads until the connection closes. Presenter peers only listen;
// clicker key messages are relayed and acknowledged.
func (h *Hub) readPump(id, role string, p *peer) {
	defer func() {
		p.close()
		p.conn.Close()
	}()
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", "err", err)
			}
			return
		}
		if role != RoleClicker {
			continue
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			p.trySend(Message{Type: TypeError, Error: "invalid message format"})
			continue
		}
		if msg.Type != TypeKey {
			p.trySend(Message{Type: TypeError, Error: "unknown message type: " + msg.Type})
			continue
		}
		if input.Translate(msg.Event()) == input.CmdNone {
			p.trySend(Message{Type: TypeError, Error: "unmapped key: " + msg.Key})
			continue
		}
		n := h.Broadcast(id, Message{Type: TypeKey, Key: msg.Key, Shift: msg.Shift})
		p.trySend(Message{Type: TypeAck, Delivered: n})
	}
}

// Broadcast queues msg for every presenter session on id and returns how
// many accepted it. Peers with a full buffer are skipped.
func (h *Hub) Broadcast(id string, msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for p := range h.presenters[id] {
		if p.trySend(msg) {
			n++
		}
	}
	return n
}

func (p *peer) trySend(msg Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.send <- msg:
		return true
	default:
		return false
	}
}

func (p *peer) writePump(logger *slog.Logger) {
	for msg := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteJSON(msg); err != nil {
			logger.Debug("websocket write", "err", err)
			p.conn.Close()
			for range p.send {
			}
			return
		}
	}
	p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
