package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Event is the envelope pushed to websocket clients.
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data,omitempty"`
}

// WSClient is one websocket connection of a user. gorilla connections allow
// a single concurrent writer, so writes go through Send/Ping.
type WSClient struct {
	UserID uint
	Conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *WSClient) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *WSClient) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

// Unregister drops c and closes its connection. Safe to call twice.
func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Connected returns how many connections userID has open.
func (h *RealtimeHub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish sends ev to every connection of userID. Connections that fail the
// write are dropped.
func (h *RealtimeHub) Publish(userID uint, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			h.Unregister(c)
		}
	}
}
