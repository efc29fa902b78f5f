package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Broadcaster is the fan-out boundary: group membership keyed by
// session id plus single-recipient delivery. Delivery is
// fire-and-forget, at most once.
type Broadcaster interface {
	JoinGroup(sessionID, connID string)
	LeaveGroup(sessionID, connID string)
	ToGroup(sessionID, event string, payload any)
	ToConnection(connID, event string, payload any)
}

type outboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes on the shared connection
}

func (c *wsClient) send(event string, payload any) error {
	data, err := json.Marshal(outboundEvent{Event: event, Data: payload})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu      sync.Mutex
	clients map[string]*wsClient
	groups  map[string]map[string]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[string]*wsClient),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (h *wsHub) Register(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = &wsClient{conn: conn}
}

// Unregister drops the connection from every group and closes it.
func (h *wsHub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for sessionID, group := range h.groups {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, sessionID)
		}
	}
	_ = client.conn.Close()
}

func (h *wsHub) JoinGroup(sessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		group = make(map[string]struct{})
		h.groups[sessionID] = group
	}
	group[connID] = struct{}{}
}

func (h *wsHub) LeaveGroup(sessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		return
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(h.groups, sessionID)
	}
}

func (h *wsHub) ToGroup(sessionID, event string, payload any) {
	h.mu.Lock()
	members := make([]*wsClient, 0, len(h.groups[sessionID]))
	for connID := range h.groups[sessionID] {
		if client, ok := h.clients[connID]; ok {
			members = append(members, client)
		}
	}
	h.mu.Unlock()

	for _, client := range members {
		_ = client.send(event, payload)
	}
}

func (h *wsHub) ToConnection(connID, event string, payload any) {
	h.mu.Lock()
	client, ok := h.clients[connID]
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = client.send(event, payload)
}
