package services

import (
	"encoding/json"
	"log"
	"sync"

	"backend/models"

	"github.com/gorilla/websocket"
)

type WSClient struct {
	UserID uint
	Conn   *websocket.Conn
}

// scanAlertEnvelope is the wire shape pushed to websocket clients.
type scanAlertEnvelope struct {
	Kind  string        `json:"kind"`
	Alert *models.Alert `json:"alert"`
}

const scanAlertKind = "scan.alert"

// RealtimeHub fans scan alerts out to every websocket a user has open.
// A client whose write fails is evicted so the set never accumulates
// dead connections.
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

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	_ = c.Conn.Close()
}

func (h *RealtimeHub) removeLocked(c *WSClient) {
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

// ClientCount reports how many open connections a user has.
func (h *RealtimeHub) ClientCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastScanAlert pushes an alert to every connection the user has open.
// Failed writes evict the client.
func (h *RealtimeHub) BroadcastScanAlert(userID uint, alert *models.Alert) {
	msg, err := json.Marshal(scanAlertEnvelope{Kind: scanAlertKind, Alert: alert})
	if err != nil {
		log.Printf("failed to encode scan alert for user %d: %v", userID, err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dead []*WSClient
	for _, c := range targets {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			dead = append(dead, c)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, c := range dead {
			h.removeLocked(c)
		}
		h.mu.Unlock()
		for _, c := range dead {
			_ = c.Conn.Close()
		}
	}
}
