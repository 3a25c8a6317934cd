// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package websocket pushes live alert events to connected dashboard
// clients. A single hub goroutine owns the client set; a single broadcast
// channel preserves the order events were published in, so a new_alert is
// always delivered before the score_update for the same alert.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/metrics"
	"github.com/nurrustem/riskwatch/internal/models"
)

const broadcastBuffer = 256

// Hub maintains the set of active clients and fans out events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// done is closed when Run exits so attach/detach callers cannot block
	// on a hub that is no longer draining its channels.
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a hub. Call Run before broadcasting.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is canceled.
// Registration requests take priority over pending broadcasts so a
// connecting client never waits behind a burst of events.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			// Drain control channels first.
			select {
			case client := <-h.register:
				h.addClient(client)
			case client := <-h.unregister:
				h.removeClient(client)
			default:
			}
			h.send(message)
		}
	}
}

// Broadcast queues an event for delivery to all clients. Never blocks:
// if the hub queue is full the event is dropped with a warning, since a
// stalled dashboard must not stall ingestion.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WebsocketDroppedEvents.Inc()
		logging.Warn().Int("queue_size", broadcastBuffer).Msg("Hub broadcast queue full, dropping event")
	}
}

// BroadcastNewAlert publishes a new_alert event.
func (h *Hub) BroadcastNewAlert(a *models.Alert) {
	b, err := NewAlertEvent(a)
	if err != nil {
		logging.Err(err).Int64("alert_id", a.ID).Msg("Failed to encode new_alert event")
		return
	}
	h.Broadcast(b)
}

// BroadcastScoreUpdate publishes a score_update event for an alert that
// was already announced via new_alert.
func (h *Hub) BroadcastScoreUpdate(alertID int64, mlScore float64, explanation string) {
	b, err := ScoreUpdateEvent(ScoreUpdate{AlertID: alertID, MLScore: mlScore, Explanation: explanation})
	if err != nil {
		logging.Err(err).Int64("alert_id", alertID).Msg("Failed to encode score_update event")
		return
	}
	h.Broadcast(b)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// attach registers a client. Returns false when the hub has shut down, in
// which case the caller must close the connection itself.
func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// detach unregisters a client. Safe after hub shutdown, where closeAll has
// already released every client.
func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("clients", n).Msg("Websocket client registered")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("clients", n).Msg("Websocket client unregistered")
}

// send delivers a message to every client in id order. A client whose
// buffer is full is evicted rather than allowed to block the hub.
func (h *Hub) send(message []byte) {
	h.mu.RLock()
	ordered := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		ordered = append(ordered, c)
	}
	h.mu.RUnlock()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	for _, c := range ordered {
		select {
		case c.send <- message:
		default:
			logging.Warn().Uint64("client_id", c.id).Msg("Evicting slow websocket client")
			h.removeClient(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.WebsocketClients.Set(0)
}
