// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	now        func() time.Time
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RunWithContext processes registrations and global broadcasts until ctx
// is canceled, then closes every client. It is safe to call again after it
// returns, which lets a supervisor restart it.
//
// Lifecycle events are drained before broadcasts so a client registered
// just before a broadcast receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.deliver(message, func(Identity) bool { return true })
		}
	}
}

func (h *Hub) addClient(client *Client) {
	id := client.identity

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	// the buffer of a new client is empty
	client.send <- Message{
		Type: MessageTypeConnection,
		Data: ConnectionData{
			Message: "Connected to smokewatch real-time notifications",
			UserID:  id.UserID,
			Role:    id.Role,
			VenueID: id.VenueID,
		},
		Timestamp: h.now(),
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))

	logging.Info().
		Str("user_id", id.UserID).
		Str("role", string(id.Role)).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Str("user_id", client.identity.UserID).Int("total_clients", total).Msg("websocket client disconnected")
}

// sendTo queues message for one client without blocking. The send
// channel is only closed under h.mu after the client left h.clients, so a
// client the hub already dropped gets nothing instead of a closed-channel
// send. It reports whether the message was queued.
func (h *Hub) sendTo(client *Client, message Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// unregister hands the client to the run loop, or removes it directly when
// the loop is not running.
func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-time.After(writeWait):
		h.removeClient(client)
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.GetClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// sortedClients returns clients in ID order. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// deliver sends message to every client accepted by filter without
// blocking. Clients with a full buffer are dropped. It returns the user IDs
// that received the message, deduplicated and sorted.
func (h *Hub) deliver(message Message, filter func(Identity) bool) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool)
	recipients := []string{}
	var dropped []*Client

	for _, client := range h.sortedClients() {
		if !filter(client.identity) {
			continue
		}
		select {
		case client.send <- message:
			if uid := client.identity.UserID; uid != "" && !seen[uid] {
				seen[uid] = true
				recipients = append(recipients, uid)
			}
		default:
			dropped = append(dropped, client)
		}
	}

	for _, client := range dropped {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("buffer_full").Inc()
		logging.Warn().Str("user_id", client.identity.UserID).Msg("websocket client too slow, dropped")
	}
	if len(dropped) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}

	sort.Strings(recipients)
	return recipients
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// BroadcastToVenue delivers a message to system admins and to clients
// scoped to venueID, returning the recipient user IDs.
func (h *Hub) BroadcastToVenue(msgType, venueID string, data interface{}) []string {
	message := Message{Type: msgType, Data: data, Timestamp: h.now()}
	return h.deliver(message, func(id Identity) bool { return id.receives(venueID) })
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	message := Message{Type: msgType, Data: data, Timestamp: h.now()}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", msgType).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastJSON is Broadcast under the name used by notifier broadcasters.
func (h *Hub) BroadcastJSON(msgType string, data interface{}) {
	h.Broadcast(msgType, data)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
